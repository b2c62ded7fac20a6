package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"shoe-market-backend/internal/middleware"
	"shoe-market-backend/internal/models"
	"shoe-market-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub         *services.WSHub
	verifier    middleware.ClaimVerifier
	shoeService *services.ShoeService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, verifier middleware.ClaimVerifier, shoeService *services.ShoeService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		verifier:    verifier,
		shoeService: shoeService,
	}
}

// HandleWebSocket handles GET /ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	claim, err := h.verifier.Verify(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	userID := claim.Subject
	h.hub.Register(userID, claim.IsAdmin, conn)
	defer h.hub.Unregister(userID, conn)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendErrorToUser(userID, "Invalid message format")
			continue
		}

		h.handleMessage(r.Context(), claim, msg)
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, claim models.Claim, msg services.WSMessage) {
	switch msg.Type {
	case "ping":
		h.send(claim.Subject, services.WSMessage{Type: "pong", Timestamp: time.Now().UnixMilli()})
	case "image_uploaded":
		h.handleImageUploaded(ctx, claim, msg)
	default:
		h.sendErrorToUser(claim.Subject, "Unknown message type")
	}
}

// handleImageUploaded attaches an uploaded image to a listing
func (h *WebSocketHandler) handleImageUploaded(ctx context.Context, claim models.Claim, msg services.WSMessage) {
	if msg.ShoeID == "" || msg.ImageRef == "" {
		h.sendErrorToUser(claim.Subject, "shoe_id and image_ref are required")
		return
	}

	shoe, err := h.shoeService.AttachImage(ctx, msg.ShoeID, msg.ImageRef, claim)
	if err != nil {
		log.Warn().
			Err(err).
			Str("user_id", claim.Subject).
			Str("shoe_id", msg.ShoeID).
			Msg("Failed to attach image")
		h.sendErrorToUser(claim.Subject, "Failed to attach image")
		return
	}

	log.Info().
		Str("user_id", claim.Subject).
		Str("shoe_id", shoe.ID).
		Msg("Image attached")

	h.send(claim.Subject, services.WSMessage{
		Type:      "image_attached",
		Timestamp: time.Now().UnixMilli(),
		ShoeID:    shoe.ID,
		ImageRef:  shoe.ImageRef,
	})
}

func (h *WebSocketHandler) send(userID string, msg services.WSMessage) {
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to send WebSocket message")
	}
}

// sendErrorToUser sends an error message to a user
func (h *WebSocketHandler) sendErrorToUser(userID, message string) {
	h.send(userID, services.WSMessage{
		Type:    "error",
		Message: message,
	})
}
