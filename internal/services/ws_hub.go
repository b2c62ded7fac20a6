package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"shoe-market-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsWriteWait = 10 * time.Second

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	ShoeID    string      `json:"shoe_id,omitempty"`
	ImageRef  string      `json:"image_ref,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type wsClient struct {
	conn    *websocket.Conn
	isAdmin bool
	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections, one per user
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
	}
}

// Register registers a connection for a user, closing any previous one
func (h *WSHub) Register(userID string, isAdmin bool, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	}
	h.connections[userID] = &wsClient{conn: conn, isAdmin: isAdmin}

	log.Info().Str("user_id", userID).Bool("admin", isAdmin).Msg("WebSocket connection registered")
}

// Unregister removes the user's connection if it is still conn
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.connections[userID]; exists && client.conn == conn {
		client.conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID, client.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// IsOnline checks if a user is connected
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// PublishRecordEvent sends a record change to its owner and every connected admin
func (h *WSHub) PublishRecordEvent(eventType string, record *models.Record) {
	h.mu.RLock()
	targets := make([]string, 0, len(h.connections))
	for userID, client := range h.connections {
		if userID == record.UserID || client.isAdmin {
			targets = append(targets, userID)
		}
	}
	h.mu.RUnlock()

	message := WSMessage{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Data:      record,
	}
	for _, userID := range targets {
		if err := h.SendToUser(userID, message); err != nil {
			log.Warn().
				Err(err).
				Str("user_id", userID).
				Str("event", eventType).
				Msg("Failed to deliver record event")
		}
	}
}
