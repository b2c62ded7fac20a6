package handlers

import (
	"net/http"
	"time"

	"shoe-market-backend/internal/services"
)

// HealthHandler returns uptime and basic status.
type HealthHandler struct {
	startedAt  time.Time
	bookkeeper *services.Bookkeeper
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, bookkeeper *services.Bookkeeper) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, bookkeeper: bookkeeper}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
	}
	if h.bookkeeper != nil {
		body["bookkeeping"] = h.bookkeeper.Stats()
	}
	respondJSON(w, http.StatusOK, body)
}
