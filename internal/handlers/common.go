package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"shoe-market-backend/internal/middleware"
	"shoe-market-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondServiceError maps the error taxonomy onto HTTP status codes.
// Unclassified errors become a 500 without detail.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var (
		validationErr *models.ValidationError
		referenceErr  *models.InvalidReferenceError
	)

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Details: validationErr.Fields})
	case errors.As(err, &referenceErr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "Invalid reference",
			Details: map[string]string{referenceField(referenceErr.Kind): strings.Join(referenceErr.IDs, ",")},
		})
	case errors.Is(err, models.ErrValidation):
		respondError(w, "Validation failed", http.StatusBadRequest)
	case errors.Is(err, models.ErrInvalidReference):
		respondError(w, "Invalid reference", http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrConflict):
		respondError(w, conflictMessage(err), http.StatusUnprocessableEntity)
	case errors.Is(err, models.ErrForbidden):
		respondError(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, models.ErrAuthenticationFailed):
		respondError(w, "Authentication failed", http.StatusUnauthorized)
	case errors.Is(err, models.ErrNotFound):
		respondError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, models.ErrInvalidTransition):
		respondError(w, "A delivered record cannot return to pending", http.StatusConflict)
	case errors.Is(err, models.ErrStoreUnavailable):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg(action + ": store unavailable")
		w.Header().Set("Retry-After", "1")
		respondError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
	default:
		log.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("user_id", middleware.GetUserID(r.Context())).
			Msg(action)
		respondError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func referenceField(kind string) string {
	switch kind {
	case "shoe":
		return "shoeIds"
	case "user":
		return "userId"
	default:
		return kind
	}
}

func conflictMessage(err error) string {
	if strings.Contains(err.Error(), "phone") {
		return "Phone number already registered"
	}
	return "Conflict"
}

// decodeJSON reads the request body into v. A malformed body is a validation error.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return models.NewValidationError("body", "is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.NewValidationError("body", "must be valid JSON")
	}
	return nil
}

// claimFrom returns the verified claim attached by the auth middleware
func claimFrom(r *http.Request) models.Claim {
	claim, _ := middleware.GetClaim(r.Context())
	return claim
}
