package handlers

import (
	"net/http"

	"shoe-market-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	authService   *services.AuthService
	userService   *services.UserService
	recordService *services.RecordService
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *services.AuthService, userService *services.UserService, recordService *services.RecordService) *UserHandler {
	return &UserHandler{
		authService:   authService,
		userService:   userService,
		recordService: recordService,
	}
}

// Signup handles POST /users/signup
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err, "Failed to sign up")
		return
	}

	user, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to sign up")
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Bool("admin", user.IsAdmin).
		Msg("User signed up")

	respondJSON(w, http.StatusCreated, user)
}

// Login handles POST /users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err, "Failed to log in")
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to log in")
		return
	}

	log.Info().Str("user_id", resp.UserID).Msg("User logged in")
	respondJSON(w, http.StatusOK, resp)
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context(), claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// GetUser handles GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), chi.URLParam(r, "id"), claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err, "Failed to update user")
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), chi.URLParam(r, "id"), req, claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.DeleteUser(r.Context(), chi.URLParam(r, "id"), claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to delete user")
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User deleted")
	respondJSON(w, http.StatusOK, user)
}

// ListUserRecords handles GET /users/{id}/records
func (h *UserHandler) ListUserRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.recordService.ListByUser(r.Context(), chi.URLParam(r, "id"), claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to list user records")
		return
	}
	respondJSON(w, http.StatusOK, records)
}
