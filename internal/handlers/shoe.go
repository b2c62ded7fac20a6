package handlers

import (
	"net/http"

	"shoe-market-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ShoeHandler handles catalog HTTP requests
type ShoeHandler struct {
	shoeService *services.ShoeService
}

// NewShoeHandler creates a new shoe handler
func NewShoeHandler(shoeService *services.ShoeService) *ShoeHandler {
	return &ShoeHandler{shoeService: shoeService}
}

// ListShoes handles GET /shoes
func (h *ShoeHandler) ListShoes(w http.ResponseWriter, r *http.Request) {
	shoes, err := h.shoeService.ListShoes(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "Failed to list shoes")
		return
	}
	respondJSON(w, http.StatusOK, shoes)
}

// ListByCategory handles GET /shoes/category/{category} and /shoes/category/{category}/{subCategory}
func (h *ShoeHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	shoes, err := h.shoeService.ListByCategory(r.Context(), chi.URLParam(r, "category"), chi.URLParam(r, "subCategory"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to list shoes by category")
		return
	}
	respondJSON(w, http.StatusOK, shoes)
}

// GetShoe handles GET /shoes/{id}
func (h *ShoeHandler) GetShoe(w http.ResponseWriter, r *http.Request) {
	shoe, err := h.shoeService.GetShoe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get shoe")
		return
	}
	respondJSON(w, http.StatusOK, shoe)
}

// CreateShoe handles POST /shoes
func (h *ShoeHandler) CreateShoe(w http.ResponseWriter, r *http.Request) {
	var req services.CreateShoeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err, "Failed to create shoe")
		return
	}

	shoe, err := h.shoeService.CreateShoe(r.Context(), req, claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to create shoe")
		return
	}

	log.Info().
		Str("shoe_id", shoe.ID).
		Str("category", shoe.Category).
		Str("sub_category", shoe.SubCategory).
		Msg("Shoe listed")

	respondJSON(w, http.StatusCreated, shoe)
}

// UpdateShoe handles PUT /shoes/{id}
func (h *ShoeHandler) UpdateShoe(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateShoeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err, "Failed to update shoe")
		return
	}

	shoe, err := h.shoeService.UpdateShoe(r.Context(), chi.URLParam(r, "id"), req, claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to update shoe")
		return
	}
	respondJSON(w, http.StatusOK, shoe)
}

// DeleteShoe handles DELETE /shoes/{id}
func (h *ShoeHandler) DeleteShoe(w http.ResponseWriter, r *http.Request) {
	shoe, err := h.shoeService.DeleteShoe(r.Context(), chi.URLParam(r, "id"), claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to delete shoe")
		return
	}

	log.Info().Str("shoe_id", shoe.ID).Msg("Shoe delisted")
	respondJSON(w, http.StatusOK, shoe)
}
