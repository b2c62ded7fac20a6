package handlers

import (
	"net/http"

	"shoe-market-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ImageHandler hands out listing image upload URLs
type ImageHandler struct {
	imageService *services.ImageService
}

// NewImageHandler creates a new image handler. imageService may be nil when no bucket is configured.
func NewImageHandler(imageService *services.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

// GetUploadURL handles POST /shoes/images
func (h *ImageHandler) GetUploadURL(w http.ResponseWriter, r *http.Request) {
	if h.imageService == nil {
		respondError(w, "Image uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	var req services.UploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err, "Failed to create upload URL")
		return
	}

	resp, err := h.imageService.GetPreSignedURL(r.Context(), req, claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to create upload URL")
		return
	}

	log.Info().
		Str("user_id", claimFrom(r).Subject).
		Str("image_ref", resp.ImageRef).
		Msg("Image upload URL issued")

	respondJSON(w, http.StatusOK, resp)
}
