package handlers

import (
	"net/http"

	"shoe-market-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// RecordHandler handles purchase record HTTP requests
type RecordHandler struct {
	recordService *services.RecordService
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(recordService *services.RecordService) *RecordHandler {
	return &RecordHandler{recordService: recordService}
}

// ListRecords handles GET /records
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.recordService.ListAll(r.Context(), claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to list records")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// ListByUser handles GET /records/user/{userId}
func (h *RecordHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	records, err := h.recordService.ListByUser(r.Context(), chi.URLParam(r, "userId"), claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to list user records")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// ListByShoe handles GET /shoes/{id}/records
func (h *RecordHandler) ListByShoe(w http.ResponseWriter, r *http.Request) {
	records, err := h.recordService.ListByShoe(r.Context(), chi.URLParam(r, "id"), claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to list shoe records")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// GetRecord handles GET /records/{id}
func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.recordService.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get record")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// CreateRecord handles POST /records
func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req services.CreateRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err, "Failed to create record")
		return
	}

	record, err := h.recordService.CreateRecord(r.Context(), req, claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to create record")
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

// UpdateRecord handles PUT /records/{id}
func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err, "Failed to update record")
		return
	}

	record, err := h.recordService.UpdateRecord(r.Context(), chi.URLParam(r, "id"), req, claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to update record")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// DeleteRecord handles DELETE /records/{id}
func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	record, err := h.recordService.DeleteRecord(r.Context(), chi.URLParam(r, "id"), claimFrom(r))
	if err != nil {
		respondServiceError(w, r, err, "Failed to delete record")
		return
	}
	respondJSON(w, http.StatusOK, record)
}
