package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/courtsignal/panel-api/internal/models"
	"github.com/courtsignal/panel-api/internal/worker"
)

// DeriveFeatures handles POST /api/v1/panels/{id}/features
// Computes the requested derived columns synchronously and attaches them.
func (h *Handler) DeriveFeatures(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	var req models.DeriveFeaturesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	cols, err := h.features.Derive(r.Context(), id, req.Features)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, cols)
}

// DeriveFeaturesAsync handles POST /api/v1/panels/{id}/features/async
// Enqueues the derivation on the worker pool and returns immediately.
// Columns become visible on the panel summary once the job completes.
func (h *Handler) DeriveFeaturesAsync(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	var req models.DeriveFeaturesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	// Reject unknown panels up front; the pool has no reply channel.
	if _, err := h.panels.Get(id); err != nil {
		h.serviceError(w, err)
		return
	}

	if !h.pool.Enqueue(worker.Job{PanelID: id, Requests: req.Features}) {
		h.errorResponse(w, http.StatusServiceUnavailable, "Derivation queue full")
		return
	}

	h.jsonResponse(w, http.StatusAccepted, map[string]interface{}{
		"status":   "accepted",
		"panel_id": id,
		"features": len(req.Features),
	})
}

// TransformPanel handles POST /api/v1/panels/{id}/transform
// Applies a panel transformation and attaches the resulting column.
func (h *Handler) TransformPanel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	var req models.TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	col, err := h.features.Transform(r.Context(), id, req)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, col)
}
