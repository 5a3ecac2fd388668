package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/courtsignal/panel-api/internal/logic"
	"github.com/courtsignal/panel-api/internal/panel"
)

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready check endpoint
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check all dependencies
	checks := map[string]bool{
		"postgres":   h.pg.Ping(ctx) == nil,
		"clickhouse": h.ch.Ping(ctx) == nil,
		"redis":      h.redis.Ping(ctx).Err() == nil,
	}

	allHealthy := true
	for _, ok := range checks {
		if !ok {
			allHealthy = false
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !allHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ready":      allHealthy,
		"checks":     checks,
		"queueDepth": h.pool.QueueDepth(),
	})
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

// statusFromError maps the engine's error taxonomy onto HTTP statuses.
// Unknown panels and entities are 404s, bad input is a 400, everything
// else is a 500.
func statusFromError(err error) int {
	if errors.Is(err, logic.ErrPanelNotFound) || errors.Is(err, panel.ErrEntityNotFound) {
		return http.StatusNotFound
	}

	var paramErr *panel.InvalidParameterError
	var fieldErr *panel.MissingFieldError
	var tsErr *panel.InvalidTimestampError
	var dupErr *panel.DuplicateObservationError
	if errors.As(err, &paramErr) || errors.As(err, &fieldErr) ||
		errors.As(err, &tsErr) || errors.As(err, &dupErr) {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		h.logger.Errorw("Internal error", "error", err)
	}
	h.errorResponse(w, status, err.Error())
}
