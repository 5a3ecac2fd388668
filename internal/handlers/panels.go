package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/courtsignal/panel-api/internal/ingest"
	"github.com/courtsignal/panel-api/internal/models"
	"github.com/courtsignal/panel-api/internal/panel"
)

// CreatePanel handles POST /api/v1/panels
// Builds an immutable panel from an inline batch of flat records.
func (h *Handler) CreatePanel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	var req models.BuildPanelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	records, err := ingest.ParseRecords(req.Records)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	id, err := h.panels.Create(records, panel.DuplicatePolicy(req.DuplicatePolicy))
	if err != nil {
		h.serviceError(w, err)
		return
	}

	summary, err := h.panels.Summary(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.logger.Infow("Panel created", "panel_id", id, "records", len(records))
	h.jsonResponse(w, http.StatusCreated, models.BuildPanelResponse{
		PanelID: id,
		Summary: summary,
	})
}

// LoadPanel handles POST /api/v1/panels/load
// Builds a panel from one of the configured record stores.
func (h *Handler) LoadPanel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	var req models.LoadPanelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	source, ok := h.sources[req.Source]
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Unknown source: "+req.Source)
		return
	}

	filter := ingest.Filter{Entities: req.Entities, Limit: req.Limit}
	if req.Start != "" {
		ts, err := ingest.ParseTimestamp(req.Start)
		if err != nil {
			h.serviceError(w, err)
			return
		}
		filter.Start = ts
	}
	if req.End != "" {
		ts, err := ingest.ParseTimestamp(req.End)
		if err != nil {
			h.serviceError(w, err)
			return
		}
		filter.End = ts
	}

	records, err := source.Fetch(r.Context(), filter)
	if err != nil {
		h.logger.Errorw("Record store fetch failed", "source", req.Source, "error", err)
		h.errorResponse(w, http.StatusBadGateway, "Record store fetch failed")
		return
	}
	if len(records) == 0 {
		h.errorResponse(w, http.StatusBadRequest, "Record store returned no rows")
		return
	}

	id, err := h.panels.Create(records, panel.DuplicatePolicy(req.DuplicatePolicy))
	if err != nil {
		h.serviceError(w, err)
		return
	}

	summary, err := h.panels.Summary(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.logger.Infow("Panel loaded", "panel_id", id, "source", req.Source, "records", len(records))
	h.jsonResponse(w, http.StatusCreated, models.BuildPanelResponse{
		PanelID: id,
		Summary: summary,
	})
}

// GetPanel handles GET /api/v1/panels/{id}
// Returns the panel summary: entity spans, metric names, derived columns.
func (h *Handler) GetPanel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := h.panels.Summary(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, summary)
}

// AsOf handles GET /api/v1/panels/{id}/asof?entity=...&ts=...&fields=a,b
// Point-in-time query: the latest observation at or before ts.
func (h *Handler) AsOf(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entityID := r.URL.Query().Get("entity")
	if entityID == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing entity parameter")
		return
	}
	rawTS := r.URL.Query().Get("ts")
	if rawTS == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing ts parameter")
		return
	}
	ts, err := ingest.ParseTimestamp(rawTS)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	var fields []string
	if raw := r.URL.Query().Get("fields"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(f); trimmed != "" {
				fields = append(fields, trimmed)
			}
		}
	}

	p, err := h.panels.Get(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	obs, observed, err := p.AsOf(entityID, ts, fields...)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	resp := models.AsOfResponse{
		EntityID: entityID,
		Observed: observed,
	}
	if observed {
		resp.Timestamp = &obs.Timestamp
		resp.Metrics = obs.Metrics
	}

	h.jsonResponse(w, http.StatusOK, resp)
}

// GetRange handles GET /api/v1/panels/{id}/range?entity=...&start=...&end=...
// Returns the entity's observations inside the inclusive window.
func (h *Handler) GetRange(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entityID := r.URL.Query().Get("entity")
	if entityID == "" {
		h.errorResponse(w, http.StatusBadRequest, "Missing entity parameter")
		return
	}
	start, err := ingest.ParseTimestamp(r.URL.Query().Get("start"))
	if err != nil {
		h.serviceError(w, err)
		return
	}
	end, err := ingest.ParseTimestamp(r.URL.Query().Get("end"))
	if err != nil {
		h.serviceError(w, err)
		return
	}

	p, err := h.panels.Get(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	obs, err := p.Range(entityID, start, end)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, obs)
}

// GetRows handles GET /api/v1/panels/{id}/rows
// Exports the full panel, base metrics plus derived columns, row by row.
func (h *Handler) GetRows(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	enriched, err := h.panels.Enriched(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, enriched.Rows())
}

// GetColumn handles GET /api/v1/panels/{id}/columns/{name}
// Returns one derived column previously attached to the panel.
func (h *Handler) GetColumn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")

	enriched, err := h.panels.Enriched(id)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	col, ok := enriched.Column(name)
	if !ok {
		h.errorResponse(w, http.StatusNotFound, "Column not found: "+name)
		return
	}

	h.jsonResponse(w, http.StatusOK, col)
}
