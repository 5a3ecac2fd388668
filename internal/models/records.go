package models

import "time"

// FlatRecord is one raw row from the ingestion boundary: an opaque entity
// key, a timestamp string and named numeric metrics. No ordering is assumed
// on input.
type FlatRecord struct {
	EntityID  string    `json:"entity_id" validate:"required"`
	Timestamp string    `json:"timestamp" validate:"required"`
	Metrics   MetricMap `json:"metrics"`
}

type BuildPanelRequest struct {
	Records         []FlatRecord `json:"records" validate:"required,min=1,dive"`
	DuplicatePolicy string       `json:"duplicate_policy" validate:"required,oneof=keep_first keep_last reject"`
}

// LoadPanelRequest builds a panel from one of the configured stores instead
// of an inline batch. Entities, Start and End narrow the fetch; empty means
// everything.
type LoadPanelRequest struct {
	Source          string   `json:"source" validate:"required,oneof=clickhouse postgres"`
	DuplicatePolicy string   `json:"duplicate_policy" validate:"required,oneof=keep_first keep_last reject"`
	Entities        []string `json:"entities,omitempty"`
	Start           string   `json:"start,omitempty"`
	End             string   `json:"end,omitempty"`
	Limit           int      `json:"limit,omitempty" validate:"gte=0"`
}

type BuildPanelResponse struct {
	PanelID string        `json:"panel_id"`
	Summary *PanelSummary `json:"summary"`
}

// FeatureRequest is one derivation. K applies to lag; Window, Aggregator,
// Quantile and MinPeriods apply to rolling; Aggregator applies to
// cumulative (empty means sum).
type FeatureRequest struct {
	Op         string  `json:"op" validate:"required,oneof=lag rolling cumulative"`
	Metric     string  `json:"metric" validate:"required"`
	K          int     `json:"k,omitempty"`
	Window     int     `json:"window,omitempty"`
	Aggregator string  `json:"aggregator,omitempty"`
	Quantile   float64 `json:"quantile,omitempty"`
	MinPeriods int     `json:"min_periods,omitempty"`
}

type DeriveFeaturesRequest struct {
	Features []FeatureRequest `json:"features" validate:"required,min=1,dive"`
}

type TransformRequest struct {
	Op     string `json:"op" validate:"required,oneof=within between first_difference"`
	Metric string `json:"metric" validate:"required"`
}

// EntitySpan summarizes one entity's slice of the panel.
type EntitySpan struct {
	EntityID     string    `json:"entity_id"`
	Observations int       `json:"observations"`
	First        time.Time `json:"first"`
	Last         time.Time `json:"last"`
}

type PanelSummary struct {
	PanelID      string             `json:"panel_id"`
	Entities     int                `json:"entities"`
	Observations int                `json:"observations"`
	Metrics      []string           `json:"metrics"`
	MetricMeans  map[string]float64 `json:"metric_means,omitempty"`
	Columns      []string           `json:"columns,omitempty"`
	Spans        []EntitySpan       `json:"spans"`
	CreatedAt    time.Time          `json:"created_at"`
}

// AsOfResponse reports a point-in-time query. Observed false is the
// "no data yet" case: the entity exists but the query precedes its first
// observation. Consumers must not read that as zeros.
type AsOfResponse struct {
	EntityID  string             `json:"entity_id"`
	Observed  bool               `json:"observed"`
	Timestamp *time.Time         `json:"timestamp,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}
