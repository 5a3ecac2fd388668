package logic

import (
	"context"
	"errors"

	"github.com/courtsignal/panel-api/internal/models"
	"github.com/courtsignal/panel-api/internal/panel"
)

// ErrPanelNotFound is returned for panel ids the registry has never issued.
var ErrPanelNotFound = errors.New("panel not found")

// PanelService owns the registry of built panels. Panels are immutable;
// the registry only accretes derived columns next to them.
type PanelService interface {
	Create(records []panel.Record, policy panel.DuplicatePolicy) (string, error)
	Get(id string) (*panel.Panel, error)
	Attach(id string, cols ...*panel.Column) error
	Enriched(id string) (*panel.Enriched, error)
	Summary(id string) (*models.PanelSummary, error)
}

// FeatureService computes derived columns and transformations for
// registered panels, consulting the column cache when one is configured.
type FeatureService interface {
	Derive(ctx context.Context, panelID string, reqs []models.FeatureRequest) ([]*panel.Column, error)
	Transform(ctx context.Context, panelID string, req models.TransformRequest) (*panel.Column, error)
}

// ColumnCache is the derived-column cache contract (see internal/cache).
type ColumnCache interface {
	Get(ctx context.Context, panelID, signature string) (*panel.Column, bool)
	Put(ctx context.Context, panelID, signature string, col *panel.Column)
}
