package logic

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/courtsignal/panel-api/internal/features"
	"github.com/courtsignal/panel-api/internal/models"
	"github.com/courtsignal/panel-api/internal/panel"
	"github.com/courtsignal/panel-api/internal/transform"
)

type featureService struct {
	panels PanelService
	cache  ColumnCache // nil disables caching
	logger *zap.SugaredLogger
}

func NewFeatureService(panels PanelService, cache ColumnCache, logger *zap.SugaredLogger) FeatureService {
	return &featureService{panels: panels, cache: cache, logger: logger}
}

// Derive computes the requested columns concurrently, attaches them to the
// panel's registry entry and returns them in request order. Parameter errors
// fail the whole request up front; derivations themselves cannot fail.
func (s *featureService) Derive(ctx context.Context, panelID string, reqs []models.FeatureRequest) ([]*panel.Column, error) {
	p, err := s.panels.Get(panelID)
	if err != nil {
		return nil, err
	}

	cols := make([]*panel.Column, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			col, err := s.deriveOne(ctx, panelID, p, req)
			if err != nil {
				return err
			}
			cols[i] = col
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.panels.Attach(panelID, cols...); err != nil {
		return nil, err
	}
	return cols, nil
}

func (s *featureService) deriveOne(ctx context.Context, panelID string, p *panel.Panel, req models.FeatureRequest) (*panel.Column, error) {
	sig := featureSignature(req)
	if s.cache != nil {
		if col, hit := s.cache.Get(ctx, panelID, sig); hit {
			s.logger.Debugw("Feature cache hit", "panel_id", panelID, "signature", sig)
			return col, nil
		}
	}

	var (
		col *panel.Column
		err error
	)
	switch req.Op {
	case "lag":
		col, err = features.Lag(p, req.Metric, req.K)
	case "rolling":
		col, err = features.Rolling(p, features.RollingSpec{
			Metric:     req.Metric,
			Window:     req.Window,
			Aggregator: req.Aggregator,
			Quantile:   req.Quantile,
			MinPeriods: req.MinPeriods,
		})
	case "cumulative":
		col, err = features.Cumulative(p, req.Metric, req.Aggregator)
	default:
		return nil, &panel.InvalidParameterError{
			Param:  "op",
			Reason: fmt.Sprintf("unknown feature op %q", req.Op),
		}
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Put(ctx, panelID, sig, col)
	}
	return col, nil
}

// Transform computes a within/between/first-difference column and attaches
// it to the panel.
func (s *featureService) Transform(ctx context.Context, panelID string, req models.TransformRequest) (*panel.Column, error) {
	p, err := s.panels.Get(panelID)
	if err != nil {
		return nil, err
	}

	sig := transformSignature(req)
	if s.cache != nil {
		if col, hit := s.cache.Get(ctx, panelID, sig); hit {
			return col, nil
		}
	}

	var col *panel.Column
	switch req.Op {
	case "within":
		col, err = transform.Within(p, req.Metric)
	case "between":
		col, err = transform.Between(p, req.Metric)
	case "first_difference":
		col, err = transform.FirstDifference(p, req.Metric)
	default:
		return nil, &panel.InvalidParameterError{
			Param:  "op",
			Reason: fmt.Sprintf("unknown transform op %q", req.Op),
		}
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Put(ctx, panelID, sig, col)
	}
	if err := s.panels.Attach(panelID, col); err != nil {
		return nil, err
	}
	return col, nil
}

// featureSignature is the cache key fragment for one derivation; every
// parameter that affects output is part of it.
func featureSignature(req models.FeatureRequest) string {
	parts := []string{
		req.Op,
		req.Metric,
		strconv.Itoa(req.K),
		strconv.Itoa(req.Window),
		req.Aggregator,
		strconv.FormatFloat(req.Quantile, 'g', -1, 64),
		strconv.Itoa(req.MinPeriods),
	}
	return strings.Join(parts, ":")
}

func transformSignature(req models.TransformRequest) string {
	return req.Op + ":" + req.Metric
}
