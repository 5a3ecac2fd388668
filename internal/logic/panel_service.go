package logic

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/courtsignal/panel-api/internal/models"
	"github.com/courtsignal/panel-api/internal/panel"
)

var (
	panelsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "panelapi_panels_built_total",
		Help: "Total number of panels built and registered",
	})
	panelBuildFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "panelapi_panel_build_failures_total",
		Help: "Total number of panel builds rejected by validation",
	})
	observationsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "panelapi_observations_indexed_total",
		Help: "Total observations indexed across all built panels",
	})
)

// entry pairs an immutable panel with the derived columns attached so far.
type entry struct {
	panel     *panel.Panel
	columns   map[string]*panel.Column
	createdAt time.Time
}

type panelService struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  *zap.SugaredLogger
}

func NewPanelService(logger *zap.SugaredLogger) PanelService {
	return &panelService{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Create builds a panel from flat records and registers it under a fresh id.
func (s *panelService) Create(records []panel.Record, policy panel.DuplicatePolicy) (string, error) {
	p, err := panel.Build(records, policy)
	if err != nil {
		panelBuildFailures.Inc()
		return "", err
	}
	panelsBuilt.Inc()
	observationsIndexed.Add(float64(p.NumObservations()))

	id := uuid.NewString()
	s.mu.Lock()
	s.entries[id] = &entry{
		panel:     p,
		columns:   make(map[string]*panel.Column),
		createdAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	s.logger.Infow("Panel registered",
		"panel_id", id,
		"entities", len(p.Entities()),
		"observations", p.NumObservations(),
	)
	return id, nil
}

func (s *panelService) Get(id string) (*panel.Panel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrPanelNotFound
	}
	return e.panel, nil
}

// Attach records derived columns next to the panel. The panel itself is
// never touched; columns with the same name are replaced (they are
// deterministic, so a replacement is identical anyway).
func (s *panelService) Attach(id string, cols ...*panel.Column) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return ErrPanelNotFound
	}
	for _, c := range cols {
		e.columns[c.Name] = c
	}
	return nil
}

func (s *panelService) Enriched(id string) (*panel.Enriched, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrPanelNotFound
	}
	cols := make([]*panel.Column, 0, len(e.columns))
	for _, c := range e.columns {
		cols = append(cols, c)
	}
	return e.panel.WithColumns(cols...), nil
}

func (s *panelService) Summary(id string) (*models.PanelSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, ErrPanelNotFound
	}

	p := e.panel
	entities := p.Entities()
	spans := make([]models.EntitySpan, 0, len(entities))
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, entityID := range entities {
		obs, err := p.Observations(entityID)
		if err != nil || len(obs) == 0 {
			continue
		}
		spans = append(spans, models.EntitySpan{
			EntityID:     entityID,
			Observations: len(obs),
			First:        obs[0].Timestamp,
			Last:         obs[len(obs)-1].Timestamp,
		})
		for _, o := range obs {
			for m, v := range o.Metrics {
				sums[m] += v
				counts[m]++
			}
		}
	}

	// Means over observed values only; a metric an observation never
	// reported does not drag its mean toward zero.
	means := make(map[string]float64, len(sums))
	for m, sum := range sums {
		means[m] = sum / float64(counts[m])
	}

	columns := make([]string, 0, len(e.columns))
	for name := range e.columns {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	return &models.PanelSummary{
		PanelID:      id,
		Entities:     len(entities),
		Observations: p.NumObservations(),
		Metrics:      p.MetricNames(),
		MetricMeans:  means,
		Columns:      columns,
		Spans:        spans,
		CreatedAt:    e.createdAt,
	}, nil
}
