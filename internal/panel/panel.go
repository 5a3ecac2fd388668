// Package panel implements the temporal panel-data engine: per-entity,
// time-sorted observations with point-in-time queries and strict
// no-lookahead semantics. A Panel is immutable after Build; derived features
// are separate columns layered on top (see Column), never in-place edits.
package panel

import (
	"sort"
	"time"
)

// Record is a flat input row: one entity, one timestamp, named numeric
// metrics. Input order carries no meaning; Build sorts per entity.
type Record struct {
	EntityID  string
	Timestamp time.Time
	Metrics   map[string]float64
}

// Observation is a Record that passed validation and lives inside a Panel.
type Observation struct {
	EntityID  string
	Timestamp time.Time
	Metrics   map[string]float64
}

// series holds one entity's observations sorted ascending by timestamp,
// with a parallel UnixNano index for binary search.
type series struct {
	obs   []Observation
	times []int64
}

// Panel is an immutable collection of observations partitioned by entity.
// Within each partition timestamps are strictly increasing. Safe for
// concurrent readers without locking.
type Panel struct {
	entities map[string]*series
	order    []string
	metrics  []string
	total    int
}

// Entities returns entity ids in lexical order.
func (p *Panel) Entities() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// MetricNames returns the union of metric names seen at build time, sorted.
func (p *Panel) MetricNames() []string {
	out := make([]string, len(p.metrics))
	copy(out, p.metrics)
	return out
}

// NumObservations is the total observation count across all entities.
func (p *Panel) NumObservations() int {
	return p.total
}

// Len returns the number of observations for an entity, zero if unknown.
func (p *Panel) Len(entityID string) int {
	s, ok := p.entities[entityID]
	if !ok {
		return 0
	}
	return len(s.obs)
}

// Has reports whether the panel has ever seen the entity.
func (p *Panel) Has(entityID string) bool {
	_, ok := p.entities[entityID]
	return ok
}

// At returns the observation at entity-relative position i.
func (p *Panel) At(entityID string, i int) (Observation, error) {
	s, ok := p.entities[entityID]
	if !ok {
		return Observation{}, &EntityNotFoundError{EntityID: entityID}
	}
	if i < 0 || i >= len(s.obs) {
		return Observation{}, &InvalidParameterError{
			Param:  "position",
			Reason: "out of range",
		}
	}
	return s.obs[i], nil
}

// Observations returns the entity's observations in ascending time order.
// The returned slice is shared with the panel and must not be modified.
func (p *Panel) Observations(entityID string) ([]Observation, error) {
	s, ok := p.entities[entityID]
	if !ok {
		return nil, &EntityNotFoundError{EntityID: entityID}
	}
	return s.obs, nil
}

// MetricValues returns the entity's series for one metric, position-aligned
// with its observations. Observations that never reported the metric yield
// the missing sentinel, not zero.
func (p *Panel) MetricValues(entityID, metric string) ([]Value, error) {
	s, ok := p.entities[entityID]
	if !ok {
		return nil, &EntityNotFoundError{EntityID: entityID}
	}
	out := make([]Value, len(s.obs))
	for i, o := range s.obs {
		if f, ok := o.Metrics[metric]; ok {
			out[i] = Some(f)
		}
	}
	return out, nil
}

// position returns the index of the observation with exactly ts, if any.
func (s *series) position(ts time.Time) (int, bool) {
	t := ts.UnixNano()
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] >= t })
	if i < len(s.times) && s.times[i] == t {
		return i, true
	}
	return 0, false
}

// Position is the entity-relative index of the observation at exactly ts.
func (p *Panel) Position(entityID string, ts time.Time) (int, bool) {
	s, ok := p.entities[entityID]
	if !ok {
		return 0, false
	}
	return s.position(ts)
}
