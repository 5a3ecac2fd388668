package panel

import (
	"sort"
	"time"
)

// AsOf answers the point-in-time query: the observation for entityID with
// the greatest timestamp <= ts. Later observations are never considered.
//
// The second return value distinguishes "no data yet" (entity known, query
// precedes its first observation) from a real observation; it is not an
// error and must not be read as zero. An unknown entity is an
// *EntityNotFoundError.
//
// If fields is non-empty the returned observation carries only those
// metrics.
func (p *Panel) AsOf(entityID string, ts time.Time, fields ...string) (Observation, bool, error) {
	s, ok := p.entities[entityID]
	if !ok {
		return Observation{}, false, &EntityNotFoundError{EntityID: entityID}
	}

	t := ts.UnixNano()
	// First index with time > t; the as-of match sits just before it.
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] > t })
	if i == 0 {
		return Observation{}, false, nil
	}
	return project(s.obs[i-1], fields), true, nil
}

// Range returns the entity's observations with start <= timestamp <= end in
// ascending order. An empty window is an empty slice, not an error.
func (p *Panel) Range(entityID string, start, end time.Time) ([]Observation, error) {
	s, ok := p.entities[entityID]
	if !ok {
		return nil, &EntityNotFoundError{EntityID: entityID}
	}
	if end.Before(start) {
		return []Observation{}, nil
	}

	lo := sort.Search(len(s.times), func(i int) bool {
		return s.times[i] >= start.UnixNano()
	})
	hi := sort.Search(len(s.times), func(i int) bool {
		return s.times[i] > end.UnixNano()
	})

	out := make([]Observation, hi-lo)
	copy(out, s.obs[lo:hi])
	return out, nil
}

// project narrows an observation to the requested metric names. Metrics the
// observation never reported are simply absent from the result.
func project(o Observation, fields []string) Observation {
	if len(fields) == 0 {
		return o
	}
	metrics := make(map[string]float64, len(fields))
	for _, f := range fields {
		if v, ok := o.Metrics[f]; ok {
			metrics[f] = v
		}
	}
	return Observation{
		EntityID:  o.EntityID,
		Timestamp: o.Timestamp,
		Metrics:   metrics,
	}
}
