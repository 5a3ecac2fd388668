package panel

import "sort"

// DuplicatePolicy decides what Build does when two records share an entity
// and a timestamp. There is no default: callers must choose explicitly.
type DuplicatePolicy string

const (
	KeepFirst DuplicatePolicy = "keep_first"
	KeepLast  DuplicatePolicy = "keep_last"
	Reject    DuplicatePolicy = "reject"
)

func (d DuplicatePolicy) valid() bool {
	switch d {
	case KeepFirst, KeepLast, Reject:
		return true
	}
	return false
}

// Build validates a batch of flat records and assembles the immutable Panel.
// Records are grouped by entity and sorted ascending by timestamp; duplicate
// timestamps within an entity are resolved by policy. keep_first and
// keep_last refer to input batch order among the tied records.
func Build(records []Record, policy DuplicatePolicy) (*Panel, error) {
	if !policy.valid() {
		return nil, &InvalidParameterError{
			Param:  "duplicate_policy",
			Reason: "must be keep_first, keep_last or reject",
		}
	}

	type indexed struct {
		rec Record
		pos int
	}
	groups := make(map[string][]indexed)
	for i, r := range records {
		if r.EntityID == "" {
			return nil, &MissingFieldError{Field: "entity_id", Index: i}
		}
		if r.Timestamp.IsZero() {
			return nil, &MissingFieldError{Field: "timestamp", Index: i}
		}
		groups[r.EntityID] = append(groups[r.EntityID], indexed{rec: r, pos: i})
	}

	p := &Panel{
		entities: make(map[string]*series, len(groups)),
		order:    make([]string, 0, len(groups)),
	}
	metricSet := make(map[string]struct{})

	for entityID, group := range groups {
		// Stable on input position so the duplicate policy is deterministic.
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].rec.Timestamp.Before(group[j].rec.Timestamp)
		})

		s := &series{
			obs:   make([]Observation, 0, len(group)),
			times: make([]int64, 0, len(group)),
		}
		for _, g := range group {
			n := len(s.obs)
			if n > 0 && s.obs[n-1].Timestamp.Equal(g.rec.Timestamp) {
				switch policy {
				case Reject:
					return nil, &DuplicateObservationError{
						EntityID:  entityID,
						Timestamp: g.rec.Timestamp,
					}
				case KeepFirst:
					continue
				case KeepLast:
					s.obs = s.obs[:n-1]
					s.times = s.times[:n-1]
				}
			}
			s.obs = append(s.obs, newObservation(entityID, g.rec, metricSet))
			s.times = append(s.times, g.rec.Timestamp.UnixNano())
		}
		p.entities[entityID] = s
		p.order = append(p.order, entityID)
		p.total += len(s.obs)
	}

	sort.Strings(p.order)
	p.metrics = make([]string, 0, len(metricSet))
	for m := range metricSet {
		p.metrics = append(p.metrics, m)
	}
	sort.Strings(p.metrics)

	return p, nil
}

// newObservation copies the record's metric map so the panel stays detached
// from caller-owned memory.
func newObservation(entityID string, r Record, metricSet map[string]struct{}) Observation {
	metrics := make(map[string]float64, len(r.Metrics))
	for k, v := range r.Metrics {
		metrics[k] = v
		metricSet[k] = struct{}{}
	}
	return Observation{
		EntityID:  entityID,
		Timestamp: r.Timestamp,
		Metrics:   metrics,
	}
}
