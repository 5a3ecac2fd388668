package features

import (
	"fmt"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/courtsignal/panel-api/internal/panel"
)

// Lag derives metric shifted back k observations within each entity: the
// value at position i equals the metric at position i-k, or the missing
// sentinel for i < k. k must be at least 1; a lag of zero is just the metric.
func Lag(p *panel.Panel, metric string, k int) (*panel.Column, error) {
	if k < 1 {
		return nil, &panel.InvalidParameterError{
			Param:  "k",
			Reason: "lag must be at least 1",
		}
	}
	name := fmt.Sprintf("%s_lag%d", metric, k)
	return perEntity(p, name, metric, func(vs []panel.Value) []panel.Value {
		out := make([]panel.Value, len(vs))
		for i := range vs {
			if i >= k {
				out[i] = vs[i-k]
			}
		}
		return out
	}), nil
}

// RollingSpec parameterizes a rolling-window derivation. MinPeriods of zero
// means "require a full window" (MinPeriods = Window); positions whose span
// holds fewer known values than MinPeriods yield the sentinel so early-career
// noise never masquerades as a stable statistic.
type RollingSpec struct {
	Metric     string
	Window     int
	Aggregator string
	Quantile   float64
	MinPeriods int
}

func (s RollingSpec) columnName() string {
	if s.Aggregator == AggQuantile {
		return fmt.Sprintf("%s_roll%d_q%s", s.Metric, s.Window,
			strconv.FormatFloat(s.Quantile, 'g', -1, 64))
	}
	return fmt.Sprintf("%s_roll%d_%s", s.Metric, s.Window, s.Aggregator)
}

// Rolling derives a sliding-window aggregate: at position i the aggregator
// runs over the metric at positions [max(0, i-Window+1), i].
func Rolling(p *panel.Panel, spec RollingSpec) (*panel.Column, error) {
	if spec.Window < 1 {
		return nil, &panel.InvalidParameterError{
			Param:  "window",
			Reason: "must be at least 1",
		}
	}
	if spec.MinPeriods == 0 {
		spec.MinPeriods = spec.Window
	}
	if spec.MinPeriods < 1 || spec.MinPeriods > spec.Window {
		return nil, &panel.InvalidParameterError{
			Param:  "min_periods",
			Reason: fmt.Sprintf("must be in [1, %d]", spec.Window),
		}
	}
	agg, err := aggregatorFunc(spec.Aggregator, spec.Quantile)
	if err != nil {
		return nil, err
	}

	return perEntity(p, spec.columnName(), spec.Metric, func(vs []panel.Value) []panel.Value {
		out := make([]panel.Value, len(vs))
		span := make([]float64, 0, spec.Window)
		for i := range vs {
			lo := i - spec.Window + 1
			if lo < 0 {
				lo = 0
			}
			span = span[:0]
			for j := lo; j <= i; j++ {
				if vs[j].Known {
					span = append(span, vs[j].Float64)
				}
			}
			if len(span) < spec.MinPeriods {
				continue
			}
			if f, ok := agg(span); ok {
				out[i] = panel.Some(f)
			}
		}
		return out
	}), nil
}

// Cumulative derives a career-to-date aggregate: at position i the
// aggregator covers the metric at positions [0, i]. An empty aggregator
// defaults to sum. Positions before the first known value yield the
// sentinel.
func Cumulative(p *panel.Panel, metric, aggregator string) (*panel.Column, error) {
	if aggregator == "" {
		aggregator = AggSum
	}
	cumFor, err := cumulatorFor(aggregator)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s_cum_%s", metric, aggregator)

	return perEntity(p, name, metric, func(vs []panel.Value) []panel.Value {
		out := make([]panel.Value, len(vs))
		c := cumFor()
		for i, v := range vs {
			if v.Known {
				c.add(v.Float64)
			}
			if f, ok := c.value(); ok {
				out[i] = panel.Some(f)
			}
		}
		return out
	}), nil
}

// perEntity runs a pure per-entity derivation across all entities in
// parallel. Entities never read each other's data, so the only
// synchronization is the final merge.
func perEntity(p *panel.Panel, name, metric string, fn func([]panel.Value) []panel.Value) *panel.Column {
	entities := p.Entities()
	results := make([][]panel.Value, len(entities))

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, entityID := range entities {
		i, entityID := i, entityID
		g.Go(func() error {
			vs, err := p.MetricValues(entityID, metric)
			if err != nil {
				return err
			}
			results[i] = fn(vs)
			return nil
		})
	}
	// Entities come from the panel itself, so MetricValues cannot fail here.
	_ = g.Wait()

	col := &panel.Column{
		Name:   name,
		Values: make(map[string][]panel.Value, len(entities)),
	}
	for i, entityID := range entities {
		col.Values[entityID] = results[i]
	}
	return col
}
