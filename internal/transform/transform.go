// Package transform implements the panel econometric transformations:
// within-entity demeaning, between-entity averages and first differences.
// For any metric, within + between reconstructs the metric pointwise
// wherever it was observed.
package transform

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/courtsignal/panel-api/internal/panel"
)

// Within subtracts each entity's own mean of the metric from every one of
// its observations. The result has zero mean per entity by construction;
// positions where the metric was never observed stay the sentinel.
func Within(p *panel.Panel, metric string) (*panel.Column, error) {
	name := fmt.Sprintf("%s_within", metric)
	return perEntity(p, name, metric, func(vs []panel.Value) []panel.Value {
		out := make([]panel.Value, len(vs))
		mean, ok := entityMean(vs)
		if !ok {
			return out
		}
		for i, v := range vs {
			if v.Known {
				out[i] = panel.Some(v.Float64 - mean)
			}
		}
		return out
	}), nil
}

// Between broadcasts each entity's mean of the metric to every one of its
// observations, the entity-level component for cross-sectional regressions.
func Between(p *panel.Panel, metric string) (*panel.Column, error) {
	name := fmt.Sprintf("%s_between", metric)
	return perEntity(p, name, metric, func(vs []panel.Value) []panel.Value {
		out := make([]panel.Value, len(vs))
		mean, ok := entityMean(vs)
		if !ok {
			return out
		}
		for i, v := range vs {
			if v.Known {
				out[i] = panel.Some(mean)
			}
		}
		return out
	}), nil
}

// FirstDifference derives metric[i] - metric[i-1] within each entity. The
// first position of every entity has no prior value and yields the sentinel,
// as does any pair with an unobserved side.
func FirstDifference(p *panel.Panel, metric string) (*panel.Column, error) {
	name := fmt.Sprintf("%s_diff", metric)
	return perEntity(p, name, metric, func(vs []panel.Value) []panel.Value {
		out := make([]panel.Value, len(vs))
		for i := 1; i < len(vs); i++ {
			if vs[i].Known && vs[i-1].Known {
				out[i] = panel.Some(vs[i].Float64 - vs[i-1].Float64)
			}
		}
		return out
	}), nil
}

// entityMean is the compensated mean over the known values of a series.
func entityMean(vs []panel.Value) (float64, bool) {
	sum, comp := 0.0, 0.0
	n := 0
	for _, v := range vs {
		if !v.Known {
			continue
		}
		y := v.Float64 - comp
		t := sum + y
		comp = (t - sum) - y
		sum = t
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// perEntity fans the transformation out across entities; per-entity series
// are independent so the merge is the only synchronization point.
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
