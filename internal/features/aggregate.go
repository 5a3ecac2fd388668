// Package features derives predictive feature columns (lags, rolling
// windows, cumulative aggregates) from a panel. Every derived value at
// position i depends only on observations at positions <= i for the same
// entity, so columns are safe to feed into downstream prediction.
package features

import (
	"math"
	"sort"

	"github.com/courtsignal/panel-api/internal/panel"
)

// Aggregator names accepted by Rolling and Cumulative.
const (
	AggSum      = "sum"
	AggMean     = "mean"
	AggMin      = "min"
	AggMax      = "max"
	AggCount    = "count"
	AggStd      = "std"
	AggMedian   = "median"
	AggQuantile = "quantile"
)

// AggFunc reduces the known values of a span to one statistic. ok is false
// when the statistic is undefined for the given values (e.g. sample std of a
// single point), which surfaces as the missing sentinel, never as zero.
type AggFunc func(values []float64) (float64, bool)

// aggregatorFunc resolves an aggregator name. q is only read for quantile.
func aggregatorFunc(name string, q float64) (AggFunc, error) {
	switch name {
	case AggSum:
		return aggSum, nil
	case AggMean:
		return aggMean, nil
	case AggMin:
		return aggMin, nil
	case AggMax:
		return aggMax, nil
	case AggCount:
		return func(vs []float64) (float64, bool) { return float64(len(vs)), true }, nil
	case AggStd:
		return aggStd, nil
	case AggMedian:
		return func(vs []float64) (float64, bool) { return aggQuantile(vs, 0.5) }, nil
	case AggQuantile:
		if q < 0 || q > 1 {
			return nil, &panel.InvalidParameterError{
				Param:  "quantile",
				Reason: "must be in [0, 1]",
			}
		}
		return func(vs []float64) (float64, bool) { return aggQuantile(vs, q) }, nil
	}
	return nil, &panel.InvalidParameterError{
		Param:  "aggregator",
		Reason: "unknown aggregator " + name,
	}
}

// aggSum uses Kahan compensation so long career sums stay exact.
func aggSum(vs []float64) (float64, bool) {
	if len(vs) == 0 {
		return 0, false
	}
	sum, comp := 0.0, 0.0
	for _, v := range vs {
		y := v - comp
		t := sum + y
		comp = (t - sum) - y
		sum = t
	}
	return sum, true
}

func aggMean(vs []float64) (float64, bool) {
	s, ok := aggSum(vs)
	if !ok {
		return 0, false
	}
	return s / float64(len(vs)), true
}

func aggMin(vs []float64) (float64, bool) {
	if len(vs) == 0 {
		return 0, false
	}
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m, true
}

func aggMax(vs []float64) (float64, bool) {
	if len(vs) == 0 {
		return 0, false
	}
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m, true
}

// aggStd is the sample standard deviation (n-1 denominator); undefined below
// two points.
func aggStd(vs []float64) (float64, bool) {
	n := len(vs)
	if n < 2 {
		return 0, false
	}
	mean, _ := aggMean(vs)
	sumSq := 0.0
	for _, v := range vs {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1)), true
}

// aggQuantile interpolates linearly between the two nearest order
// statistics.
func aggQuantile(vs []float64, q float64) (float64, bool) {
	n := len(vs)
	if n == 0 {
		return 0, false
	}
	if n == 1 {
		return vs[0], true
	}

	sorted := make([]float64, n)
	copy(sorted, vs)
	sort.Float64s(sorted)

	idx := q * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1], true
	}
	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower]), true
}
