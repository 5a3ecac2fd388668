package features

import (
	"math"
	"sort"

	"github.com/courtsignal/panel-api/internal/panel"
)

// cumulator is a streaming aggregate over an entity's career to date. add is
// only called with known values; value reports false until the statistic is
// defined.
type cumulator interface {
	add(f float64)
	value() (float64, bool)
}

func cumulatorFor(aggregator string) (func() cumulator, error) {
	switch aggregator {
	case AggSum:
		return func() cumulator { return &kahanSum{} }, nil
	case AggMean:
		return func() cumulator { return &kahanSum{mean: true} }, nil
	case AggCount:
		return func() cumulator { return &counter{} }, nil
	case AggMin:
		return func() cumulator { return &extremum{less: true} }, nil
	case AggMax:
		return func() cumulator { return &extremum{} }, nil
	case AggStd:
		return func() cumulator { return &welford{} }, nil
	case AggMedian:
		return func() cumulator { return &orderStat{q: 0.5} }, nil
	}
	return nil, &panel.InvalidParameterError{
		Param:  "aggregator",
		Reason: "unknown cumulative aggregator " + aggregator,
	}
}

// kahanSum is a compensated running sum; with mean set it divides by the
// running count. Compensation keeps thousand-game sums exact.
type kahanSum struct {
	sum  float64
	comp float64
	n    int
	mean bool
}

func (k *kahanSum) add(f float64) {
	y := f - k.comp
	t := k.sum + y
	k.comp = (t - k.sum) - y
	k.sum = t
	k.n++
}

func (k *kahanSum) value() (float64, bool) {
	if k.n == 0 {
		return 0, false
	}
	if k.mean {
		return k.sum / float64(k.n), true
	}
	return k.sum, true
}

type counter struct {
	n int
}

func (c *counter) add(float64) { c.n++ }

func (c *counter) value() (float64, bool) {
	if c.n == 0 {
		return 0, false
	}
	return float64(c.n), true
}

type extremum struct {
	cur  float64
	n    int
	less bool
}

func (e *extremum) add(f float64) {
	if e.n == 0 || (e.less && f < e.cur) || (!e.less && f > e.cur) {
		e.cur = f
	}
	e.n++
}

func (e *extremum) value() (float64, bool) {
	if e.n == 0 {
		return 0, false
	}
	return e.cur, true
}

// welford is Welford's online algorithm for the sample standard deviation.
type welford struct {
	n    int
	mean float64
	m2   float64
}

func (w *welford) add(f float64) {
	w.n++
	d := f - w.mean
	w.mean += d / float64(w.n)
	w.m2 += d * (f - w.mean)
}

func (w *welford) value() (float64, bool) {
	if w.n < 2 {
		return 0, false
	}
	return math.Sqrt(w.m2 / float64(w.n-1)), true
}

// orderStat keeps the career values sorted for running quantiles.
type orderStat struct {
	sorted []float64
	q      float64
}

func (o *orderStat) add(f float64) {
	i := sort.SearchFloat64s(o.sorted, f)
	o.sorted = append(o.sorted, 0)
	copy(o.sorted[i+1:], o.sorted[i:])
	o.sorted[i] = f
}

func (o *orderStat) value() (float64, bool) {
	return aggQuantile(o.sorted, o.q)
}
