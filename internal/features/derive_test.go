package features

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/courtsignal/panel-api/internal/panel"
)

func day(d int) time.Time {
	return time.Date(2023, 1, d, 0, 0, 0, 0, time.UTC)
}

func buildPanel(t *testing.T, points map[string][]float64) *panel.Panel {
	t.Helper()
	var records []panel.Record
	for entity, vals := range points {
		for i, v := range vals {
			records = append(records, panel.Record{
				EntityID:  entity,
				Timestamp: day(i + 1),
				Metrics:   map[string]float64{"points": v},
			})
		}
	}
	p, err := panel.Build(records, panel.Reject)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return p
}

// scenarioPanel matches the end-to-end scenario: P1 at t=1,2,3,5 with
// points 10, 20, 15, 25.
func scenarioPanel(t *testing.T) *panel.Panel {
	t.Helper()
	p, err := panel.Build([]panel.Record{
		{EntityID: "P1", Timestamp: day(1), Metrics: map[string]float64{"points": 10}},
		{EntityID: "P1", Timestamp: day(2), Metrics: map[string]float64{"points": 20}},
		{EntityID: "P1", Timestamp: day(3), Metrics: map[string]float64{"points": 15}},
		{EntityID: "P1", Timestamp: day(5), Metrics: map[string]float64{"points": 25}},
	}, panel.Reject)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return p
}

func TestLag(t *testing.T) {
	p := scenarioPanel(t)

	col, err := Lag(p, "points", 1)
	if err != nil {
		t.Fatalf("Lag() error = %v", err)
	}
	if col.Name != "points_lag1" {
		t.Errorf("column name = %q, want points_lag1", col.Name)
	}

	want := []panel.Value{
		panel.Missing(),
		panel.Some(10),
		panel.Some(20),
		panel.Some(15),
	}
	got := col.Values["P1"]
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Lag(points, 1) P1 = %v, want %v", got, want)
	}

	// Addressable by (entity, timestamp): at t=5 the lag equals 15.
	if v := col.AtTime(p, "P1", day(5)); !v.Known || v.Float64 != 15 {
		t.Errorf("lag at t=5 = %+v, want Some(15)", v)
	}
}

func TestLagBeyondSeriesStart(t *testing.T) {
	p := scenarioPanel(t)

	col, err := Lag(p, "points", 10)
	if err != nil {
		t.Fatalf("Lag() error = %v", err)
	}
	for i, v := range col.Values["P1"] {
		if v.Known {
			t.Errorf("position %d = %+v, want sentinel for lag past series start", i, v)
		}
	}
}

func TestLagRejectsZero(t *testing.T) {
	p := scenarioPanel(t)
	for _, k := range []int{0, -3} {
		var paramErr *panel.InvalidParameterError
		if _, err := Lag(p, "points", k); !errors.As(err, &paramErr) {
			t.Errorf("Lag(k=%d) error = %v, want InvalidParameterError", k, err)
		}
	}
}

func TestRollingMean(t *testing.T) {
	p := scenarioPanel(t)

	col, err := Rolling(p, RollingSpec{
		Metric:     "points",
		Window:     2,
		Aggregator: AggMean,
		MinPeriods: 2,
	})
	if err != nil {
		t.Fatalf("Rolling() error = %v", err)
	}

	// At t=3 the window covers 20, 15.
	if v := col.AtTime(p, "P1", day(3)); !v.Known || v.Float64 != 17.5 {
		t.Errorf("rolling mean at t=3 = %+v, want Some(17.5)", v)
	}
	if v := col.At("P1", 0); v.Known {
		t.Errorf("rolling mean at position 0 = %+v, want sentinel", v)
	}
}

func TestRollingMinPeriods(t *testing.T) {
	p := buildPanel(t, map[string][]float64{
		"P1": {1, 2, 3, 4, 5, 6, 7},
	})

	col, err := Rolling(p, RollingSpec{
		Metric:     "points",
		Window:     5,
		Aggregator: AggMean,
		MinPeriods: 5,
	})
	if err != nil {
		t.Fatalf("Rolling() error = %v", err)
	}

	vs := col.Values["P1"]
	for i := 0; i < 4; i++ {
		if vs[i].Known {
			t.Errorf("position %d = %+v, want sentinel below min_periods", i, vs[i])
		}
	}
	for i := 4; i < len(vs); i++ {
		if !vs[i].Known {
			t.Errorf("position %d missing, want real value", i)
		}
	}
	// Position 4 covers 1..5.
	if vs[4].Float64 != 3 {
		t.Errorf("position 4 = %v, want 3", vs[4].Float64)
	}
}

func TestRollingMinPeriodsDefaultsToWindow(t *testing.T) {
	p := buildPanel(t, map[string][]float64{"P1": {1, 2, 3}})

	col, err := Rolling(p, RollingSpec{Metric: "points", Window: 3, Aggregator: AggSum})
	if err != nil {
		t.Fatalf("Rolling() error = %v", err)
	}
	vs := col.Values["P1"]
	if vs[0].Known || vs[1].Known {
		t.Error("partial windows produced values; default min_periods should equal window")
	}
	if !vs[2].Known || vs[2].Float64 != 6 {
		t.Errorf("full window = %+v, want Some(6)", vs[2])
	}
}

func TestRollingParameterErrors(t *testing.T) {
	p := scenarioPanel(t)

	tests := []struct {
		name string
		spec RollingSpec
	}{
		{name: "ZeroWindow", spec: RollingSpec{Metric: "points", Window: 0, Aggregator: AggMean}},
		{name: "MinPeriodsAboveWindow", spec: RollingSpec{Metric: "points", Window: 3, Aggregator: AggMean, MinPeriods: 4}},
		{name: "NegativeMinPeriods", spec: RollingSpec{Metric: "points", Window: 3, Aggregator: AggMean, MinPeriods: -1}},
		{name: "UnknownAggregator", spec: RollingSpec{Metric: "points", Window: 3, Aggregator: "mode"}},
		{name: "QuantileOutOfRange", spec: RollingSpec{Metric: "points", Window: 3, Aggregator: AggQuantile, Quantile: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var paramErr *panel.InvalidParameterError
			if _, err := Rolling(p, tt.spec); !errors.As(err, &paramErr) {
				t.Errorf("Rolling() error = %v, want InvalidParameterError", err)
			}
		})
	}
}

func TestCumulativeSum(t *testing.T) {
	p := scenarioPanel(t)

	col, err := Cumulative(p, "points", AggSum)
	if err != nil {
		t.Fatalf("Cumulative() error = %v", err)
	}

	want := []float64{10, 30, 45, 70}
	vs := col.Values["P1"]
	for i, w := range want {
		if !vs[i].Known || vs[i].Float64 != w {
			t.Errorf("position %d = %+v, want Some(%v)", i, vs[i], w)
		}
	}
	// Career total at t=5 equals 70.
	if v := col.AtTime(p, "P1", day(5)); v.Float64 != 70 {
		t.Errorf("cumulative sum at t=5 = %v, want 70", v.Float64)
	}
}

func TestCumulativeMonotoneForNonNegativeSum(t *testing.T) {
	p := buildPanel(t, map[string][]float64{
		"P1": {3, 0, 7, 2, 0, 11},
	})

	col, err := Cumulative(p, "points", "")
	if err != nil {
		t.Fatalf("Cumulative() error = %v", err)
	}
	vs := col.Values["P1"]
	for i := 1; i < len(vs); i++ {
		if vs[i].Float64 < vs[i-1].Float64 {
			t.Errorf("cumulative sum decreased at position %d: %v -> %v",
				i, vs[i-1].Float64, vs[i].Float64)
		}
	}
}

func TestCumulativeStd(t *testing.T) {
	p := buildPanel(t, map[string][]float64{"P1": {2, 4, 4, 4, 5, 5, 7, 9}})

	col, err := Cumulative(p, "points", AggStd)
	if err != nil {
		t.Fatalf("Cumulative() error = %v", err)
	}
	vs := col.Values["P1"]
	if vs[0].Known {
		t.Errorf("std of a single point = %+v, want sentinel", vs[0])
	}
	// Sample std of the full series is sqrt(32/7).
	got := vs[len(vs)-1].Float64
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("career std = %v, want %v", got, want)
	}
}

func TestNoLookahead(t *testing.T) {
	base := buildPanel(t, map[string][]float64{
		"P1": {5, 9, 4, 8, 6, 2},
	})
	// Perturb only the final observation.
	perturbed := buildPanel(t, map[string][]float64{
		"P1": {5, 9, 4, 8, 6, 400},
	})

	derive := func(p *panel.Panel) []*panel.Column {
		lag, _ := Lag(p, "points", 2)
		roll, _ := Rolling(p, RollingSpec{Metric: "points", Window: 3, Aggregator: AggMean, MinPeriods: 1})
		cum, _ := Cumulative(p, "points", AggSum)
		return []*panel.Column{lag, roll, cum}
	}

	baseCols := derive(base)
	pertCols := derive(perturbed)

	last := base.Len("P1") - 1
	for c := range baseCols {
		for i := 0; i < last; i++ {
			if baseCols[c].At("P1", i) != pertCols[c].At("P1", i) {
				t.Errorf("%s position %d changed after perturbing a later observation",
					baseCols[c].Name, i)
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	p := buildPanel(t, map[string][]float64{
		"P1": {5, 9, 4, 8},
		"P2": {1, 2},
		"P3": {7, 7, 7, 7, 7},
	})

	first, err := Rolling(p, RollingSpec{Metric: "points", Window: 3, Aggregator: AggStd, MinPeriods: 2})
	if err != nil {
		t.Fatalf("Rolling() error = %v", err)
	}
	second, _ := Rolling(p, RollingSpec{Metric: "points", Window: 3, Aggregator: AggStd, MinPeriods: 2})

	if !reflect.DeepEqual(first, second) {
		t.Error("recomputing the same derivation produced different columns")
	}
}

func TestRollingSkipsUnknownValues(t *testing.T) {
	records := []panel.Record{
		{EntityID: "P1", Timestamp: day(1), Metrics: map[string]float64{"points": 10}},
		{EntityID: "P1", Timestamp: day(2), Metrics: map[string]float64{"rebounds": 3}},
		{EntityID: "P1", Timestamp: day(3), Metrics: map[string]float64{"points": 20}},
	}
	p, err := panel.Build(records, panel.Reject)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	col, err := Rolling(p, RollingSpec{Metric: "points", Window: 3, Aggregator: AggMean, MinPeriods: 2})
	if err != nil {
		t.Fatalf("Rolling() error = %v", err)
	}
	vs := col.Values["P1"]
	if vs[1].Known {
		t.Errorf("position 1 = %+v, want sentinel (only one known point in span)", vs[1])
	}
	if !vs[2].Known || vs[2].Float64 != 15 {
		t.Errorf("position 2 = %+v, want Some(15) over the two known points", vs[2])
	}
}
