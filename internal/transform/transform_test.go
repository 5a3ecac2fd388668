package transform

import (
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

func TestWithinHasZeroMeanPerEntity(t *testing.T) {
	p := buildPanel(t, map[string][]float64{
		"P1": {10, 20, 15, 25},
		"P2": {3, 3, 3},
	})

	col, err := Within(p, "points")
	if err != nil {
		t.Fatalf("Within() error = %v", err)
	}

	for _, entity := range p.Entities() {
		sum := 0.0
		for _, v := range col.Values[entity] {
			if !v.Known {
				t.Fatalf("%s: unexpected sentinel in fully observed series", entity)
			}
			sum += v.Float64
		}
		if math.Abs(sum) > 1e-9 {
			t.Errorf("%s: within sum = %v, want 0", entity, sum)
		}
	}
}

func TestBetweenBroadcastsEntityMean(t *testing.T) {
	p := buildPanel(t, map[string][]float64{
		"P1": {10, 20, 15, 25},
		"P2": {4, 6},
	})

	col, err := Between(p, "points")
	if err != nil {
		t.Fatalf("Between() error = %v", err)
	}

	wantMeans := map[string]float64{"P1": 17.5, "P2": 5}
	for entity, want := range wantMeans {
		for i, v := range col.Values[entity] {
			if !v.Known || math.Abs(v.Float64-want) > 1e-12 {
				t.Errorf("%s position %d = %+v, want Some(%v)", entity, i, v, want)
			}
		}
	}
}

func TestDecompositionIdentity(t *testing.T) {
	p := buildPanel(t, map[string][]float64{
		"P1": {10, 20, 15, 25},
		"P2": {4, 6, 11},
		"P3": {0},
	})

	within, err := Within(p, "points")
	if err != nil {
		t.Fatalf("Within() error = %v", err)
	}
	between, err := Between(p, "points")
	if err != nil {
		t.Fatalf("Between() error = %v", err)
	}

	for _, entity := range p.Entities() {
		vals, _ := p.MetricValues(entity, "points")
		for i, v := range vals {
			w := within.At(entity, i)
			b := between.At(entity, i)
			if !w.Known || !b.Known {
				t.Fatalf("%s position %d: sentinel in decomposition of observed value", entity, i)
			}
			if math.Abs(w.Float64+b.Float64-v.Float64) > 1e-9 {
				t.Errorf("%s position %d: within+between = %v, want %v",
					entity, i, w.Float64+b.Float64, v.Float64)
			}
		}
	}
}

func TestFirstDifference(t *testing.T) {
	p := buildPanel(t, map[string][]float64{
		"P1": {10, 20, 15, 25},
	})

	col, err := FirstDifference(p, "points")
	if err != nil {
		t.Fatalf("FirstDifference() error = %v", err)
	}

	want := []panel.Value{
		panel.Missing(),
		panel.Some(10),
		panel.Some(-5),
		panel.Some(10),
	}
	if got := col.Values["P1"]; !reflect.DeepEqual(got, want) {
		t.Errorf("FirstDifference P1 = %v, want %v", got, want)
	}
}

func TestFirstDifferenceSentinelAtEverySeriesStart(t *testing.T) {
	p := buildPanel(t, map[string][]float64{
		"P1": {1, 2},
		"P2": {9},
		"P3": {5, 5, 5},
	})

	col, err := FirstDifference(p, "points")
	if err != nil {
		t.Fatalf("FirstDifference() error = %v", err)
	}
	for _, entity := range p.Entities() {
		if col.Values[entity][0].Known {
			t.Errorf("%s position 0 has a value, want sentinel", entity)
		}
	}
}

func TestTransformsSkipUnobservedPositions(t *testing.T) {
	records := []panel.Record{
		{EntityID: "P1", Timestamp: day(1), Metrics: map[string]float64{"points": 10}},
		{EntityID: "P1", Timestamp: day(2), Metrics: map[string]float64{"rebounds": 3}},
		{EntityID: "P1", Timestamp: day(3), Metrics: map[string]float64{"points": 20}},
	}
	p, err := panel.Build(records, panel.Reject)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	within, _ := Within(p, "points")
	between, _ := Between(p, "points")
	diff, _ := FirstDifference(p, "points")

	if within.At("P1", 1).Known || between.At("P1", 1).Known {
		t.Error("within/between produced values at an unobserved position")
	}
	// Mean over the two observed points is 15.
	if v := within.At("P1", 0); math.Abs(v.Float64-(-5)) > 1e-12 {
		t.Errorf("within position 0 = %+v, want Some(-5)", v)
	}
	// Neither neighbor pair around the gap is fully observed.
	if diff.At("P1", 1).Known || diff.At("P1", 2).Known {
		t.Error("first difference bridged an unobserved position")
	}
}

func TestTransformDeterminism(t *testing.T) {
	p := buildPanel(t, map[string][]float64{
		"P1": {10, 20, 15, 25},
		"P2": {4, 6, 11},
	})

	a, _ := Within(p, "points")
	b, _ := Within(p, "points")
	if !reflect.DeepEqual(a, b) {
		t.Error("recomputing within produced different columns")
	}
}
