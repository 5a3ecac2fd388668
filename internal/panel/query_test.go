package panel

import (
	"errors"
	"testing"
	"time"
)

// scenario panel: P1 observed on days 1, 2, 3, 5 with points 10, 20, 15, 25.
func scenarioPanel(t *testing.T) *Panel {
	t.Helper()
	p, err := Build([]Record{
		rec("P1", 1, 10),
		rec("P1", 2, 20),
		rec("P1", 3, 15),
		rec("P1", 5, 25),
		rec("P2", 2, 7),
	}, Reject)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return p
}

func TestAsOf(t *testing.T) {
	p := scenarioPanel(t)

	tests := []struct {
		name       string
		entity     string
		ts         time.Time
		wantPoints float64
		wantDay    int
		wantNoData bool
		wantErr    bool
	}{
		{name: "BetweenObservations", entity: "P1", ts: day(4), wantPoints: 15, wantDay: 3},
		{name: "ExactTimestamp", entity: "P1", ts: day(3), wantPoints: 15, wantDay: 3},
		{name: "AfterLast", entity: "P1", ts: day(9), wantPoints: 25, wantDay: 5},
		{name: "BeforeFirst", entity: "P1", ts: day(1).Add(-time.Hour), wantNoData: true},
		{name: "UnknownEntity", entity: "P9", ts: day(3), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, ok, err := p.AsOf(tt.entity, tt.ts)
			if tt.wantErr {
				if !errors.Is(err, ErrEntityNotFound) {
					t.Fatalf("AsOf() error = %v, want ErrEntityNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AsOf() error = %v", err)
			}
			if tt.wantNoData {
				if ok {
					t.Fatalf("AsOf() = %+v, want no-data-yet sentinel", o)
				}
				return
			}
			if !ok {
				t.Fatal("AsOf() returned no data, want observation")
			}
			if !o.Timestamp.Equal(day(tt.wantDay)) {
				t.Errorf("AsOf() timestamp = %v, want %v", o.Timestamp, day(tt.wantDay))
			}
			if o.Metrics["points"] != tt.wantPoints {
				t.Errorf("AsOf() points = %v, want %v", o.Metrics["points"], tt.wantPoints)
			}
		})
	}
}

func TestAsOfFieldProjection(t *testing.T) {
	p, err := Build([]Record{
		{EntityID: "P1", Timestamp: day(1), Metrics: map[string]float64{
			"points": 10, "rebounds": 4, "assists": 6,
		}},
	}, Reject)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	o, ok, err := p.AsOf("P1", day(2), "points", "assists")
	if err != nil || !ok {
		t.Fatalf("AsOf() = (%v, %v), want observation", ok, err)
	}
	if len(o.Metrics) != 2 {
		t.Errorf("projected metrics = %v, want exactly points and assists", o.Metrics)
	}
	if o.Metrics["points"] != 10 || o.Metrics["assists"] != 6 {
		t.Errorf("projected values = %v", o.Metrics)
	}
	if _, leaked := o.Metrics["rebounds"]; leaked {
		t.Error("projection leaked unrequested metric rebounds")
	}
}

func TestAsOfNeverReadsFuture(t *testing.T) {
	p := scenarioPanel(t)

	// Query one nanosecond before day 2: only day 1 may match.
	o, ok, err := p.AsOf("P1", day(2).Add(-time.Nanosecond))
	if err != nil || !ok {
		t.Fatalf("AsOf() = (%v, %v), want observation", ok, err)
	}
	if !o.Timestamp.Equal(day(1)) {
		t.Errorf("AsOf() returned %v, leaked a future observation", o.Timestamp)
	}
}

func TestRange(t *testing.T) {
	p := scenarioPanel(t)

	tests := []struct {
		name       string
		start, end time.Time
		wantDays   []int
	}{
		{name: "InclusiveBounds", start: day(2), end: day(5), wantDays: []int{2, 3, 5}},
		{name: "GapOnly", start: day(4), end: day(4), wantDays: nil},
		{name: "BeforeAll", start: day(1).Add(-48 * time.Hour), end: day(1).Add(-time.Hour), wantDays: nil},
		{name: "InvertedWindow", start: day(5), end: day(2), wantDays: nil},
		{name: "WholeSeries", start: day(1), end: day(9), wantDays: []int{1, 2, 3, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Range("P1", tt.start, tt.end)
			if err != nil {
				t.Fatalf("Range() error = %v", err)
			}
			if len(got) != len(tt.wantDays) {
				t.Fatalf("Range() returned %d observations, want %d", len(got), len(tt.wantDays))
			}
			for i, o := range got {
				if !o.Timestamp.Equal(day(tt.wantDays[i])) {
					t.Errorf("Range()[%d] = %v, want %v", i, o.Timestamp, day(tt.wantDays[i]))
				}
			}
		})
	}

	if _, err := p.Range("P9", day(1), day(5)); !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("Range(P9) error = %v, want ErrEntityNotFound", err)
	}
}

func TestMetricValuesSentinelForAbsentMetric(t *testing.T) {
	p, err := Build([]Record{
		{EntityID: "P1", Timestamp: day(1), Metrics: map[string]float64{"points": 10}},
		{EntityID: "P1", Timestamp: day(2), Metrics: map[string]float64{"rebounds": 5}},
	}, Reject)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	vs, err := p.MetricValues("P1", "points")
	if err != nil {
		t.Fatalf("MetricValues() error = %v", err)
	}
	if !vs[0].Known || vs[0].Float64 != 10 {
		t.Errorf("position 0 = %+v, want Some(10)", vs[0])
	}
	if vs[1].Known {
		t.Errorf("position 1 = %+v, want missing sentinel", vs[1])
	}
}
