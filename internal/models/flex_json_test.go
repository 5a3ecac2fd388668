package models

import (
	"encoding/json"
	"testing"
)

func TestMetricMapUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]float64
		wantErr bool
	}{
		{
			name:  "Native numbers",
			input: `{"points": 22, "minutes": 31.5}`,
			want:  map[string]float64{"points": 22, "minutes": 31.5},
		},
		{
			name:  "Quoted numbers",
			input: `{"points": "22", "minutes": "31.5"}`,
			want:  map[string]float64{"points": 22, "minutes": 31.5},
		},
		{
			name:  "Mixed",
			input: `{"points": 22, "minutes": "31.5"}`,
			want:  map[string]float64{"points": 22, "minutes": 31.5},
		},
		{
			name:  "Empty string skipped",
			input: `{"points": 10, "minutes": ""}`,
			want:  map[string]float64{"points": 10},
		},
		{
			name:    "Non-numeric string",
			input:   `{"points": "DNP"}`,
			wantErr: true,
		},
		{
			name:    "Boolean value",
			input:   `{"points": true}`,
			wantErr: true,
		},
		{
			name:    "Not an object",
			input:   `[1, 2, 3]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m MetricMap
			err := json.Unmarshal([]byte(tt.input), &m)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(m) != len(tt.want) {
				t.Fatalf("got %v, want %v", m, tt.want)
			}
			for k, v := range tt.want {
				if m[k] != v {
					t.Errorf("%s = %v, want %v", k, m[k], v)
				}
			}
		})
	}
}

func TestFlatRecordAcceptsQuotedMetrics(t *testing.T) {
	payload := `{"entity_id": "P1", "timestamp": "2024-01-05", "metrics": {"points": "18"}}`

	var rec FlatRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Metrics["points"] != 18 {
		t.Errorf("points = %v, want 18", rec.Metrics["points"])
	}
}
