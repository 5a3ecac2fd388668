package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MetricMap maps metric names to values. Unmarshaling tolerates
// string-encoded numbers: spreadsheet and CSV export pipelines often quote
// every value, and rejecting those batches helps nobody.
type MetricMap map[string]float64

func (m *MetricMap) UnmarshalJSON(data []byte) error {
	// Fast path: all values are native numbers.
	var native map[string]float64
	if err := json.Unmarshal(data, &native); err == nil {
		*m = native
		return nil
	}

	// Slow path: value-by-value with string coercion.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	out := make(map[string]float64, len(raw))
	for key, rawVal := range raw {
		var f float64
		if err := json.Unmarshal(rawVal, &f); err == nil {
			out[key] = f
			continue
		}

		var s string
		if err := json.Unmarshal(rawVal, &s); err != nil {
			return fmt.Errorf("metric %q: not a number or numeric string", key)
		}
		if s == "" {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("metric %q: invalid numeric string %q", key, s)
		}
		out[key] = f
	}

	*m = out
	return nil
}
