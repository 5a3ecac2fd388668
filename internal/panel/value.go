package panel

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Value is a single metric result. A missing value means "not yet observed"
// and must never be read as zero; Known reports whether Float64 carries data.
type Value struct {
	Float64 float64
	Known   bool
}

// Some wraps an observed float.
func Some(f float64) Value {
	return Value{Float64: f, Known: true}
}

// Missing is the "not yet observed" sentinel.
func Missing() Value {
	return Value{}
}

func (v Value) IsMissing() bool {
	return !v.Known
}

// MarshalJSON encodes a missing value as null, never as 0.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Known {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v.Float64, 'g', -1, 64)), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}
