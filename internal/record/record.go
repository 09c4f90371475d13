// Package record defines the flat field-name to scalar mapping that flows
// from client input through normalization into the predictor.
//
// Values are float64, string or nil once a record has been decoded from JSON
// or normalized; raw records may carry any Go scalar until normalization
// coerces them.
package record

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one item/outlet observation keyed by field name.
type Record map[string]any

// Clone returns a shallow copy. Values are scalars so a shallow copy never
// shares mutable state with the source.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether field is present, even if its value is nil.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Present reports whether field is present with a non-nil value.
func (r Record) Present(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// Number returns field coerced to a finite float64.
func (r Record) Number(field string) (float64, bool) {
	v, ok := r[field]
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// Text returns field when it holds a string.
func (r Record) Text(field string) (string, bool) {
	s, ok := r[field].(string)
	return s, ok
}

// ToFloat coerces a scalar to a finite float64. Strings are parsed after
// trimming surrounding whitespace. NaN and infinities are rejected.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
