package smartcast

import (
	"math"
	"strings"
)

// truncatePreview returns a truncated string for error messages.
func truncatePreview(data []byte) string {
	s := string(data)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// digitsOnly strips every non-digit character from s.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// jsonTypeName names the JSON type of a decoded value: "boolean",
// "number", "string", "array", "object", or "null".
func jsonTypeName(v any) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	}
	return "unknown"
}

// goValueTypeName maps a Go value supplied by a caller onto its JSON type
// name, so it can be compared against a setting's current value type.
func goValueTypeName(v any) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return "number"
	case nil:
		return "null"
	}
	return "unknown"
}

// toFloat64 converts any numeric Go value to float64. Floats must be
// integral and finite; the second return is false otherwise.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		f := float64(n)
		return f, !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0) && n == math.Trunc(n)
	}
	return 0, false
}

// toInt32 converts any numeric Go value to the canonical signed-32-bit
// representation used for settings writes. The second return is false when
// the value does not fit, so wider types cannot silently truncate.
func toInt32(v any) (int32, bool) {
	f, ok := toFloat64(v)
	if !ok {
		return 0, false
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, false
	}
	return int32(f), true
}
