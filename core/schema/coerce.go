package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLiteral converts a raw query-string operand into a Go value matching
// the declared type of the leaf field the operand is compared against.
// Backends use this so that "30" compares numerically against an integer
// column while remaining a string against a text column.
func ParseLiteral(ft FieldType, raw string) (any, error) {
	switch ft {
	case FieldTypeInteger:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected integer literal, got %q: %w", raw, err)
		}
		return v, nil
	case FieldTypeNumber:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected numeric literal, got %q: %w", raw, err)
		}
		return v, nil
	case FieldTypeBoolean:
		switch strings.ToLower(raw) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("expected boolean literal, got %q", raw)
	default:
		return raw, nil
	}
}

// ToFloat64 converts a value of various numeric types to a float64. It
// returns the converted value and a boolean indicating whether the
// conversion was possible.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
