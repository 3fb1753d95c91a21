package normalizer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseNumber converts a raw field value to a non-negative float64.
// Strings follow European notation rules:
//   - both '.' and ',' present: '.' is a thousands separator, ',' the decimal mark
//   - only ',' present: ',' is the decimal mark
//   - otherwise parsed as is
//
// Anything unparseable, absent, negative or non-finite yields 0.
func ParseNumber(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		f = parseString(x.String())
	case string:
		f = parseString(x)
	case *string:
		if x == nil {
			return 0
		}
		f = parseString(*x)
	case *float64:
		if x == nil {
			return 0
		}
		f = *x
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

func parseString(s string) float64 {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '€':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// isEmpty reports whether a raw value counts as absent for key resolution.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case *string:
		return x == nil || strings.TrimSpace(*x) == ""
	case *float64:
		return x == nil
	}
	return false
}
