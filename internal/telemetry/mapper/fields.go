package mapper

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingField = errors.New("missing submission field")
	ErrInvalidField = errors.New("invalid submission field")
)

// lookup walks path through nested objects.
func lookup(data map[string]any, path ...string) (any, error) {
	var cur any = data
	for i, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an object", ErrInvalidField, strings.Join(path[:i], "."))
		}
		v, ok := obj[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(path[:i+1], "."))
		}
		cur = v
	}
	return cur, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "1"
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// asInt converts loosely: numbers are truncated, strings contribute their
// leading numeric part, anything unparseable is 0.
func asInt(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		return asInt(t.String())
	case float64:
		return clampFloat(t)
	case int:
		return int64(t)
	case int64:
		return t
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := numericPrefix(strings.TrimSpace(t))
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return clampFloat(f)
		}
		return 0
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return 0
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(numericPrefix(strings.TrimSpace(t)), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// asBool treats false, zero, "", "0" and null as false.
func asBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "0"
	case json.Number:
		return asFloat(t) != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

func asList(path string, v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a list", ErrInvalidField, path)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, asString(item))
	}
	return out, nil
}

func numericPrefix(s string) string {
	end := 0
	seenDigit, seenDot := false, false
	for i, r := range s {
		switch {
		case (r == '-' || r == '+') && i == 0:
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' && !seenDot:
			seenDot = true
		default:
			if !seenDigit {
				return ""
			}
			return strings.TrimSuffix(s[:end], ".")
		}
		end = i + 1
	}
	if !seenDigit {
		return ""
	}
	return strings.TrimSuffix(s[:end], ".")
}

func clampFloat(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

func isMissing(err error) bool {
	return errors.Is(err, ErrMissingField)
}
