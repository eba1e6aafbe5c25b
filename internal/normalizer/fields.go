package normalizer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// lookup returns the first non-nil value among the alias keys
func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupString(m map[string]any, keys ...string) string {
	v, ok := lookup(m, keys...)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

// toFloat parses numbers and numeric strings. Booleans are not numbers here.
func toFloat(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = val
	case int:
		f = float64(val)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
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

// positiveFloat zero and negative values are physiologically invalid and become nil
func positiveFloat(v any) *float64 {
	f, ok := toFloat(v)
	if !ok || f <= 0 {
		return nil
	}
	return &f
}

func positiveInt(v any) *int {
	f := positiveFloat(v)
	if f == nil {
		return nil
	}
	n := int(math.Round(*f))
	if n <= 0 {
		return nil
	}
	return &n
}

var truthyStrings = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "1": true,
}

// truthy boolean source field
func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return truthyStrings[strings.ToLower(strings.TrimSpace(val))]
	default:
		f, ok := toFloat(val)
		return ok && f != 0
	}
}

var emptyBrackets = map[string]bool{
	"": true, "none": true, "no": true, "false": true, "0": true,
}

// bracketSet multi-valued field (e.g. exercise_bracket) counts unless it says "none"
func bracketSet(v any) bool {
	switch val := v.(type) {
	case string:
		return !emptyBrackets[strings.ToLower(strings.TrimSpace(val))]
	case bool:
		return val
	default:
		f, ok := toFloat(val)
		return ok && f > 0
	}
}
