// Package convert provides type conversion utilities.
package convert

import (
	"encoding/json"
	"strconv"
	"strings"
)

// DefaultPrice is the fallback used when a price field is missing or
// unparseable. Prediction-market outcome prices live in [0,1], so an
// even-odds 0.50 is the safe neutral default.
const DefaultPrice = 0.50

// ToFloat64 converts various numeric types to float64.
// Returns 0 for unsupported types or parse failures.
func ToFloat64(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case uint64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	default:
		return 0
	}
}

// ParseUSD parses messy dollar amounts ("$0.52", "0.52 USD", 0.52) into a
// float64. Missing or unparseable values fall back to DefaultPrice.
func ParseUSD(v any) float64 {
	switch t := v.(type) {
	case nil:
		return DefaultPrice
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return DefaultPrice
		}
		return f
	case string:
		clean := strings.TrimSpace(t)
		if clean == "" {
			return DefaultPrice
		}
		clean = strings.ReplaceAll(clean, "$", "")
		clean = strings.ReplaceAll(clean, ",", "")
		clean = strings.ReplaceAll(clean, "USD", "")
		f, err := strconv.ParseFloat(strings.TrimSpace(clean), 64)
		if err != nil {
			return DefaultPrice
		}
		return f
	default:
		return DefaultPrice
	}
}

// ParseAmount parses a share or dollar size field ("$100", "37.5", 40)
// into a float64. Unlike ParseUSD it falls back to zero: a missing size
// means no exposure, not an even-odds guess.
func ParseAmount(v any) float64 {
	switch t := v.(type) {
	case string:
		clean := strings.TrimSpace(t)
		clean = strings.ReplaceAll(clean, "$", "")
		clean = strings.ReplaceAll(clean, ",", "")
		f, err := strconv.ParseFloat(strings.TrimSpace(clean), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return ToFloat64(v)
	}
}

// ToUnixSeconds coerces a timestamp field (int, float or numeric string,
// possibly in milliseconds) into unix seconds. Returns fallback when the
// value is absent or unparseable.
func ToUnixSeconds(v any, fallback int64) int64 {
	f := ToFloat64(v)
	if f <= 0 {
		return fallback
	}
	// Millisecond timestamps sneak in via the websocket feed.
	if f > 1e12 {
		f = f / 1000
	}
	return int64(f)
}
