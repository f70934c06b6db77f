package classify

import (
	"strings"

	"polywatch/internal/record"
)

// Direction is the classified side of a bet.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionUp
	DirectionDown
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "UP"
	case DirectionDown:
		return "DOWN"
	default:
		return "UNKNOWN"
	}
}

// Label returns the dashboard marker for the direction.
func (d Direction) Label() string {
	switch d {
	case DirectionUp:
		return "🟢 UP"
	case DirectionDown:
		return "🔴 DOWN"
	default:
		return "➖ ?"
	}
}

var (
	upTitleWords   = []string{"above", "higher", "rise", "up", "moon"}
	downTitleWords = []string{"below", "lower", "drop", "down", "crash"}
	priceMarkers   = []string{"$", "usd", "price"}
	durationWords  = []string{"1h", "hour", "15m", "will"}
	reachWords     = []string{"yes", "will", "reach"}
)

// ClassifyDirection maps a record to UP, DOWN or UNKNOWN. Tiers are
// evaluated in strict priority order and the first match wins; the result
// is deterministic for a given record.
func ClassifyDirection(rec record.Raw) Direction {
	// Structured outcome+side is authoritative. Selling inverts the
	// mapping: selling Up shares is economically a Down bet.
	outcome := strings.ToLower(rec.Outcome())
	side := strings.ToLower(rec.Side())
	switch {
	case outcome == "up" && side == "buy":
		return DirectionUp
	case outcome == "down" && side == "buy":
		return DirectionDown
	case outcome == "up" && side == "sell":
		return DirectionDown
	case outcome == "down" && side == "sell":
		return DirectionUp
	}

	text := rec.DirectionText()
	if containsAny(text, "yes", "buy", "long") {
		return DirectionUp
	}
	if containsAny(text, "no", "sell", "short") {
		return DirectionDown
	}

	title := strings.ToLower(rec.Title())
	if containsAny(title, upTitleWords...) {
		return DirectionUp
	}
	if containsAny(title, downTitleWords...) {
		return DirectionDown
	}

	if containsAny(title, priceMarkers...) {
		if strings.Contains(title, ">") {
			return DirectionUp
		}
		if strings.Contains(title, "<") {
			return DirectionDown
		}
	}

	if containsAny(title, durationWords...) {
		if containsAny(title, reachWords...) {
			return DirectionUp
		}
		return DirectionDown
	}

	return DirectionUnknown
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
