package classify

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"polywatch/internal/record"
)

// StateKind is the lifecycle state of a market relative to "now".
type StateKind int

const (
	// StateActiveNoTimer means no expiry evidence was found; a market is
	// never reported expired without some authoritative or textual signal.
	StateActiveNoTimer StateKind = iota
	StateActive
	StateExpired
)

// Status is the resolved expiry state. Until is set only for StateActive;
// Approx marks text-parsed (non-authoritative) expiry times.
type Status struct {
	State  StateKind
	Until  time.Time
	Approx bool
}

// Label renders the status for the dashboard table.
func (s Status) Label() string {
	switch s.State {
	case StateExpired:
		return "⚫ EXPIRED"
	case StateActive:
		tilde := ""
		if s.Approx {
			tilde = "~"
		}
		et := s.Until.In(eastern)
		dec := float64(et.Hour()) + float64(et.Minute())/60.0
		return "🟢 ACTIVE (til " + tilde + FormatDisplayTime(dec) + " ET)"
	default:
		return "🟢 ACTIVE (no timer)"
	}
}

func (s Status) Active() bool {
	return s.State != StateExpired
}

// EndDateSource provides the authoritative market end date. Absence of a
// result is normal, not an error.
type EndDateSource interface {
	MarketEndDate(ctx context.Context, conditionID, slug string) (time.Time, bool)
}

// Resolver classifies a record's expiry state. The authoritative end date
// is consulted first; four title-parsing strategies of decreasing
// specificity follow. The resolver never fails: every parse problem falls
// through to the next tier and the worst case is ActiveNoTimer.
type Resolver struct {
	EndDates EndDateSource
	Loc      *time.Location
}

func NewResolver(src EndDateSource) *Resolver {
	return &Resolver{EndDates: src, Loc: eastern}
}

// statusTimeRe matches the loose clock tokens of the fallback tier,
// including bare "6 ET" hours.
var statusTimeRe = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*([ap]\.?m\.?|et)`)

// Resolve returns the market status for a record at the given instant.
// Calling it twice with the same record and now yields the same result.
func (r *Resolver) Resolve(ctx context.Context, rec record.Raw, now time.Time) Status {
	loc := r.Loc
	if loc == nil {
		loc = eastern
	}
	now = now.In(loc)

	// Tier 1: authoritative end date short-circuits all title parsing.
	if r.EndDates != nil {
		conditionID := rec.ConditionID()
		slug := rec.Slug()
		if conditionID != "" || slug != "" {
			if end, ok := r.EndDates.MarketEndDate(ctx, conditionID, slug); ok {
				if !now.Before(end) {
					return Status{State: StateExpired}
				}
				return Status{State: StateActive, Until: end}
			}
		}
	}

	title := strings.ToLower(rec.Title())
	if title == "" {
		return Status{State: StateActiveNoTimer}
	}

	// Tier 2: explicit "6:00PM-6:15PM" window.
	if st := r.resolveRange(title, now, loc); st != nil {
		return *st
	}

	// Tier 3: "Feb 12 3AM" date plus time.
	if end, ok := parseMonthDayTime(title, now, loc); ok {
		if !now.Before(end) {
			return Status{State: StateExpired}
		}
		return Status{State: StateActive, Until: end, Approx: true}
	}

	// Tier 4: single time of day, anchored to the record's own timestamp
	// so a market titled past midnight rolls to the next day.
	if st := r.resolveClockTimes(title, rec, now, loc); st != nil {
		return *st
	}

	// Tier 5: bare "1h" / "30m" duration, anchored to the record's own
	// timestamp like tier 4 so the deadline does not slide with each call.
	if d, ok := findDuration(title); ok {
		anchor := time.Unix(rec.Timestamp(now.Unix()), 0).In(loc)
		end := anchor.Add(d)
		if !now.Before(end) {
			return Status{State: StateExpired}
		}
		return Status{State: StateActive, Until: end, Approx: true}
	}

	return Status{State: StateActiveNoTimer}
}

func (r *Resolver) resolveRange(title string, now time.Time, loc *time.Location) *Status {
	start, end, ok := timeRangeBounds(title)
	if !ok {
		return nil
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	startT := day.Add(decimalHours(start))
	endT := day.Add(decimalHours(end))
	if endT.Before(startT) {
		endT = endT.Add(24 * time.Hour)
	}
	// Just past midnight a wrapped window ("11:55PM-12:05AM") anchors to
	// the new day, but the live window is the one that started yesterday.
	if now.Before(startT) {
		startT = startT.Add(-24 * time.Hour)
		endT = endT.Add(-24 * time.Hour)
	}
	if !now.Before(startT) && now.Before(endT) {
		return &Status{State: StateActive, Until: endT, Approx: true}
	}
	return &Status{State: StateExpired}
}

func (r *Resolver) resolveClockTimes(title string, rec record.Raw, now time.Time, loc *time.Location) *Status {
	times := collectClockTimes(title)
	if len(times) == 0 {
		return nil
	}
	maxDec := times[0]
	for _, t := range times[1:] {
		if t > maxDec {
			maxDec = t
		}
	}
	anchor := time.Unix(rec.Timestamp(now.Unix()), 0).In(loc)
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, loc)
	end := day.Add(decimalHours(maxDec))
	// A time earlier than the record's own timestamp refers to the next
	// occurrence, not one already gone when the trade was placed.
	if end.Before(anchor) {
		end = end.Add(24 * time.Hour)
	}
	if !now.Before(end) {
		return &Status{State: StateExpired}
	}
	return &Status{State: StateActive, Until: end, Approx: true}
}

// collectClockTimes extracts every clock token from a title as decimal
// hours. Bare "6 ET" hours are taken as written, without meridiem shift.
func collectClockTimes(title string) []float64 {
	matches := statusTimeRe.FindAllStringSubmatch(title, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		hour, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		minute := 0
		if m[2] != "" {
			minute, err = strconv.Atoi(m[2])
			if err != nil {
				continue
			}
		}
		suffix := strings.ToLower(m[3])
		if strings.Contains(suffix, "p") {
			hour = (hour % 12) + 12
		} else if strings.Contains(suffix, "a") {
			hour = hour % 12
		}
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			continue
		}
		out = append(out, float64(hour)+float64(minute)/60.0)
	}
	return out
}

func decimalHours(dec float64) time.Duration {
	return time.Duration(dec*float64(time.Hour) + 0.5)
}
