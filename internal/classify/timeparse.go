package classify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"polywatch/internal/scheduler"
)

var eastern = loadEastern()

func loadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("ET", -5*3600)
	}
	return loc
}

// Eastern returns the market timezone. Polymarket short-window crypto
// markets are titled in US Eastern time.
func Eastern() *time.Location {
	return eastern
}

var (
	clockTokenRe = regexp.MustCompile(`(?i)^\s*(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m?\.?\s*(?:et)?\s*$`)
	monthDayRe   = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?[,\s]+(\d{1,2}(?::\d{2})?\s*[ap]m)\b`)
	durationRe   = regexp.MustCompile(`(?i)\b(\d{1,3})\s*([hm])\b`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseTimeToDecimal converts tokens like "6pm", "6:15PM" or "6:15 PM ET"
// into decimal hours of day (18.25 for 6:15 PM). 12am maps to hour 0,
// 12pm stays 12.
func ParseTimeToDecimal(token string) (float64, bool) {
	m := clockTokenRe.FindStringSubmatch(token)
	if m == nil {
		return 0, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return 0, false
		}
	}
	switch strings.ToLower(m[3]) {
	case "p":
		hour = (hour % 12) + 12
	case "a":
		hour = hour % 12
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, false
	}
	return float64(hour) + float64(minute)/60.0, true
}

// FormatDisplayTime renders decimal hours back into "6:15 PM" form,
// omitting the minutes when they are zero.
func FormatDisplayTime(decimalHour float64) string {
	hour := int(decimalHour)
	minute := int((decimalHour-float64(hour))*60 + 0.5)
	if minute >= 60 {
		minute = 0
		hour++
	}
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	disp := hour % 12
	if disp == 0 {
		disp = 12
	}
	if minute > 0 {
		return fmt.Sprintf("%d:%02d %s", disp, minute, ampm)
	}
	return fmt.Sprintf("%d %s", disp, ampm)
}

// MonthByName resolves a full or abbreviated month name, case-insensitive.
func MonthByName(name string) (time.Month, bool) {
	name = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(name, ".")))
	if len(name) < 3 {
		return 0, false
	}
	m, ok := monthsByPrefix[name[:3]]
	return m, ok
}

// parseMonthDayTime extracts a "Feb 12 3AM" style date from a title and
// resolves it against the reference year in the market timezone.
func parseMonthDayTime(title string, ref time.Time, loc *time.Location) (time.Time, bool) {
	m := monthDayRe.FindStringSubmatch(title)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := MonthByName(m[1])
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	dec, ok := ParseTimeToDecimal(m[3])
	if !ok {
		return time.Time{}, false
	}
	hour := int(dec)
	minute := int((dec-float64(hour))*60 + 0.5)
	return time.Date(ref.Year(), month, day, hour, minute, 0, 0, loc), true
}

// findDuration extracts a bare "1h" / "30m" duration token from a title.
func findDuration(title string) (time.Duration, bool) {
	m := durationRe.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	return scheduler.ParseIntervalDuration(m[1] + m[2])
}
