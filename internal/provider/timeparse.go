package provider

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"navi/pkg/logging"
)

// ParseConfidence reports how a date parameter was resolved, so callers
// and tests can distinguish a real parse from the lenient fallback.
type ParseConfidence int

const (
	// ParsedExact means the value parsed as an ISO-8601 timestamp or date.
	ParsedExact ParseConfidence = iota
	// ParsedRelative means a relative keyword (today, tomorrow) resolved it.
	ParsedRelative
	// Defaulted means nothing matched and the value fell back to "now".
	Defaulted
)

func (c ParseConfidence) String() string {
	switch c {
	case ParsedExact:
		return "exact"
	case ParsedRelative:
		return "relative"
	default:
		return "defaulted"
	}
}

var hourHintRe = regexp.MustCompile(`(\d{1,2})\s?(am|pm)`)

// ParseDateTime resolves a capability date parameter. Relative keywords
// ("today", "tomorrow", optionally with an hour hint like "2pm")
// resolve deterministically against now; anything else is tried as an
// ISO-8601 timestamp or date. Unparseable values fall back to now; the
// fallback is logged so it stays observable.
func ParseDateTime(value string, now time.Time) (time.Time, ParseConfidence) {
	trimmed := strings.TrimSpace(value)
	lower := strings.ToLower(trimmed)

	if strings.Contains(lower, "tomorrow") {
		t := now.AddDate(0, 0, 1)
		if hour, ok := hourHint(lower); ok {
			t = time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
		}
		return t, ParsedRelative
	}

	if strings.Contains(lower, "today") {
		hour := 9
		if h, ok := hourHint(lower); ok {
			hour = h
		}
		t := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
		return t, ParsedRelative
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, ParsedExact
		}
	}

	logging.Warn("TimeParse", "Could not parse %q as a date, defaulting to now", value)
	return now, Defaulted
}

// hourHint extracts a simple "2pm" / "9 am" style hour from a relative
// date expression.
func hourHint(lower string) (int, bool) {
	match := hourHintRe.FindStringSubmatch(lower)
	if match == nil {
		return 0, false
	}
	hour, err := strconv.Atoi(match[1])
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}
	hour = hour % 12
	if match[2] == "pm" {
		hour += 12
	}
	return hour, true
}
