package model

import (
	"fmt"
	"strings"
	"time"
)

// CanonicalDayLayout is the output format for every parseable date.
const CanonicalDayLayout = "2006-01-02"

var dayLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"01/02/2006",
	"2006/01/02",
	"2.1.2006",
}

// ParseDay parses a day string in any accepted date format. A trailing time
// component ("2025-09-22 00:00:00" or "2025-09-22T00:00:00") is ignored.
func ParseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDay maps every accepted date format onto YYYY-MM-DD. Tokens that
// are not dates, such as weekday names, are returned trimmed.
func NormalizeDay(s string) string {
	if t, ok := ParseDay(s); ok {
		return t.Format(CanonicalDayLayout)
	}
	return strings.TrimSpace(s)
}

// NormalizeRole lowercases the role and folds '_' and '-' separators and
// repeated whitespace into single spaces.
func NormalizeRole(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// WeekKey groups days for weekly hour caps. Dates map to their ISO week;
// any other token falls into a single shared week.
func WeekKey(day string) string {
	t, ok := ParseDay(day)
	if !ok {
		return "-"
	}
	y, w := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

// AdjacentDay returns the canonical day offset by delta days, or false when
// day is not a date.
func AdjacentDay(day string, delta int) (string, bool) {
	t, ok := ParseDay(day)
	if !ok {
		return "", false
	}
	return t.AddDate(0, 0, delta).Format(CanonicalDayLayout), true
}
