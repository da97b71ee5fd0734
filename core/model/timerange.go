package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds every TimeRange.
const MinutesPerDay = 24 * 60

// ErrInvalidTimeRange is returned when a time range cannot be parsed.
var ErrInvalidTimeRange = errors.New("invalid time range")

// TimeRange is a half-open interval [Start, End) in minutes after midnight.
type TimeRange struct {
	Start int
	End   int
}

// NewTimeRange builds a range from hours and minutes. It does not validate.
func NewTimeRange(startH, startM, endH, endM int) TimeRange {
	return TimeRange{Start: startH*60 + startM, End: endH*60 + endM}
}

// ParseTimeRange parses "HH:MM-HH:MM", optionally with seconds on either
// side ("09:00:00-13:00:00") or bare hours ("9-13"). Seconds are dropped.
func ParseTimeRange(s string) (TimeRange, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return TimeRange{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
	sm, err := parseClock(start)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
	em, err := parseClock(end)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
	tr := TimeRange{Start: sm, End: em}
	if err := tr.Validate(); err != nil {
		return TimeRange{}, err
	}
	return tr, nil
}

// MustParseTimeRange is ParseTimeRange for literals; it panics on error.
func MustParseTimeRange(s string) TimeRange {
	tr, err := ParseTimeRange(s)
	if err != nil {
		panic(err)
	}
	return tr
}

func parseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, ErrInvalidTimeRange
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m := 0
	if len(parts) > 1 {
		if m, err = strconv.Atoi(parts[1]); err != nil {
			return 0, err
		}
	}
	if h < 0 || m < 0 || m > 59 {
		return 0, ErrInvalidTimeRange
	}
	return h*60 + m, nil
}

// Validate checks the range lies within one day and is not empty.
func (r TimeRange) Validate() error {
	if r.Start < 0 || r.End > MinutesPerDay || r.End <= r.Start {
		return fmt.Errorf("%w: %s", ErrInvalidTimeRange, r)
	}
	return nil
}

// Minutes returns the duration in minutes.
func (r TimeRange) Minutes() int { return r.End - r.Start }

// Hours returns the duration in hours.
func (r TimeRange) Hours() float64 { return float64(r.End-r.Start) / 60 }

// StartHour is the grid hour containing Start.
func (r TimeRange) StartHour() int { return r.Start / 60 }

// EndHour is the first grid hour at or after End.
func (r TimeRange) EndHour() int { return (r.End + 59) / 60 }

// GridHours lists the hourly grid slots touched by the range.
func (r TimeRange) GridHours() []int {
	hours := make([]int, 0, r.EndHour()-r.StartHour())
	for h := r.StartHour(); h < r.EndHour(); h++ {
		hours = append(hours, h)
	}
	return hours
}

// CoversHour reports whether grid hour h lies inside the range.
func (r TimeRange) CoversHour(h int) bool {
	return r.StartHour() <= h && h < r.EndHour()
}

// Overlaps reports whether the two ranges share any minute.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start < o.End && o.Start < r.End
}

// Contains reports whether o lies entirely inside r.
func (r TimeRange) Contains(o TimeRange) bool {
	return r.Start <= o.Start && o.End <= r.End
}

// String formats the range as "HH:MM-HH:MM".
func (r TimeRange) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", r.Start/60, r.Start%60, r.End/60, r.End%60)
}

// MarshalText implements encoding.TextMarshaler.
func (r TimeRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *TimeRange) UnmarshalText(b []byte) error {
	tr, err := ParseTimeRange(string(b))
	if err != nil {
		return err
	}
	*r = tr
	return nil
}
