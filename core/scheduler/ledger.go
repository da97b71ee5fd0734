package scheduler

import "github.com/kilianp07/staffplan/core/model"

const hoursEpsilon = 1e-9

// Ledger tracks what each employee already holds across slices of one run,
// so later slices respect overlaps, daily and weekly hours and rest time.
type Ledger struct {
	hard      model.HardConstraints
	bookings  map[string]map[string][]model.TimeRange
	dayHours  map[string]map[string]float64
	weekHours map[string]map[string]float64
}

// NewLedger returns an empty ledger enforcing hard.
func NewLedger(hard model.HardConstraints) *Ledger {
	return &Ledger{
		hard:      hard,
		bookings:  make(map[string]map[string][]model.TimeRange),
		dayHours:  make(map[string]map[string]float64),
		weekHours: make(map[string]map[string]float64),
	}
}

// WeeklyCap is the effective weekly limit for e; 0 means unbounded.
func (l *Ledger) WeeklyCap(e model.Employee) float64 {
	limit := l.hard.MaxHoursPerWeek
	if e.MaxHoursWeek > 0 && (limit == 0 || e.MaxHoursWeek < limit) {
		limit = e.MaxHoursWeek
	}
	return limit
}

// Allows reports whether e may take window w on day.
func (l *Ledger) Allows(e model.Employee, day string, w model.TimeRange) bool {
	hours := w.Hours()
	if l.hard.MaxHoursPerDay > 0 && l.dayHours[e.ID][day]+hours > l.hard.MaxHoursPerDay+hoursEpsilon {
		return false
	}
	if limit := l.WeeklyCap(e); limit > 0 && l.weekHours[e.ID][model.WeekKey(day)]+hours > limit+hoursEpsilon {
		return false
	}
	for _, b := range l.bookings[e.ID][day] {
		if b.Overlaps(w) {
			return false
		}
	}
	if l.hard.MinRestHours <= 0 {
		return true
	}
	rest := int(l.hard.MinRestHours * 60)
	if prev, ok := model.AdjacentDay(day, -1); ok {
		for _, b := range l.bookings[e.ID][prev] {
			if model.MinutesPerDay-b.End+w.Start < rest {
				return false
			}
		}
	}
	if next, ok := model.AdjacentDay(day, 1); ok {
		for _, b := range l.bookings[e.ID][next] {
			if model.MinutesPerDay-w.End+b.Start < rest {
				return false
			}
		}
	}
	return true
}

// Book records that employeeID holds w on day.
func (l *Ledger) Book(employeeID, day string, w model.TimeRange) {
	if l.bookings[employeeID] == nil {
		l.bookings[employeeID] = make(map[string][]model.TimeRange)
		l.dayHours[employeeID] = make(map[string]float64)
		l.weekHours[employeeID] = make(map[string]float64)
	}
	l.bookings[employeeID][day] = append(l.bookings[employeeID][day], w)
	l.dayHours[employeeID][day] += w.Hours()
	l.weekHours[employeeID][model.WeekKey(day)] += w.Hours()
}

// DayHours returns the hours booked for employeeID on day.
func (l *Ledger) DayHours(employeeID, day string) float64 {
	return l.dayHours[employeeID][day]
}

// WeekHours returns the hours booked for employeeID in the week of day.
func (l *Ledger) WeekHours(employeeID, day string) float64 {
	return l.weekHours[employeeID][model.WeekKey(day)]
}
