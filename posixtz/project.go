package posixtz

import (
	"github.com/ngrash/tzoffset/internal/calendar"
)

// referenceCommonYear maps JulianNoLeap days onto months.
const referenceCommonYear = 1971

func (d JulianNoLeap) date(int) (int, int) {
	return calendar.MonthDayFromYearDay(referenceCommonYear, d.N-1)
}

func (d Julian) date(int) (int, int) {
	// Day N+1 of January carries into later months.
	return 1, d.N + 1
}

func (d MonthWeekDay) date(year int) (int, int) {
	return d.Month, calendar.NthWeekdayOfMonth(year, d.Month, d.Week, d.Weekday)
}

// Project returns the local date and time at which t occurs in year, in
// t's reference clock. A time of day outside [0, 24h) moves the result to
// an earlier or later date.
func (t Transition) Project(year int) calendar.DateTime {
	return calendar.FromUnix(t.localUnix(year))
}

// localUnix is the projected local time as if it were UTC.
func (t Transition) localUnix(year int) int64 {
	m, d := t.Day.date(year)
	return calendar.DateTime{Year: year, Month: m, Day: d}.Unix() + int64(t.Time)
}

// Instant returns the unix second at which t occurs in year. before is the
// offset in effect just before the transition and std the standard offset
// of the zone; the reference clock selects which one the time is read on.
func (t Transition) Instant(year int, before, std int32) int64 {
	local := t.localUnix(year)
	switch t.Clock {
	case Standard:
		return local - int64(std)
	case UTC:
		return local
	default:
		return local - int64(before)
	}
}

// Change is a concrete transition of a rule.
type Change struct {
	At     int64
	Before Zone
	After  Zone
	// ToDST is set when After is the DST zone.
	ToDST bool
}

// TransitionsIn returns the transitions of r that fall into year according
// to their rules, ordered by instant. The instants may lie in the adjacent
// calendar year when times of day exceed a day or offsets push them over.
// Rules without a schedule and all-year DST rules have no transitions.
func (r *Rule) TransitionsIn(year int) []Change {
	if !r.HasSchedule() || r.AllYearDST() {
		return nil
	}
	start, end := r.changes(year)
	switch {
	case start.At < end.At:
		return []Change{start, end}
	case end.At < start.At:
		return []Change{end, start}
	default:
		return nil
	}
}

func (r *Rule) changes(year int) (start, end Change) {
	s := r.DST.Schedule
	start = Change{
		At:     s.Start.Instant(year, r.Std.Offset, r.Std.Offset),
		Before: r.Std,
		After:  r.DST.Zone,
		ToDST:  true,
	}
	end = Change{
		At:     s.End.Instant(year, r.DST.Offset, r.Std.Offset),
		Before: r.DST.Zone,
		After:  r.Std,
	}
	return start, end
}

// AllYearDST reports whether DST, once started, lasts until the next
// year's start, as in "EST5EDT,0/0,J365/25". Such rules are always on DST.
func (r *Rule) AllYearDST() bool {
	if !r.HasSchedule() {
		return false
	}
	// Measured in a leap year so a 366-day span is needed.
	start, end := r.changes(2000)
	return end.At-start.At >= 366*secondsPerDay
}

// Fixed reports whether r resolves to a single offset for all time, and
// that offset.
func (r *Rule) Fixed() (Zone, bool) {
	switch {
	case r.AllYearDST():
		return r.DST.Zone, true
	case !r.HasSchedule():
		return r.Std, true
	default:
		return Zone{}, false
	}
}
