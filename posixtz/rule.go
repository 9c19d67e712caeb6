// Package posixtz parses POSIX TZ strings, such as the footer of a TZif
// file, and projects their recurring transitions onto concrete years.
//
//	std offset [dst [offset] [,start[/time],end[/time]]]
//
// Offsets in the textual form are added to local time to get UTC. Every
// offset in this package is the opposite: seconds east of UTC.
package posixtz

import (
	"errors"
	"fmt"
)

// ErrInvalidRule is matched by every error returned from Parse.
var ErrInvalidRule = errors.New("invalid POSIX TZ rule")

// SyntaxError reports where and why a TZ string was rejected.
type SyntaxError struct {
	Input  string
	Pos    int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("posixtz: %q at offset %d: %s", e.Input, e.Pos, e.Reason)
}

func (e *SyntaxError) Unwrap() error {
	return ErrInvalidRule
}

// Rule is a parsed TZ string.
type Rule struct {
	Std Zone
	// DST is nil for zones that never observe daylight saving time.
	DST *DST
}

// Zone is a named offset.
type Zone struct {
	Abbrev string
	// Offset is in seconds east of UTC.
	Offset int32
}

// DST describes the daylight saving zone of a rule and, if known, when it
// starts and ends each year.
type DST struct {
	Zone
	// Schedule is nil when the string names a DST zone without transition
	// rules. Such a rule stays on standard time.
	Schedule *Schedule
}

// Schedule holds the yearly transitions into and out of DST.
type Schedule struct {
	Start Transition
	End   Transition
}

// HasSchedule reports whether r switches between standard and DST time.
func (r *Rule) HasSchedule() bool {
	return r.DST != nil && r.DST.Schedule != nil
}

// Clock names the offset a transition's time of day is expressed in.
type Clock int

const (
	// Wall times are read on the clock in effect before the transition.
	Wall Clock = iota
	// Standard times are read on standard time, regardless of DST.
	Standard
	// UTC times are universal time.
	UTC
)

func (c Clock) String() string {
	switch c {
	case Wall:
		return "wall"
	case Standard:
		return "standard"
	case UTC:
		return "utc"
	default:
		return fmt.Sprintf("Clock(%d)", int(c))
	}
}

// Transition is a yearly recurring point in time.
type Transition struct {
	Day Day
	// Time is seconds since local midnight of Day. It may be negative or
	// exceed one day, moving the transition to another date.
	Time  int32
	Clock Clock
}

// DefaultTime is the time of day used when a rule omits it.
const DefaultTime = 2 * 60 * 60

// Day selects a day of the year. It is one of JulianNoLeap, Julian and
// MonthWeekDay.
type Day interface {
	// date returns the month and day of month in year. The day may exceed
	// the month's length.
	date(year int) (month, day int)
	String() string
}

// JulianNoLeap is the "Jn" form: day N in 1..365 where February 29 is
// never counted, so day 60 is always March 1.
type JulianNoLeap struct {
	N int
}

// Julian is the bare "n" form: the zero-based day of the year in 0..365,
// counting February 29 in leap years.
type Julian struct {
	N int
}

// MonthWeekDay is the "Mm.w.d" form: weekday d (0 is Sunday) of week w
// (1..5, 5 is the last) in month m.
type MonthWeekDay struct {
	Month   int
	Week    int
	Weekday int
}

func (d JulianNoLeap) String() string { return fmt.Sprintf("J%d", d.N) }
func (d Julian) String() string       { return fmt.Sprintf("%d", d.N) }

func (d MonthWeekDay) String() string {
	return fmt.Sprintf("M%d.%d.%d", d.Month, d.Week, d.Weekday)
}
