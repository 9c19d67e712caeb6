// Package tzrules resolves UTC offsets from a zone's historical transitions
// and its recurring rule.
package tzrules

import (
	"errors"
	"fmt"
	"time"

	"github.com/ngrash/tzoffset/internal/calendar"
)

var (
	// ErrOverflow is returned for dates outside the supported years
	// [calendar.MinYear, calendar.MaxYear].
	ErrOverflow = errors.New("date outside supported range")
	// ErrInvalidDateTime is returned for local date-times with fields out
	// of range.
	ErrInvalidDateTime = errors.New("invalid local date-time")
	// ErrInvalidRules is returned when rules cannot be constructed from
	// their inputs.
	ErrInvalidRules = errors.New("invalid time zone rules")
)

// Offset is a UTC offset in seconds east of UTC.
type Offset int32

// Duration returns o as a time.Duration.
func (o Offset) Duration() time.Duration {
	return time.Duration(o) * time.Second
}

// String formats o as +hh:mm, or +hh:mm:ss when it has seconds.
func (o Offset) String() string {
	sign := '+'
	s := int32(o)
	if s < 0 {
		sign = '-'
		s = -s
	}
	if s%60 != 0 {
		return fmt.Sprintf("%c%02d:%02d:%02d", sign, s/3600, s/60%60, s%60)
	}
	return fmt.Sprintf("%c%02d:%02d", sign, s/3600, s/60%60)
}

// ParseOffset parses "Z", ±hh, ±hh:mm or ±hh:mm:ss.
func ParseOffset(s string) (Offset, error) {
	if s == "Z" {
		return 0, nil
	}
	bad := fmt.Errorf("invalid offset %q", s)
	if len(s) != 3 && len(s) != 6 && len(s) != 9 || s[0] != '+' && s[0] != '-' {
		return 0, bad
	}
	var fields [3]int
	for i := 0; 1+3*i < len(s); i++ {
		p := 1 + 3*i
		if i > 0 && s[p-1] != ':' {
			return 0, bad
		}
		hi, lo := s[p], s[p+1]
		if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
			return 0, bad
		}
		fields[i] = int(hi-'0')*10 + int(lo-'0')
	}
	if fields[0] > 24 || fields[1] > 59 || fields[2] > 59 {
		return 0, bad
	}
	o := Offset(fields[0]*3600 + fields[1]*60 + fields[2])
	if s[0] == '-' {
		o = -o
	}
	return o, nil
}

// LocalDateTime is a date and time of day as read on a wall clock, without
// an offset.
type LocalDateTime struct {
	Year       int
	Month      time.Month
	Day        int
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// LocalDateTimeOf returns the wall clock fields of t in t's location.
func LocalDateTimeOf(t time.Time) LocalDateTime {
	y, m, d := t.Date()
	return LocalDateTime{
		Year:       y,
		Month:      m,
		Day:        d,
		Hour:       t.Hour(),
		Minute:     t.Minute(),
		Second:     t.Second(),
		Nanosecond: t.Nanosecond(),
	}
}

const localLayout = "2006-01-02T15:04:05"

// ParseLocal parses "YYYY-MM-DDTHH:MM:SS" with optional fractional seconds.
func ParseLocal(s string) (LocalDateTime, error) {
	t, err := time.Parse(localLayout, s)
	if err != nil {
		return LocalDateTime{}, fmt.Errorf("%w: %v", ErrInvalidDateTime, err)
	}
	return LocalDateTimeOf(t), nil
}

// Validate checks that every field is in range.
func (d LocalDateTime) Validate() error {
	switch {
	case !calendar.InRange(d.Year):
		return fmt.Errorf("%w: year %d", ErrOverflow, d.Year)
	case d.Month < time.January || d.Month > time.December:
		return fmt.Errorf("%w: month %d", ErrInvalidDateTime, d.Month)
	case d.Day < 1 || d.Day > calendar.DaysInMonth(int(d.Month), d.Year):
		return fmt.Errorf("%w: day %d of %d-%02d", ErrInvalidDateTime, d.Day, d.Year, d.Month)
	case d.Hour < 0 || d.Hour > 23:
		return fmt.Errorf("%w: hour %d", ErrInvalidDateTime, d.Hour)
	case d.Minute < 0 || d.Minute > 59:
		return fmt.Errorf("%w: minute %d", ErrInvalidDateTime, d.Minute)
	case d.Second < 0 || d.Second > 59:
		return fmt.Errorf("%w: second %d", ErrInvalidDateTime, d.Second)
	case d.Nanosecond < 0 || d.Nanosecond > 999_999_999:
		return fmt.Errorf("%w: nanosecond %d", ErrInvalidDateTime, d.Nanosecond)
	}
	return nil
}

func (d LocalDateTime) String() string {
	s := d.dateTime().String()
	if d.Nanosecond != 0 {
		s += fmt.Sprintf(".%09d", d.Nanosecond)
	}
	return s
}

func (d LocalDateTime) dateTime() calendar.DateTime {
	return calendar.DateTime{
		Year:   d.Year,
		Month:  int(d.Month),
		Day:    d.Day,
		Hour:   d.Hour,
		Minute: d.Minute,
		Second: d.Second,
	}
}

// unix returns the whole seconds of d as if d were UTC.
func (d LocalDateTime) unix() int64 {
	return d.dateTime().Unix()
}
