package calendar

import "fmt"

// DateTime is a calendar date and a time of day without any zone attached.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// Unix interprets the fields as UTC and returns the seconds since
// 1970-01-01T00:00:00. It ignores leap seconds. Fields outside their usual
// range carry over, so Hour 25 is 01:00 of the next day.
func (d DateTime) Unix() int64 {
	days := DaysFromCivil(d.Year, d.Month, 1) + int64(d.Day-1)
	return days*SecondsPerDay + int64(d.Hour)*SecondsPerHour + int64(d.Minute)*SecondsPerMinute + int64(d.Second)
}

func (d DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

// FromUnix is the inverse of DateTime.Unix for normalized values.
func FromUnix(sec int64) DateTime {
	days := floorDiv(sec, SecondsPerDay)
	rem := int(sec - days*SecondsPerDay)
	y, m, d := CivilFromDays(days)
	return DateTime{
		Year:   y,
		Month:  m,
		Day:    d,
		Hour:   rem / SecondsPerHour,
		Minute: rem % SecondsPerHour / SecondsPerMinute,
		Second: rem % SecondsPerMinute,
	}
}

// YearOf returns the calendar year containing the given unix second.
func YearOf(sec int64) int {
	y, _, _ := CivilFromDays(floorDiv(sec, SecondsPerDay))
	return y
}
