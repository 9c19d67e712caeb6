// Package calendar provides proleptic Gregorian date arithmetic on plain
// integers. It deliberately does not depend on time.Location: it is the
// low-level layer that time zone resolution is built on.
package calendar

const (
	SecondsPerMinute = 60
	SecondsPerHour   = 60 * SecondsPerMinute
	SecondsPerDay    = 24 * SecondsPerHour

	daysPer400Years = 365*400 + 97
)

// MinYear and MaxYear bound the years the package computes with. Every
// unix second count derived from a year in this range fits an int64 with
// lots of headroom.
const (
	MinYear = -1_000_000
	MaxYear = 1_000_000
)

// InRange reports whether year lies within [MinYear, MaxYear].
func InRange(year int) bool {
	return year >= MinYear && year <= MaxYear
}

// IsLeapYear determines if the year is a leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in a given month for a specific year.
func DaysInMonth(month, year int) int {
	if month == 2 {
		if IsLeapYear(year) {
			return 29
		}
		return 28
	}
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}
	return 31
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// floorDiv divides rounding towards negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// DaysFromCivil returns the number of days between 1970-01-01 and the given date.
// Month and day are not range checked; day overflow carries into later dates.
func DaysFromCivil(year, month, day int) int64 {
	y := int64(year)
	m := int64(month)
	if m <= 2 {
		y--
	}
	era := floorDiv(y, 400)
	yoe := y - era*400 // [0, 399]
	mp := (m + 9) % 12 // March = 0
	doy := (153*mp+2)/5 + int64(day) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*daysPer400Years + doe - 719468
}

// CivilFromDays is the inverse of DaysFromCivil.
func CivilFromDays(days int64) (year, month, day int) {
	z := days + 719468
	era := floorDiv(z, daysPer400Years)
	doe := z - era*daysPer400Years
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if m > 12 {
		m -= 12
	}
	if m <= 2 {
		y++
	}
	return int(y), int(m), int(d)
}

// DayOfWeek calculates the day of the week for a given date,
// where 0=Sunday, 1=Monday, ..., 6=Saturday.
func DayOfWeek(day, month, year int) int {
	// 1970-01-01 was a Thursday.
	return int(((DaysFromCivil(year, month, day)+4)%7 + 7) % 7)
}

// LastWeekdayOfMonth finds the last instance of a given weekday in a specific month and year.
func LastWeekdayOfMonth(year, month, weekday int) int {
	lastDay := DaysInMonth(month, year)
	lastDayWeekday := DayOfWeek(lastDay, month, year)

	// How many days to step back from the last day to reach the weekday.
	offset := (lastDayWeekday - weekday + 7) % 7
	return lastDay - offset
}

// WeekdayOnOrAfter finds the first occurrence of a weekday on or after the
// given day of the month. The result may fall into the next month, in which
// case the returned day is larger than the month's length.
func WeekdayOnOrAfter(year, month, day, weekday int) int {
	diff := weekday - DayOfWeek(day, month, year)
	if diff < 0 {
		diff += 7
	}
	return day + diff
}

// NthWeekdayOfMonth returns the day of month of the n-th (1-based) given
// weekday. Week 5 means "last", as in POSIX M-rules and registry SYSTEMTIME
// transition dates.
func NthWeekdayOfMonth(year, month, week, weekday int) int {
	if week >= 5 {
		return LastWeekdayOfMonth(year, month, weekday)
	}
	return WeekdayOnOrAfter(year, month, 1, weekday) + (week-1)*7
}

// MonthDayFromYearDay converts a zero-based day of year into month and day.
func MonthDayFromYearDay(year, yday int) (month, day int) {
	y, m, d := CivilFromDays(DaysFromCivil(year, 1, 1) + int64(yday))
	if y != year {
		// Only reachable for yday == 365 in a common year; keep the carry.
		return 12, 31 + yday - 364
	}
	return m, d
}
