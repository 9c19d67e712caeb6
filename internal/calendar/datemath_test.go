package calendar

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWeekdayRules(t *testing.T) {
	type want struct {
		Year  int
		Month int
		Day   int
	}
	cases := []struct {
		name string
		got  func() (int, int, int)
		want want
	}{
		{"last Sunday in March", func() (int, int, int) { return 2021, 3, LastWeekdayOfMonth(2021, 3, 0) }, want{2021, 3, 28}},
		{"last Saturday in leap February", func() (int, int, int) { return 2020, 2, LastWeekdayOfMonth(2020, 2, 6) }, want{2020, 2, 29}},
		{"Saturday on or after leap day", func() (int, int, int) { return 2020, 2, WeekdayOnOrAfter(2020, 2, 28, 6) }, want{2020, 2, 29}},
		{"weekday on the exact day", func() (int, int, int) { return 2021, 3, WeekdayOnOrAfter(2021, 3, 28, 0) }, want{2021, 3, 28}},
		{"weekday later in the month", func() (int, int, int) { return 2021, 3, WeekdayOnOrAfter(2021, 3, 15, 0) }, want{2021, 3, 21}},
		{"second Sunday in March", func() (int, int, int) { return 2020, 3, NthWeekdayOfMonth(2020, 3, 2, 0) }, want{2020, 3, 8}},
		{"first Sunday in November", func() (int, int, int) { return 2020, 11, NthWeekdayOfMonth(2020, 11, 1, 0) }, want{2020, 11, 1}},
		{"week 5 is last", func() (int, int, int) { return 2040, 10, NthWeekdayOfMonth(2040, 10, 5, 0) }, want{2040, 10, 28}},
		{"fourth Thursday", func() (int, int, int) { return 2024, 11, NthWeekdayOfMonth(2024, 11, 4, 4) }, want{2024, 11, 28}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			y, m, d := c.got()
			if diff := cmp.Diff(c.want, want{y, m, d}); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDayOfWeek(t *testing.T) {
	cases := []struct {
		year, month, day int
		want             int
	}{
		{1970, 1, 1, 4},
		{2000, 2, 29, 2},
		{2038, 1, 19, 2},
		{1600, 1, 1, 6},
		{-1, 12, 31, 5},
	}
	for _, c := range cases {
		if got := DayOfWeek(c.day, c.month, c.year); got != c.want {
			t.Errorf("DayOfWeek(%d-%02d-%02d) = %d, want %d", c.year, c.month, c.day, got, c.want)
		}
	}
}

func TestDateTime_Unix(t *testing.T) {
	cases := []struct {
		in   DateTime
		want int64
	}{
		{DateTime{Year: 1970, Month: 1, Day: 1}, 0},
		{DateTime{Year: 1969, Month: 12, Day: 31, Hour: 23, Minute: 59, Second: 59}, -1},
		{DateTime{Year: 2038, Month: 1, Day: 19, Hour: 3, Minute: 14, Second: 7}, 1<<31 - 1},
		{DateTime{Year: 1901, Month: 12, Day: 13, Hour: 20, Minute: 45, Second: 52}, -1 << 31},
		{DateTime{Year: 2020, Month: 3, Day: 8, Hour: 2}, 1583632800},
		// Out-of-range fields carry over.
		{DateTime{Year: 2020, Month: 3, Day: 7, Hour: 26}, 1583632800},
		{DateTime{Year: 2020, Month: 3, Day: 9, Hour: -22}, 1583632800},
	}
	for _, c := range cases {
		if got := c.in.Unix(); got != c.want {
			t.Errorf("%v.Unix() = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFromUnix_RoundTrip(t *testing.T) {
	for _, sec := range []int64{0, -1, 86399, 86400, 951782400, -62135596800, 253402300799, 1 << 40} {
		d := FromUnix(sec)
		if got := d.Unix(); got != sec {
			t.Errorf("FromUnix(%d) = %v, Unix() = %d", sec, d, got)
		}
	}
}

func TestMonthDayFromYearDay(t *testing.T) {
	cases := []struct {
		year, yday int
		month, day int
	}{
		{2021, 0, 1, 1},
		{2021, 59, 3, 1},
		{2020, 59, 2, 29},
		{2020, 365, 12, 31},
		{2021, 364, 12, 31},
		{2021, 365, 12, 32},
	}
	for _, c := range cases {
		m, d := MonthDayFromYearDay(c.year, c.yday)
		if m != c.month || d != c.day {
			t.Errorf("MonthDayFromYearDay(%d, %d) = %d-%d, want %d-%d", c.year, c.yday, m, d, c.month, c.day)
		}
	}
}
