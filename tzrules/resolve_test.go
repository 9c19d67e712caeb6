package tzrules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngrash/tzoffset/posixtz"
)

func TestOffsetAt_Fixtures(t *testing.T) {
	cases := []struct {
		zone string
		sec  int64
		want Offset
	}{
		{"Berlin", -5364619200, 3208}, // 1800-01-01T12:00Z
		{"Berlin", -2195899200, 3600}, // 1900-06-01T12:00Z
		{"Berlin", -776865600, 7200},  // 1945-05-20T12:00Z
		{"Berlin", 43200, 3600},       // 1970-01-01T12:00Z
		{"Berlin", 836222400, 7200},   // 1996-07-01T12:00Z
		{"Berlin", 1610712000, 3600},  // 2021-01-15T12:00Z
		{"Berlin", 1626350400, 7200},  // 2021-07-15T12:00Z
		{"Berlin", 2143281600, 3600},  // 2037-12-01T12:00Z
		{"Berlin", 2525860800, 3600},  // 2050-01-15T12:00Z
		{"Berlin", 2541499200, 7200},  // 2050-07-15T12:00Z
		{"Berlin", 4107585600, 3600},  // 2100-03-01T12:00Z
		{"Berlin", 13569422400, 3600}, // 2399-12-31T12:00Z
		{"Berlin", 13585147200, 7200}, // 2400-06-30T12:00Z
		{"New_York", -5364619200, -17762},
		{"New_York", -2195899200, -18000},
		{"New_York", -776865600, -14400},
		{"New_York", 43200, -18000},
		{"New_York", 836222400, -14400},
		{"New_York", 1610712000, -18000},
		{"New_York", 1626350400, -14400},
		{"New_York", 2143281600, -18000},
		{"New_York", 2525860800, -18000},
		{"New_York", 2541499200, -14400},
		{"New_York", 4107585600, -18000},
		{"New_York", 13569422400, -18000},
		{"New_York", 13585147200, -14400},
		{"Dublin", -5364619200, -1521},
		{"Dublin", -776865600, 3600},
		{"Dublin", 43200, 3600},
		{"Dublin", 1610712000, 0},
		{"Dublin", 1626350400, 3600},
		{"Dublin", 2143281600, 0},
		{"Dublin", 2525860800, 0},
		{"Dublin", 2541499200, 3600},
		{"Dublin", 13569422400, 0},
		{"Dublin", 13585147200, 3600},
		{"Lord_Howe", -5364619200, 38180},
		{"Lord_Howe", 43200, 36000},
		{"Lord_Howe", 836222400, 37800},
		{"Lord_Howe", 1610712000, 39600},
		{"Lord_Howe", 1626350400, 37800},
		{"Lord_Howe", 2143281600, 39600},
		{"Lord_Howe", 2525860800, 39600},
		{"Lord_Howe", 2541499200, 37800},
		{"Lord_Howe", 13585147200, 37800},
		{"Tokyo", -5364619200, 33539},
		{"Tokyo", 43200, 32400},
		{"Tokyo", 13585147200, 32400},
	}
	rules := map[string]*Rules{}
	for _, c := range cases {
		r, ok := rules[c.zone]
		if !ok {
			r = loadRules(t, c.zone)
			rules[c.zone] = r
		}
		got, err := r.OffsetAt(time.Unix(c.sec, 0))
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%s at %s", c.zone, time.Unix(c.sec, 0).UTC().Format(time.RFC3339))
	}
}

func TestOffsetAt_TransitionInstant(t *testing.T) {
	r, err := FromPOSIX("AST4ADT,M3.2.0,M11.1.0")
	require.NoError(t, err)

	at := time.Unix(1583647200, 0) // 2020-03-08T06:00:00Z
	before, err := r.OffsetAt(at.Add(-time.Nanosecond))
	require.NoError(t, err)
	after, err := r.OffsetAt(at)
	require.NoError(t, err)
	assert.Equal(t, Offset(-14400), before)
	assert.Equal(t, Offset(-10800), after)
}

func TestOffsetAt_Range(t *testing.T) {
	r := loadRules(t, "Berlin")

	got, err := r.OffsetAt(time.Date(1_000_000, time.July, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, Offset(7200), got)

	got, err = r.OffsetAt(time.Date(-1_000_000, time.July, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, Offset(3208), got)

	_, err = r.OffsetAt(time.Date(1_000_001, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = r.OffsetAt(time.Date(-1_000_001, time.December, 31, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = r.InfoAt(LocalDateTime{Year: 1_000_001, Month: time.January, Day: 1})
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = r.InfoAt(LocalDateTime{Year: 2021, Month: time.February, Day: 29})
	assert.ErrorIs(t, err, ErrInvalidDateTime)
}

// expectInfo describes an OffsetInfo by kind for table tests.
type expectInfo struct {
	kind          string
	start         int64
	before, after Offset
}

func (e expectInfo) build() OffsetInfo {
	if e.kind == "regular" {
		return Regular{offset: e.before}
	}
	return newOffsetInfo(e.start, e.before, e.after)
}

func localOf(t *testing.T, s string) LocalDateTime {
	t.Helper()
	d, err := ParseLocal(s)
	require.NoError(t, err)
	return d
}

// europeDSTEndingOnStandardTime ends summer time at 03:00 standard time, so
// clocks go back from 04:00 to 03:00.
var europeDSTEndingOnStandardTime = &posixtz.Rule{
	Std: posixtz.Zone{Abbrev: "CET", Offset: 3600},
	DST: &posixtz.DST{
		Zone: posixtz.Zone{Abbrev: "CEST", Offset: 7200},
		Schedule: &posixtz.Schedule{
			Start: posixtz.Transition{Day: posixtz.MonthWeekDay{Month: 3, Week: 5}, Time: 2 * 3600},
			End:   posixtz.Transition{Day: posixtz.MonthWeekDay{Month: 10, Week: 5}, Time: 3 * 3600, Clock: posixtz.Standard},
		},
	},
}

func TestInfoAt_Rules(t *testing.T) {
	standardEnd, err := New(3600, nil, europeDSTEndingOnStandardTime)
	require.NoError(t, err)

	cases := []struct {
		tz    string
		rules *Rules
		local string
		want  expectInfo
	}{
		{"DST ending on standard time", standardEnd, "2040-03-25T02:30:00", expectInfo{"gap", 2216250000, 3600, 7200}},
		{"DST ending on standard time", standardEnd, "2040-10-28T03:30:00", expectInfo{"overlap", 2235002400, 7200, 3600}},
		{"DST ending on standard time", standardEnd, "2040-10-28T02:30:00", expectInfo{kind: "regular", before: 7200}},
		{"DST ending on standard time", standardEnd, "2040-10-28T04:00:00", expectInfo{kind: "regular", before: 3600}},
		{tz: "CET-1CEST,M3.5.0,M10.5.0/3", local: "2040-03-25T02:30:00", want: expectInfo{"gap", 2216250000, 3600, 7200}},
		{tz: "CET-1CEST,M3.5.0,M10.5.0/3", local: "2040-03-25T02:00:00", want: expectInfo{"gap", 2216250000, 3600, 7200}},
		{tz: "CET-1CEST,M3.5.0,M10.5.0/3", local: "2040-03-25T03:00:00", want: expectInfo{kind: "regular", before: 7200}},
		{tz: "CET-1CEST,M3.5.0,M10.5.0/3", local: "2040-10-28T02:30:00", want: expectInfo{"overlap", 2234998800, 7200, 3600}},
		{tz: "CET-1CEST,M3.5.0,M10.5.0/3", local: "2040-10-28T03:30:00", want: expectInfo{kind: "regular", before: 3600}},
		{tz: "AST4ADT,M3.2.0,M11.1.0", local: "2020-03-08T02:01:00", want: expectInfo{"gap", 1583647200, -14400, -10800}},
		{tz: "AST4ADT,M3.2.0,M11.1.0", local: "2020-11-01T01:01:00", want: expectInfo{"overlap", 1604206800, -10800, -14400}},
		{tz: "AST4ADT,M3.2.0,M11.1.0", local: "2020-11-01T02:00:00", want: expectInfo{kind: "regular", before: -14400}},
		{tz: "AST4ADT,M3.2.0,M11.1.0", local: "2020-07-01T12:00:00", want: expectInfo{kind: "regular", before: -10800}},
	}
	for _, c := range cases {
		name := c.tz + " " + c.local
		t.Run(name, func(t *testing.T) {
			r := c.rules
			if r == nil {
				var err error
				r, err = FromPOSIX(c.tz)
				require.NoError(t, err)
			}
			got, err := r.InfoAt(localOf(t, c.local))
			require.NoError(t, err)
			assert.Equal(t, c.want.build(), got)
		})
	}
}

func TestInfoAt_Fixtures(t *testing.T) {
	cases := []struct {
		zone  string
		local string
		want  expectInfo
	}{
		{"Berlin", "2040-03-25T02:30:00", expectInfo{"gap", 2216250000, 3600, 7200}},
		{"Berlin", "2040-10-28T02:30:00", expectInfo{"overlap", 2234998800, 7200, 3600}},
		{"Berlin", "2040-10-28T03:30:00", expectInfo{kind: "regular", before: 3600}},
		{"Berlin", "2021-03-28T01:59:00", expectInfo{kind: "regular", before: 3600}},
		{"Berlin", "2021-03-28T03:00:00", expectInfo{kind: "regular", before: 7200}},
		{"Berlin", "1980-04-06T02:30:00", expectInfo{"gap", 323830800, 3600, 7200}},
		{"Berlin", "1947-05-11T02:30:00", expectInfo{kind: "regular", before: 7200}},
		{"New_York", "2020-03-08T02:01:00", expectInfo{"gap", 1583650800, -18000, -14400}},
		{"New_York", "2020-11-01T01:01:00", expectInfo{"overlap", 1604210400, -14400, -18000}},
		{"New_York", "2060-03-14T02:30:00", expectInfo{"gap", 2846473200, -18000, -14400}},
		{"New_York", "2060-11-07T01:30:00", expectInfo{"overlap", 2867032800, -14400, -18000}},
		{"New_York", "1918-03-31T02:30:00", expectInfo{"gap", -1633280400, -18000, -14400}},
		{"Dublin", "2050-03-27T01:30:00", expectInfo{"gap", 2531955600, 0, 3600}},
		{"Dublin", "2050-10-30T01:30:00", expectInfo{"overlap", 2550704400, 3600, 0}},
		{"Dublin", "2050-10-30T02:00:00", expectInfo{kind: "regular", before: 0}},
		{"Lord_Howe", "2050-10-02T02:15:00", expectInfo{"gap", 2548251000, 37800, 39600}},
		{"Lord_Howe", "2050-04-03T01:45:00", expectInfo{"overlap", 2532524400, 39600, 37800}},
		{"Lord_Howe", "2050-04-03T02:00:00", expectInfo{kind: "regular", before: 37800}},
		{"Lord_Howe", "2050-04-03T01:29:00", expectInfo{kind: "regular", before: 39600}},
		{"Tokyo", "2050-01-01T00:00:00", expectInfo{kind: "regular", before: 32400}},
		{"Tokyo", "1948-05-02T00:30:00", expectInfo{"gap", -683802000, 32400, 36000}},
	}
	for _, c := range cases {
		t.Run(c.zone+" "+c.local, func(t *testing.T) {
			r := loadRules(t, c.zone)
			got, err := r.InfoAt(localOf(t, c.local))
			require.NoError(t, err)
			assert.Equal(t, c.want.build(), got)
		})
	}
}

func TestInfoAt_GapAndOverlapDirection(t *testing.T) {
	for _, zone := range []string{"Berlin", "New_York", "Dublin", "Lord_Howe"} {
		r := loadRules(t, zone)
		gaps, overlaps := 0, 0
		start := time.Date(2035, time.January, 1, 0, 0, 0, 0, time.UTC)
		for d := start; d.Year() < 2041; d = d.Add(15 * time.Minute) {
			info, err := r.InfoAt(LocalDateTimeOf(d))
			require.NoError(t, err)
			switch info := info.(type) {
			case Gap:
				gaps++
				assert.Less(t, info.Before(), info.After(), "%s %v", zone, d)
			case Overlap:
				overlaps++
				assert.Greater(t, info.Before(), info.After(), "%s %v", zone, d)
			}
		}
		// One gap and one overlap per year; 30-minute shifts cover half
		// as many quarter hours.
		want := 6 * 4
		if zone == "Lord_Howe" {
			want = 6 * 2
		}
		assert.Equal(t, want, gaps, zone)
		assert.Equal(t, want, overlaps, zone)
	}
}

func TestOffsetInfo_String(t *testing.T) {
	assert.Equal(t, "Regular(+01:00)", Regular{offset: 3600}.String())
	assert.Equal(t, "Gap(2040-03-25T01:00:00Z, +01:00 -> +02:00)", newOffsetInfo(2216250000, 3600, 7200).String())
	assert.Equal(t, "Overlap(2040-10-28T01:00:00Z, +02:00 -> +01:00)", newOffsetInfo(2234998800, 7200, 3600).String())

	g := newOffsetInfo(2548251000, 37800, 39600).(Gap)
	assert.Equal(t, 30*time.Minute, g.Duration())
	assert.Equal(t, time.Unix(2548251000, 0).UTC(), g.Start())
}

func TestAtLocal(t *testing.T) {
	r, err := FromPOSIX("CET-1CEST,M3.5.0,M10.5.0/3")
	require.NoError(t, err)

	plusOne, plusTwo, plusFive := Offset(3600), Offset(7200), Offset(18000)
	cases := []struct {
		name      string
		local     string
		preferred *Offset
		wantUnix  int64
		wantOff   int
	}{
		{"regular", "2040-07-01T12:00:00", nil, 2224749600, 7200},
		{"regular ignores preference", "2040-07-01T12:00:00", &plusOne, 2224749600, 7200},
		{"overlap defaults to earlier", "2040-10-28T02:30:00", nil, 2234997000, 7200},
		{"overlap prefers later", "2040-10-28T02:30:00", &plusOne, 2235000600, 3600},
		{"overlap prefers earlier", "2040-10-28T02:30:00", &plusTwo, 2234997000, 7200},
		{"overlap ignores unrelated preference", "2040-10-28T02:30:00", &plusFive, 2234997000, 7200},
		{"gap moves forward", "2040-03-25T02:30:00", nil, 2216251800, 7200},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := r.AtLocal(localOf(t, c.local), c.preferred)
			require.NoError(t, err)
			assert.Equal(t, c.wantUnix, got.Unix())
			_, off := got.Zone()
			assert.Equal(t, c.wantOff, off)
		})
	}

	got, err := r.AtLocal(LocalDateTime{Year: 2040, Month: time.March, Day: 25, Hour: 2, Minute: 30, Nanosecond: 42}, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, got.Nanosecond())
	assert.Equal(t, "2040-03-25T03:30:00.000000042+02:00", got.Format(time.RFC3339Nano))

	_, err = r.AtLocal(LocalDateTime{Year: 2040, Month: time.March, Day: 32}, nil)
	assert.ErrorIs(t, err, ErrInvalidDateTime)
}

func TestStartOfDay(t *testing.T) {
	// DST starts and ends at midnight.
	r, err := FromPOSIX("CST5CDT,M3.2.0/0,M11.1.0/1")
	require.NoError(t, err)

	cases := []struct {
		name     string
		month    time.Month
		day      int
		wantUnix int64
		wantOff  int
	}{
		{"midnight in gap", time.March, 9, 1741496400, -14400},
		{"regular midnight", time.March, 10, 1741579200, -14400},
		{"midnight in overlap", time.November, 2, 1762056000, -14400},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := r.StartOfDay(2025, c.month, c.day)
			require.NoError(t, err)
			assert.Equal(t, c.wantUnix, got.Unix())
			_, off := got.Zone()
			assert.Equal(t, c.wantOff, off)
		})
	}

	_, err = r.StartOfDay(2025, time.February, 29)
	assert.ErrorIs(t, err, ErrInvalidDateTime)
}

func TestNextTransition(t *testing.T) {
	berlin := loadRules(t, "Berlin")

	c, ok, err := berlin.NextTransition(time.Date(2037, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Change{At: time.Unix(2140045200, 0).UTC(), Before: 7200, After: 3600}, c)

	// Continues past the last historical transition.
	c, ok, err = berlin.NextTransition(c.At)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Change{At: time.Unix(2153350800, 0).UTC(), Before: 3600, After: 7200}, c)

	c, ok, err = berlin.NextTransition(time.Date(2040, time.November, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2041, time.March, 31, 1, 0, 0, 0, time.UTC), c.At)

	_, ok, err = loadRules(t, "Tokyo").NextTransition(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = loadRules(t, "UTC").NextTransition(time.Unix(0, 0))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = berlin.NextTransition(time.Date(1_000_001, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrOverflow)
}
