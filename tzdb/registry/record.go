// Package registry serves zone rules from the Windows time zone registry.
//
// Each zone is a key below
// HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion\Time Zones whose "TZI"
// value holds a REG_TZI_FORMAT record. Zones whose rules changed over the
// years carry a "Dynamic DST" subkey with one record per year. Keys are
// named after Windows zone names, which a NameTable maps to and from
// canonical tz database ids.
package registry

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ngrash/tzoffset/internal/calendar"
	"github.com/ngrash/tzoffset/posixtz"
)

// ErrInvalidRecord is matched by errors for records that cannot be
// expressed as rules.
var ErrInvalidRecord = errors.New("invalid time zone record")

// RecordSize is the size of an encoded Record.
const RecordSize = 44

// SystemTime is the Windows SYSTEMTIME structure. In a Record it encodes a
// transition date.
type SystemTime struct {
	Year         uint16
	Month        uint16
	DayOfWeek    uint16
	Day          uint16
	Hour         uint16
	Minute       uint16
	Second       uint16
	Milliseconds uint16
}

// Record is the REG_TZI_FORMAT structure. Biases are minutes west of UTC.
type Record struct {
	Bias         int32
	StandardBias int32
	DaylightBias int32
	// StandardDate is when DST ends and DaylightDate when it starts. A zero
	// StandardDate.Month means the zone has no DST.
	StandardDate SystemTime
	DaylightDate SystemTime
}

// ParseRecord decodes a little-endian REG_TZI_FORMAT value.
func ParseRecord(b []byte) (Record, error) {
	var rec Record
	if len(b) != RecordSize {
		return rec, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidRecord, len(b), RecordSize)
	}
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return rec, nil
}

// MarshalBinary encodes rec as a REG_TZI_FORMAT value.
func (rec Record) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(RecordSize)
	if err := binary.Write(&buf, binary.LittleEndian, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HasDST reports whether rec switches to daylight time.
func (rec Record) HasDST() bool {
	return rec.StandardDate.Month != 0 && rec.StandardBias != rec.DaylightBias
}

// Rule converts rec to a recurring rule. Transition times are read on the
// clock in effect just before each transition.
func (rec Record) Rule() (*posixtz.Rule, error) {
	std := -(rec.Bias + rec.StandardBias) * 60
	r := &posixtz.Rule{Std: posixtz.Zone{Abbrev: abbrev(std), Offset: std}}
	if !rec.HasDST() {
		return r, nil
	}
	start, err := transition(rec.DaylightDate)
	if err != nil {
		return nil, fmt.Errorf("daylight date: %w", err)
	}
	end, err := transition(rec.StandardDate)
	if err != nil {
		return nil, fmt.Errorf("standard date: %w", err)
	}
	dst := -(rec.Bias + rec.DaylightBias) * 60
	r.DST = &posixtz.DST{
		Zone:     posixtz.Zone{Abbrev: abbrev(dst), Offset: dst},
		Schedule: &posixtz.Schedule{Start: start, End: end},
	}
	return r, nil
}

// transition converts a SYSTEMTIME date. A zero year selects the Day'th
// DayOfWeek of the month, 5 being the last; otherwise the date is the same
// month and day every year.
func transition(st SystemTime) (posixtz.Transition, error) {
	if st.Month < 1 || st.Month > 12 {
		return posixtz.Transition{}, fmt.Errorf("%w: month %d", ErrInvalidRecord, st.Month)
	}
	if st.Hour > 24 || st.Minute > 59 || st.Second > 59 || st.Milliseconds > 999 {
		return posixtz.Transition{}, fmt.Errorf("%w: time %02d:%02d:%02d.%03d", ErrInvalidRecord, st.Hour, st.Minute, st.Second, st.Milliseconds)
	}
	// Rounded to whole seconds, so 23:59:59.999 is the end of the day.
	sec := int32(st.Hour)*3600 + int32(st.Minute)*60 + int32(st.Second)
	if st.Milliseconds >= 500 {
		sec++
	}
	t := posixtz.Transition{Time: sec, Clock: posixtz.Wall}

	month := int(st.Month)
	if st.Year == 0 {
		if st.Day < 1 || st.Day > 5 || st.DayOfWeek > 6 {
			return posixtz.Transition{}, fmt.Errorf("%w: occurrence %d of weekday %d", ErrInvalidRecord, st.Day, st.DayOfWeek)
		}
		t.Day = posixtz.MonthWeekDay{Month: month, Week: int(st.Day), Weekday: int(st.DayOfWeek)}
		return t, nil
	}
	day := int(st.Day)
	switch {
	case month == 2 && day == 29:
		t.Day = posixtz.Julian{N: 59}
	case day < 1 || day > calendar.DaysInMonth(month, 1971):
		return posixtz.Transition{}, fmt.Errorf("%w: day %d of month %d", ErrInvalidRecord, day, month)
	default:
		yday := calendar.DaysFromCivil(1971, month, day) - calendar.DaysFromCivil(1971, 1, 1)
		t.Day = posixtz.JulianNoLeap{N: int(yday) + 1}
	}
	return t, nil
}

// abbrev names an offset numerically, e.g. "+01" or "-0330".
func abbrev(off int32) string {
	sign := byte('+')
	if off < 0 {
		sign, off = '-', -off
	}
	h, m := off/3600, off%3600/60
	if m == 0 {
		return fmt.Sprintf("%c%02d", sign, h)
	}
	return fmt.Sprintf("%c%02d%02d", sign, h, m)
}
