package posixtz

import (
	"fmt"
	"strings"
)

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour

	// maxZoneHours bounds the hours of std and dst offsets.
	maxZoneHours = 24
	// maxRuleHours bounds the hours of transition times. RFC 8536 section
	// 3.3.1 extends the POSIX range of 0..24 to -167..167.
	maxRuleHours = 24*7 - 1
)

// Parse parses a POSIX TZ string. Errors match ErrInvalidRule.
func Parse(s string) (*Rule, error) {
	p := &parser{in: s}
	r, err := p.rule()
	if err != nil {
		return nil, err
	}
	return r, nil
}

// MustParse is like Parse but panics on error. It is meant for rules
// compiled into a program.
func MustParse(s string) *Rule {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

type parser struct {
	in  string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Input: p.in, Pos: p.pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.in)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.in[p.pos]
}

func (p *parser) consume(c byte) bool {
	if !p.eof() && p.in[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) rule() (*Rule, error) {
	if p.peek() == ':' {
		return nil, p.errorf("implementation-defined TZ strings are not supported")
	}
	var (
		r   Rule
		err error
	)
	if r.Std.Abbrev, err = p.name(); err != nil {
		return nil, err
	}
	off, err := p.offset(maxZoneHours)
	if err != nil {
		return nil, err
	}
	r.Std.Offset = -off
	if p.eof() {
		return &r, nil
	}

	dst := &DST{}
	if dst.Abbrev, err = p.name(); err != nil {
		return nil, err
	}
	dst.Offset = r.Std.Offset + secondsPerHour
	if c := p.peek(); c == '+' || c == '-' || isDigit(c) {
		if off, err = p.offset(maxZoneHours); err != nil {
			return nil, err
		}
		dst.Offset = -off
	}
	r.DST = dst
	if p.eof() {
		return &r, nil
	}

	if !p.consume(',') {
		return nil, p.errorf("expected ',' before start rule")
	}
	start, err := p.transition()
	if err != nil {
		return nil, err
	}
	if !p.consume(',') {
		return nil, p.errorf("expected ',' before end rule")
	}
	end, err := p.transition()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.errorf("unexpected trailing %q", p.in[p.pos:])
	}
	if dst.Offset == r.Std.Offset {
		return nil, p.errorf("DST offset equals standard offset")
	}
	dst.Schedule = &Schedule{Start: start, End: end}
	return &r, nil
}

// name reads an abbreviation: at least three letters, or any run of
// letters, digits and signs enclosed in angle brackets.
func (p *parser) name() (string, error) {
	start := p.pos
	if p.consume('<') {
		for !p.eof() && p.peek() != '>' {
			c := p.peek()
			if !isAlpha(c) && !isDigit(c) && c != '+' && c != '-' {
				return "", p.errorf("invalid character %q in quoted name", c)
			}
			p.pos++
		}
		name := p.in[start+1 : p.pos]
		if !p.consume('>') {
			return "", p.errorf("unterminated quoted name")
		}
		if len(name) < 3 {
			p.pos = start
			return "", p.errorf("name %q shorter than 3 characters", name)
		}
		return name, nil
	}
	for !p.eof() && isAlpha(p.peek()) {
		p.pos++
	}
	name := p.in[start:p.pos]
	if len(name) < 3 {
		p.pos = start
		return "", p.errorf("name %q shorter than 3 characters", name)
	}
	return name, nil
}

// offset reads [+-]hh[:mm[:ss]] and returns it in seconds, with the sign
// as written.
func (p *parser) offset(maxHours int) (int32, error) {
	neg := false
	if p.consume('-') {
		neg = true
	} else {
		p.consume('+')
	}
	hours, err := p.num(0, maxHours)
	if err != nil {
		return 0, err
	}
	off := hours * secondsPerHour
	if p.consume(':') {
		mins, err := p.num(0, 59)
		if err != nil {
			return 0, err
		}
		off += mins * secondsPerMinute
		if p.consume(':') {
			secs, err := p.num(0, 59)
			if err != nil {
				return 0, err
			}
			off += secs
		}
	}
	if neg {
		off = -off
	}
	return int32(off), nil
}

func (p *parser) transition() (Transition, error) {
	t := Transition{Time: DefaultTime, Clock: Wall}
	switch {
	case p.consume('J'):
		n, err := p.num(1, 365)
		if err != nil {
			return t, err
		}
		t.Day = JulianNoLeap{N: n}
	case p.consume('M'):
		var (
			d   MonthWeekDay
			err error
		)
		if d.Month, err = p.num(1, 12); err != nil {
			return t, err
		}
		if !p.consume('.') {
			return t, p.errorf("expected '.' after month")
		}
		if d.Week, err = p.num(1, 5); err != nil {
			return t, err
		}
		if !p.consume('.') {
			return t, p.errorf("expected '.' after week")
		}
		if d.Weekday, err = p.num(0, 6); err != nil {
			return t, err
		}
		t.Day = d
	case isDigit(p.peek()):
		n, err := p.num(0, 365)
		if err != nil {
			return t, err
		}
		t.Day = Julian{N: n}
	default:
		return t, p.errorf("expected 'J', 'M' or a day number")
	}
	if p.consume('/') {
		off, err := p.offset(maxRuleHours)
		if err != nil {
			return t, err
		}
		t.Time = off
	}
	return t, nil
}

// num reads a decimal number in [min, max].
func (p *parser) num(min, max int) (int, error) {
	start := p.pos
	n := 0
	for !p.eof() && isDigit(p.peek()) {
		n = n*10 + int(p.peek()-'0')
		if n > max {
			digits := p.in[start : p.pos+1]
			p.pos = start
			return 0, p.errorf("number %s out of range [%d, %d]", digits, min, max)
		}
		p.pos++
	}
	if p.pos == start {
		return 0, p.errorf("expected a number")
	}
	if n < min {
		p.pos = start
		return 0, p.errorf("number %d out of range [%d, %d]", n, min, max)
	}
	return n, nil
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
func isAlpha(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

// String returns r in TZ string form. The reference clock of a transition
// has no textual form and is not rendered.
func (r *Rule) String() string {
	var b strings.Builder
	writeName(&b, r.Std.Abbrev)
	writeOffset(&b, -r.Std.Offset)
	if r.DST == nil {
		return b.String()
	}
	writeName(&b, r.DST.Abbrev)
	if r.DST.Offset != r.Std.Offset+secondsPerHour {
		writeOffset(&b, -r.DST.Offset)
	}
	if s := r.DST.Schedule; s != nil {
		for _, t := range []Transition{s.Start, s.End} {
			b.WriteByte(',')
			b.WriteString(t.Day.String())
			if t.Time != DefaultTime {
				b.WriteByte('/')
				writeOffset(&b, t.Time)
			}
		}
	}
	return b.String()
}

func writeName(b *strings.Builder, name string) {
	for i := 0; i < len(name); i++ {
		if !isAlpha(name[i]) {
			b.WriteString("<" + name + ">")
			return
		}
	}
	b.WriteString(name)
}

func writeOffset(b *strings.Builder, sec int32) {
	if sec < 0 {
		b.WriteByte('-')
		sec = -sec
	}
	h, m, s := sec/secondsPerHour, sec%secondsPerHour/secondsPerMinute, sec%secondsPerMinute
	fmt.Fprintf(b, "%d", h)
	if m != 0 || s != 0 {
		fmt.Fprintf(b, ":%02d", m)
	}
	if s != 0 {
		fmt.Fprintf(b, ":%02d", s)
	}
}
