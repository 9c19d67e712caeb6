package tzrules

import (
	"fmt"

	"github.com/ngrash/tzoffset/internal/calendar"
	"github.com/ngrash/tzoffset/posixtz"
	"github.com/ngrash/tzoffset/tzif"
)

// Transition is a historical change to Offset at the unix second At.
type Transition struct {
	At     int64
	Offset Offset
}

// Rules resolves offsets for one zone. A Rules value is immutable and safe
// for concurrent use.
type Rules struct {
	// trans holds strictly increasing unix seconds; offsets[i] applies
	// from trans[i] on and initial before trans[0].
	trans   []int64
	offsets []Offset
	initial Offset

	// tail extends history. In recurring mode it is the rule for years
	// not covered by years.
	tail *posixtz.Rule

	// years overrides tail per year. Years before the first or after the
	// last key use the first or last entry.
	years               map[int]*posixtz.Rule
	firstYear, lastYear int

	fixed    bool
	fixedOff Offset
}

// Fixed returns rules for a zone that always has offset o.
func Fixed(o Offset) *Rules {
	return &Rules{initial: o, fixed: true, fixedOff: o}
}

// New returns rules for a zone with the given history. initial applies
// before the first transition. tail, if not nil, applies from the last
// transition on; without a tail the last offset stays in effect.
// Transitions that do not change the offset are dropped.
func New(initial Offset, history []Transition, tail *posixtz.Rule) (*Rules, error) {
	r := &Rules{initial: initial, tail: tail}
	prev := initial
	for i, t := range history {
		if i > 0 && t.At <= history[i-1].At {
			return nil, fmt.Errorf("%w: transition %d at %d does not follow %d", ErrInvalidRules, i, t.At, history[i-1].At)
		}
		if t.Offset == prev {
			continue
		}
		r.trans = append(r.trans, t.At)
		r.offsets = append(r.offsets, t.Offset)
		prev = t.Offset
	}
	r.setFixed()
	return r, nil
}

// FromTZif returns rules for a parsed TZif file. The footer rule is
// parsed here, so a malformed footer fails construction.
func FromTZif(f *tzif.File) (*Rules, error) {
	if len(f.Types) == 0 {
		return nil, fmt.Errorf("%w: no local time types", ErrInvalidRules)
	}
	history := make([]Transition, len(f.Transitions))
	for i, t := range f.Transitions {
		if int(t.Type) >= len(f.Types) {
			return nil, fmt.Errorf("%w: transition %d references type %d", ErrInvalidRules, i, t.Type)
		}
		history[i] = Transition{At: t.At, Offset: Offset(f.Types[t.Type].Utoff)}
	}
	var tail *posixtz.Rule
	if f.TZString != "" {
		var err error
		if tail, err = posixtz.Parse(f.TZString); err != nil {
			return nil, fmt.Errorf("footer: %w", err)
		}
	}
	return New(Offset(f.Types[0].Utoff), history, tail)
}

// FromPOSIX returns rules that follow a POSIX TZ string for all time.
func FromPOSIX(s string) (*Rules, error) {
	rule, err := posixtz.Parse(s)
	if err != nil {
		return nil, err
	}
	return New(Offset(rule.Std.Offset), nil, rule)
}

// Recurring returns rules without history that follow base, except for the
// years in perYear which follow their own rule. Years before the first and
// after the last key of perYear follow the first and last entry.
func Recurring(base *posixtz.Rule, perYear map[int]*posixtz.Rule) (*Rules, error) {
	if base == nil {
		return nil, fmt.Errorf("%w: missing base rule", ErrInvalidRules)
	}
	r := &Rules{initial: Offset(base.Std.Offset), tail: base}
	if len(perYear) > 0 {
		r.years = make(map[int]*posixtz.Rule, len(perYear))
		first := true
		for y, rule := range perYear {
			if rule == nil {
				return nil, fmt.Errorf("%w: missing rule for %d", ErrInvalidRules, y)
			}
			r.years[y] = rule
			if first || y < r.firstYear {
				r.firstYear = y
			}
			if first || y > r.lastYear {
				r.lastYear = y
			}
			first = false
		}
	}
	r.setFixed()
	return r, nil
}

func (r *Rules) setFixed() {
	if len(r.trans) > 0 || len(r.years) > 0 {
		return
	}
	if r.tail == nil {
		r.fixed, r.fixedOff = true, r.initial
		return
	}
	if z, ok := r.tail.Fixed(); ok {
		r.fixed, r.fixedOff = true, Offset(z.Offset)
	}
}

// IsFixed reports whether the zone has a single offset for all time.
func (r *Rules) IsFixed() bool {
	return r.fixed
}

// FixedOffset returns the offset of a fixed zone. ok is false for zones
// with transitions.
func (r *Rules) FixedOffset() (o Offset, ok bool) {
	return r.fixedOff, r.fixed
}

// Tail returns the rule that extends history, or nil.
func (r *Rules) Tail() *posixtz.Rule {
	return r.tail
}

// ruleFor returns the recurring rule governing year.
func (r *Rules) ruleFor(year int) *posixtz.Rule {
	if len(r.years) == 0 {
		return r.tail
	}
	y := min(max(year, r.firstYear), r.lastYear)
	if rule, ok := r.years[y]; ok {
		return rule
	}
	return r.tail
}

// yearChanges returns the recurring transitions of year. With per-year
// rules a change of rule between years that changes the offset becomes a
// transition at local midnight of January 1.
func (r *Rules) yearChanges(year int) []posixtz.Change {
	rule := r.ruleFor(year)
	changes := rule.TransitionsIn(year)
	if len(r.years) == 0 {
		return changes
	}
	prev := r.ruleFor(year - 1)
	if prev == rule {
		return changes
	}
	from, to := lastZone(prev, year-1), firstZone(rule, year)
	if from.Offset == to.Offset {
		return changes
	}
	newYear := calendar.DaysFromCivil(year, 1, 1)*calendar.SecondsPerDay - int64(from.Offset)
	c := posixtz.Change{At: newYear, Before: from, After: to, ToDST: rule.DST != nil && to == rule.DST.Zone}
	return append([]posixtz.Change{c}, changes...)
}

// firstZone is the zone rule is in when year starts.
func firstZone(rule *posixtz.Rule, year int) posixtz.Zone {
	if z, ok := rule.Fixed(); ok {
		return z
	}
	if c := rule.TransitionsIn(year); len(c) > 0 {
		return c[0].Before
	}
	return rule.Std
}

// lastZone is the zone rule is in when year ends.
func lastZone(rule *posixtz.Rule, year int) posixtz.Zone {
	if z, ok := rule.Fixed(); ok {
		return z
	}
	if c := rule.TransitionsIn(year); len(c) > 0 {
		return c[len(c)-1].After
	}
	return rule.Std
}
