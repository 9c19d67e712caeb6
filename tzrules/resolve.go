package tzrules

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/ngrash/tzoffset/internal/calendar"
	"github.com/ngrash/tzoffset/posixtz"
)

// window bounds the distance between a local date-time and the instant of
// a transition whose gap or overlap can contain it. Offsets stay well
// within a day, so two days cover every real zone.
const window = 2 * calendar.SecondsPerDay

func checkInstant(sec int64) error {
	if y := calendar.YearOf(sec); !calendar.InRange(y) {
		return fmt.Errorf("%w: year %d", ErrOverflow, y)
	}
	return nil
}

// OffsetAt returns the offset in effect at t. At the exact instant of a
// transition the new offset is in effect.
func (r *Rules) OffsetAt(t time.Time) (Offset, error) {
	sec := t.Unix()
	if err := checkInstant(sec); err != nil {
		return 0, err
	}
	return r.offsetAt(sec), nil
}

func (r *Rules) offsetAt(sec int64) Offset {
	if r.fixed {
		return r.fixedOff
	}
	n := len(r.trans)
	if n > 0 && (sec < r.trans[n-1] || r.tail == nil) {
		i := sort.Search(n, func(i int) bool { return r.trans[i] > sec })
		if i == 0 {
			return r.initial
		}
		return r.offsets[i-1]
	}
	return r.tailOffsetAt(sec)
}

// tailChanges returns the recurring transitions of the years around year,
// sorted by instant.
func (r *Rules) tailChanges(year int) []posixtz.Change {
	var changes []posixtz.Change
	for y := year - 1; y <= year+1; y++ {
		changes = append(changes, r.yearChanges(y)...)
	}
	slices.SortStableFunc(changes, func(a, b posixtz.Change) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	return changes
}

func (r *Rules) tailOffsetAt(sec int64) Offset {
	year := calendar.YearOf(sec)
	changes := r.tailChanges(year)
	i := sort.Search(len(changes), func(i int) bool { return changes[i].At > sec })
	switch {
	case i > 0:
		return Offset(changes[i-1].After.Offset)
	case len(changes) > 0:
		return Offset(changes[0].Before.Offset)
	default:
		return Offset(firstZone(r.ruleFor(year), year).Offset)
	}
}

// InfoAt classifies the local date-time d. A Gap or Overlap is reported
// when d falls into the local time range skipped or repeated by a
// transition; otherwise d has a single valid offset.
func (r *Rules) InfoAt(d LocalDateTime) (OffsetInfo, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	local := d.unix()
	if r.fixed {
		return Regular{offset: r.fixedOff}, nil
	}

	var hit OffsetInfo
	r.eachTransitionNear(local, func(at int64, before, after Offset) bool {
		lo, hi := at+int64(before), at+int64(after)
		if lo > hi {
			lo, hi = hi, lo
		}
		if local >= lo && local < hi {
			hit = newOffsetInfo(at, before, after)
			return false
		}
		return true
	})
	if hit != nil {
		return hit, nil
	}
	return Regular{offset: r.regularOffset(local)}, nil
}

// regularOffset resolves a local time that is neither in a gap nor in an
// overlap, starting from the offset at the naive instant.
func (r *Rules) regularOffset(local int64) Offset {
	guess := r.offsetAt(local - int64(r.offsetAt(local)))
	if o := r.offsetAt(local - int64(guess)); o != guess {
		return o
	}
	return guess
}

// eachTransitionNear calls fn for each transition within window of local,
// historical ones first, in instant order, until fn returns false.
func (r *Rules) eachTransitionNear(local int64, fn func(at int64, before, after Offset) bool) {
	n := len(r.trans)
	for i := sort.Search(n, func(i int) bool { return r.trans[i] >= local-window }); i < n && r.trans[i] <= local+window; i++ {
		before := r.initial
		if i > 0 {
			before = r.offsets[i-1]
		}
		if !fn(r.trans[i], before, r.offsets[i]) {
			return
		}
	}
	if r.tail == nil || (n > 0 && local+window < r.trans[n-1]) {
		return
	}
	for _, c := range r.tailChanges(calendar.YearOf(local)) {
		if n > 0 && c.At <= r.trans[n-1] {
			continue
		}
		if c.At < local-window || c.At > local+window || c.Before.Offset == c.After.Offset {
			continue
		}
		if !fn(c.At, Offset(c.Before.Offset), Offset(c.After.Offset)) {
			return
		}
	}
}

// AtLocal resolves d to an instant. In an overlap the preferred offset is
// used if it is one of the two candidates, otherwise the earlier instant.
// In a gap d is moved forward by the length of the gap. The returned time
// carries the offset in effect at that instant.
func (r *Rules) AtLocal(d LocalDateTime, preferred *Offset) (time.Time, error) {
	info, err := r.InfoAt(d)
	if err != nil {
		return time.Time{}, err
	}
	var off Offset
	switch info := info.(type) {
	case Regular:
		off = info.offset
	case Gap:
		off = info.before
	case Overlap:
		off = info.before
		if preferred != nil && *preferred == info.after {
			off = info.after
		}
	}
	sec := d.unix() - int64(off)
	return r.instant(sec, d.Nanosecond), nil
}

// StartOfDay returns the first instant of the given local date. If
// midnight falls into a gap, the day starts when the gap ends.
func (r *Rules) StartOfDay(year int, month time.Month, day int) (time.Time, error) {
	d := LocalDateTime{Year: year, Month: month, Day: day}
	info, err := r.InfoAt(d)
	if err != nil {
		return time.Time{}, err
	}
	if g, ok := info.(Gap); ok {
		return r.instant(g.start, 0), nil
	}
	return r.AtLocal(d, nil)
}

func (r *Rules) instant(sec int64, nsec int) time.Time {
	off := r.offsetAt(sec)
	return time.Unix(sec, int64(nsec)).In(time.FixedZone(off.String(), int(off)))
}

// Change is a transition as reported by NextTransition.
type Change struct {
	At     time.Time
	Before Offset
	After  Offset
}

// NextTransition returns the first transition strictly after t. ok is false
// if the zone never changes its offset after t.
func (r *Rules) NextTransition(t time.Time) (c Change, ok bool, err error) {
	sec := t.Unix()
	if err := checkInstant(sec); err != nil {
		return Change{}, false, err
	}
	if r.fixed {
		return Change{}, false, nil
	}
	n := len(r.trans)
	if i := sort.Search(n, func(i int) bool { return r.trans[i] > sec }); i < n {
		before := r.initial
		if i > 0 {
			before = r.offsets[i-1]
		}
		return Change{At: time.Unix(r.trans[i], 0).UTC(), Before: before, After: r.offsets[i]}, true, nil
	}
	if r.tail == nil {
		return Change{}, false, nil
	}
	// sec is at or after the last historical transition here.
	year := calendar.YearOf(sec)
	for y := year; y <= year+2; y += 2 {
		if !calendar.InRange(y) {
			return Change{}, false, fmt.Errorf("%w: year %d", ErrOverflow, y)
		}
		for _, ch := range r.tailChanges(y) {
			if ch.At > sec && ch.Before.Offset != ch.After.Offset {
				return Change{At: time.Unix(ch.At, 0).UTC(), Before: Offset(ch.Before.Offset), After: Offset(ch.After.Offset)}, true, nil
			}
		}
	}
	return Change{}, false, nil
}
