package tzrules

import (
	"fmt"
	"time"
)

// OffsetInfo classifies a local date-time. It is one of Regular, Gap and
// Overlap.
type OffsetInfo interface {
	isOffsetInfo()
	String() string
}

// Regular is a local date-time that maps to exactly one instant.
type Regular struct {
	offset Offset
}

func (Regular) isOffsetInfo() {}

// Offset is the only valid offset.
func (r Regular) Offset() Offset { return r.offset }

func (r Regular) String() string { return "Regular(" + r.offset.String() + ")" }

// transitionInfo is shared by Gap and Overlap.
type transitionInfo struct {
	start  int64
	before Offset
	after  Offset
}

// Start is the instant of the transition.
func (t transitionInfo) Start() time.Time { return time.Unix(t.start, 0).UTC() }

// Before is the offset in effect before the transition.
func (t transitionInfo) Before() Offset { return t.before }

// After is the offset in effect from the transition on.
func (t transitionInfo) After() Offset { return t.after }

// Duration is the length of the gap or overlap.
func (t transitionInfo) Duration() time.Duration {
	d := t.after - t.before
	if d < 0 {
		d = -d
	}
	return d.Duration()
}

// Gap is a local date-time skipped when clocks moved forward.
// Before is always less than After.
type Gap struct {
	transitionInfo
}

func (Gap) isOffsetInfo() {}

func (g Gap) String() string {
	return fmt.Sprintf("Gap(%s, %s -> %s)", g.Start().Format(time.RFC3339), g.before, g.after)
}

// Overlap is a local date-time that occurred twice when clocks moved back.
// Before is always greater than After.
type Overlap struct {
	transitionInfo
}

func (Overlap) isOffsetInfo() {}

func (o Overlap) String() string {
	return fmt.Sprintf("Overlap(%s, %s -> %s)", o.Start().Format(time.RFC3339), o.before, o.after)
}

// newOffsetInfo classifies a transition at start from before to after.
// It is the only place Gap and Overlap values are created.
func newOffsetInfo(start int64, before, after Offset) OffsetInfo {
	t := transitionInfo{start: start, before: before, after: after}
	switch {
	case before < after:
		return Gap{t}
	case before > after:
		return Overlap{t}
	default:
		return Regular{offset: before}
	}
}
