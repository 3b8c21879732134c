package timectrl

import "time"

// DefaultUnit is one simulation unit: a sixtieth of a second, rounded to
// whole microseconds.
const DefaultUnit = 16667 * time.Microsecond

// UnitClock converts irregular wall-clock frame times into whole simulation
// units. The fractional remainder of each frame is carried into the next one
// by advancing the anchor only by the time actually converted.
type UnitClock struct {
	unit     time.Duration
	last     time.Time
	anchored bool
	total    int64
}

// NewUnitClock returns a clock quantised to unit. Non-positive units fall
// back to DefaultUnit.
func NewUnitClock(unit time.Duration) *UnitClock {
	if unit <= 0 {
		unit = DefaultUnit
	}
	return &UnitClock{unit: unit}
}

// Unit returns the configured unit duration.
func (c *UnitClock) Unit() time.Duration { return c.unit }

// Anchor sets the reference time without reporting any units.
func (c *UnitClock) Anchor(now time.Time) {
	c.last = now
	c.anchored = true
}

// Elapsed returns the whole units between the anchor and now and moves the
// anchor forward by exactly that many units. The first call only anchors.
// A backwards jump reports zero and re-anchors at now.
func (c *UnitClock) Elapsed(now time.Time) int64 {
	if !c.anchored {
		c.Anchor(now)
		return 0
	}
	delta := now.Sub(c.last)
	if delta < 0 {
		c.last = now
		return 0
	}
	units := int64(delta / c.unit)
	c.last = c.last.Add(time.Duration(units) * c.unit)
	c.total += units
	return units
}

// FastForward reports a fixed burst of units regardless of the wall time and
// re-anchors at now.
func (c *UnitClock) FastForward(now time.Time, units int64) int64 {
	if units < 0 {
		units = 0
	}
	c.Anchor(now)
	c.total += units
	return units
}

// Discard drops any wall time accumulated since the anchor.
func (c *UnitClock) Discard(now time.Time) {
	c.Anchor(now)
}

// Total reports every unit handed out since construction.
func (c *UnitClock) Total() int64 { return c.total }

// Last returns the current anchor.
func (c *UnitClock) Last() time.Time { return c.last }
