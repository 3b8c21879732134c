package timectrl

import (
	"context"
	"testing"
	"time"
)

func TestFrameClockSetTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFrameClock(start, time.Second, RealTime)

	newNow := start.Add(42 * time.Second)
	fc.SetTime(newNow)

	if got := fc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestFrameClockAcceleratedRunsForDuration(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFrameClock(start, 5*time.Millisecond, Accelerated)

	var seen []time.Time
	fc.AddListener(func(now time.Time) bool {
		seen = append(seen, now)
		return true
	})

	<-fc.Start(context.Background(), 15*time.Millisecond)

	expected := start.Add(15 * time.Millisecond)
	if got := fc.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
	// start frame plus three ticks
	if len(seen) != 4 {
		t.Fatalf("listener saw %d frames, want 4", len(seen))
	}
	if !seen[0].Equal(start) {
		t.Fatalf("first frame = %v, want start %v", seen[0], start)
	}
	if fc.Frames() != 4 {
		t.Fatalf("Frames() = %d, want 4", fc.Frames())
	}
}

func TestFrameClockListenerStops(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFrameClock(start, time.Millisecond, Accelerated)

	calls := 0
	fc.AddListener(func(time.Time) bool {
		calls++
		return calls < 10
	})
	<-fc.Start(context.Background(), 0)

	if calls != 10 {
		t.Fatalf("listener called %d times, want 10", calls)
	}
}

func TestFrameClockHonoursCancel(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFrameClock(start, time.Millisecond, Accelerated)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fc.AddListener(func(time.Time) bool {
		calls++
		if calls == 3 {
			cancel()
		}
		return true
	})

	select {
	case <-fc.Start(ctx, 0):
	case <-time.After(5 * time.Second):
		t.Fatalf("clock did not stop after cancel")
	}
	if calls != 3 {
		t.Fatalf("listener called %d times, want 3", calls)
	}
}

func TestUnitClockFirstCallAnchors(t *testing.T) {
	c := NewUnitClock(10 * time.Millisecond)
	t0 := time.Unix(100, 0)
	if got := c.Elapsed(t0); got != 0 {
		t.Fatalf("first Elapsed = %d, want 0", got)
	}
	if got := c.Elapsed(t0.Add(35 * time.Millisecond)); got != 3 {
		t.Fatalf("Elapsed = %d, want 3", got)
	}
	if got := c.Last(); !got.Equal(t0.Add(30 * time.Millisecond)) {
		t.Fatalf("anchor = %v, want remainder retained", got)
	}
}

func TestUnitClockConservesUnitsAcrossChunking(t *testing.T) {
	unit := DefaultUnit
	deltas := []time.Duration{
		3 * time.Millisecond, 17 * time.Millisecond, 16666 * time.Microsecond,
		1 * time.Microsecond, 250 * time.Millisecond, 9 * time.Millisecond,
		33334 * time.Microsecond, 0, 12 * time.Millisecond,
	}

	c := NewUnitClock(unit)
	now := time.Unix(0, 0)
	c.Anchor(now)

	var consumed int64
	var wall time.Duration
	for _, d := range deltas {
		now = now.Add(d)
		wall += d
		consumed += c.Elapsed(now)
	}

	if want := int64(wall / unit); consumed != want {
		t.Fatalf("consumed %d units, want floor(%v/%v) = %d", consumed, wall, unit, want)
	}
	if c.Total() != consumed {
		t.Fatalf("Total() = %d, want %d", c.Total(), consumed)
	}
}

func TestUnitClockBackwardJumpFloorsAtZero(t *testing.T) {
	c := NewUnitClock(10 * time.Millisecond)
	t0 := time.Unix(100, 0)
	c.Anchor(t0)

	if got := c.Elapsed(t0.Add(-time.Second)); got != 0 {
		t.Fatalf("backward jump = %d units, want 0", got)
	}
	if got := c.Elapsed(t0.Add(-time.Second + 20*time.Millisecond)); got != 2 {
		t.Fatalf("after re-anchor = %d units, want 2", got)
	}
}

func TestUnitClockFastForwardAndDiscard(t *testing.T) {
	c := NewUnitClock(10 * time.Millisecond)
	t0 := time.Unix(100, 0)
	c.Anchor(t0)

	if got := c.FastForward(t0.Add(time.Millisecond), 12); got != 12 {
		t.Fatalf("FastForward = %d, want 12", got)
	}
	c.Discard(t0.Add(5 * time.Second))
	if got := c.Elapsed(t0.Add(5*time.Second + 10*time.Millisecond)); got != 1 {
		t.Fatalf("Elapsed after discard = %d, want 1", got)
	}
	if c.Total() != 13 {
		t.Fatalf("Total = %d, want 13", c.Total())
	}
}

func TestNewUnitClockDefaultsUnit(t *testing.T) {
	if got := NewUnitClock(0).Unit(); got != DefaultUnit {
		t.Fatalf("Unit() = %v, want %v", got, DefaultUnit)
	}
}
