package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock exposes the current frame time to components that only need to
// read it.
type SimClock interface {
	Now() time.Time
}

// Mode describes how the FrameClock paces frames.
type Mode int

const (
	// RealTime emits one frame per Tick of wall-clock time.
	RealTime Mode = iota
	// Accelerated emits frames back to back, advancing a virtual clock by Tick
	// each time. Headless runs and replays use it to stay deterministic.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "realtime"
}

// FrameListener receives each frame time. Returning false stops the clock.
type FrameListener func(now time.Time) bool

// FrameClock is the host-side frame pump that drives a simulation session.
type FrameClock struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	frames      int64

	listeners []FrameListener
}

// NewFrameClock constructs a frame clock.
func NewFrameClock(start time.Time, tick time.Duration, mode Mode) *FrameClock {
	return &FrameClock{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the time of the most recent frame.
func (fc *FrameClock) Now() time.Time {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.currentTime
}

// SetTime overrides the current frame time.
func (fc *FrameClock) SetTime(t time.Time) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.currentTime = t
}

// Frames reports how many frames have been emitted.
func (fc *FrameClock) Frames() int64 {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.frames
}

// AddListener registers a callback invoked on every frame. Listeners must be
// added before Start.
func (fc *FrameClock) AddListener(fn FrameListener) {
	fc.listeners = append(fc.listeners, fn)
}

// Start pumps frames in a separate goroutine until duration elapses (zero
// means no limit), ctx is cancelled, or a listener returns false. It returns
// a channel that is closed when the clock stops.
func (fc *FrameClock) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		fc.mu.Lock()
		frameTime := fc.StartTime
		fc.currentTime = frameTime
		fc.frames = 0
		fc.mu.Unlock()

		// Deliver the start time so listeners can anchor their clocks.
		if !fc.emit(frameTime) {
			return
		}

		var ticks <-chan time.Time
		if fc.Mode == RealTime {
			ticker := time.NewTicker(fc.Tick)
			defer ticker.Stop()
			ticks = ticker.C
		}

		elapsed := time.Duration(0)
		for {
			if duration > 0 && elapsed >= duration {
				return
			}
			if ticks != nil {
				select {
				case <-ctx.Done():
					return
				case <-ticks:
				}
			} else if ctx.Err() != nil {
				return
			}

			frameTime = frameTime.Add(fc.Tick)
			elapsed += fc.Tick
			if !fc.emit(frameTime) {
				return
			}
		}
	}()
	return done
}

func (fc *FrameClock) emit(t time.Time) bool {
	fc.mu.Lock()
	fc.currentTime = t
	fc.frames++
	fc.mu.Unlock()

	for _, fn := range fc.listeners {
		if !fn(t) {
			return false
		}
	}
	return true
}
