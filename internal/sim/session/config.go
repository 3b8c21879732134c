package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/fleetsim/internal/sim/action"
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/timectrl"
)

// ErrInvalidConfig is returned by New for unusable configuration.
var ErrInvalidConfig = errors.New("invalid session config")

// Config tunes the session's cadence and capacities.
type Config struct {
	// UnitDuration is the wall time of one simulation unit.
	UnitDuration time.Duration
	// DecideEveryCycles is the number of units between decision steps.
	DecideEveryCycles int64
	// MaxTimePerCycle caps the units simulated in one motion chunk.
	MaxTimePerCycle int64
	// FastMotionUnits is the number of units a fast-motion frame covers.
	FastMotionUnits int64
	ObjectCapacity  int
	QueueCapacity   int
}

// DefaultConfig returns the stock cadence.
func DefaultConfig() Config {
	return Config{
		UnitDuration:      timectrl.DefaultUnit,
		DecideEveryCycles: 3,
		MaxTimePerCycle:   12,
		FastMotionUnits:   12,
		ObjectCapacity:    state.DefaultObjectCapacity,
		QueueCapacity:     action.DefaultQueueCapacity,
	}
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	switch {
	case c.UnitDuration <= 0:
		return fmt.Errorf("%w: unit duration %s", ErrInvalidConfig, c.UnitDuration)
	case c.DecideEveryCycles < 1:
		return fmt.Errorf("%w: decide every %d cycles", ErrInvalidConfig, c.DecideEveryCycles)
	case c.MaxTimePerCycle < 1:
		return fmt.Errorf("%w: max time per cycle %d", ErrInvalidConfig, c.MaxTimePerCycle)
	case c.FastMotionUnits < 0:
		return fmt.Errorf("%w: fast motion units %d", ErrInvalidConfig, c.FastMotionUnits)
	case c.ObjectCapacity < 1:
		return fmt.Errorf("%w: object capacity %d", ErrInvalidConfig, c.ObjectCapacity)
	case c.QueueCapacity < 1:
		return fmt.Errorf("%w: queue capacity %d", ErrInvalidConfig, c.QueueCapacity)
	}
	return nil
}
