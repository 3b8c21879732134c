package session

import (
	"github.com/signalsfoundry/fleetsim/internal/sim/action"
	"github.com/signalsfoundry/fleetsim/internal/sim/input"
)

// Motion moves objects and resolves contacts for one chunk of units.
type Motion interface {
	AdvanceMotion(in *action.Interpreter, units int64)
	DetectCollisions(in *action.Interpreter)
}

// Pilot is the computer's decision making, run once per decision step.
type Pilot interface {
	ThinkNonPlayer(in *action.Interpreter, units int64)
	AdmiralThink(in *action.Interpreter, units int64)
}

// Helm applies the player's keys to the controlled ship. It reports
// whether the player asked to pause. A pause leaves the session in
// StatePaused until the host calls Session.Resume; hosts that treat pause
// as a one-frame hold resume on the following frame.
type Helm interface {
	ApplyKeys(in *action.Interpreter, keys input.KeyBits, units int64) (paused bool)
}

// MetricsRecorder observes session activity. SessionCollector in the
// observability package implements it.
type MetricsRecorder interface {
	action.MetricsRecorder
	ConditionFired()
	UnitsProcessed(units int64)
	DecisionCompleted(queueDepth, activeObjects int)
	SessionEnded(outcome string)
}

type noopMotion struct{}

func (noopMotion) AdvanceMotion(*action.Interpreter, int64) {}
func (noopMotion) DetectCollisions(*action.Interpreter)     {}

type noopPilot struct{}

func (noopPilot) ThinkNonPlayer(*action.Interpreter, int64) {}
func (noopPilot) AdmiralThink(*action.Interpreter, int64)   {}

type noopHelm struct{}

func (noopHelm) ApplyKeys(*action.Interpreter, input.KeyBits, int64) bool { return false }
