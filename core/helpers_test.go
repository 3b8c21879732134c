package core

import (
	"testing"

	"github.com/signalsfoundry/fleetsim/internal/sim/action"
	"github.com/signalsfoundry/fleetsim/internal/sim/random"
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/kb"
	"github.com/signalsfoundry/fleetsim/model"
)

// newInterpreter wires a small world for sc. Capacity stays low so tests
// can reason about slots.
func newInterpreter(t *testing.T, sc *model.Scenario) *action.Interpreter {
	t.Helper()
	if err := kb.NewCatalog(sc).Validate(); err != nil {
		t.Fatalf("scenario invalid: %v", err)
	}
	world := state.NewWorld(kb.NewCatalog(sc), state.NewStore(8), random.New(11))
	return action.NewInterpreter(world, action.NewQueue(16))
}

func spawnAt(t *testing.T, in *action.Interpreter, base, owner int, at model.Point) *state.Object {
	t.Helper()
	o := in.Spawn(base, owner, at, model.FixedPoint{}, 0)
	if o == nil {
		t.Fatalf("Spawn(%d) dropped", base)
	}
	return o
}

func twoPlayers() []model.PlayerSpec {
	return []model.PlayerSpec{
		{Name: "human", Human: true},
		{Name: "enemy"},
	}
}
