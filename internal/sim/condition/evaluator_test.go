package condition

import (
	"testing"

	"github.com/signalsfoundry/fleetsim/internal/sim/action"
	"github.com/signalsfoundry/fleetsim/internal/sim/random"
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/kb"
	"github.com/signalsfoundry/fleetsim/model"
)

type firedCounter struct{ n int }

func (f *firedCounter) ConditionFired() { f.n++ }

const (
	actScore = iota
	actMessage
	actDisarm
)

var testActions = []model.Action{
	actScore:   {Verb: model.ChangeScore{Player: model.You(), Amount: 1}},
	actMessage: {Verb: model.DisplayMessage{ID: 5}},
	actDisarm:  {Verb: model.ArmConditions{First: 1, Count: 1, Armed: false}},
}

func one(i int) model.ActionRange { return model.ActionRange{First: i, Count: 1} }

type harness struct {
	world   *state.World
	in      *action.Interpreter
	eval    *Evaluator
	metrics *firedCounter
}

func newHarness(t *testing.T, conds []model.Condition) *harness {
	t.Helper()
	sc := &model.Scenario{
		Players: []model.PlayerSpec{{Name: "human", Human: true, Cash: 50}, {Name: "enemy"}},
		BaseObjects: []model.BaseObject{
			{Name: "cruiser", Health: 200, Attributes: model.AttrIsShip},
		},
		Actions: testActions,
		Initials: []model.InitialObject{
			{Base: model.Base(0), Owner: 0, Flagship: true},
			{Base: model.Base(0), Owner: 1, Location: model.Point{X: 30, Y: 40}},
			{Base: model.Base(0), Owner: 1, Hidden: true},
		},
		Conditions: conds,
	}
	world := state.NewWorld(kb.NewCatalog(sc), state.NewStore(8), random.New(1))
	in := action.NewInterpreter(world, action.NewQueue(8))
	metrics := &firedCounter{}
	eval := NewEvaluator(world, in, WithMetricsRecorder(metrics))
	in.AttachConditions(eval)
	in.CreateInitial(0)
	in.CreateInitial(1)
	return &harness{world: world, in: in, eval: eval, metrics: metrics}
}

func (h *harness) score() int64 { return h.world.Admirals[0].Score(0) }

func always() model.Predicate { return model.Time{Op: model.OpGE, Units: 0} }

func TestFireOnceConditionFiresExactlyOnce(t *testing.T) {
	h := newHarness(t, []model.Condition{
		{Name: "bonus", Predicate: always(), Actions: one(actScore)},
	})
	for i := 0; i < 3; i++ {
		h.eval.EvaluateAll()
	}
	if h.score() != 1 {
		t.Fatalf("score = %d, want 1", h.score())
	}
	if h.eval.Armed(0) {
		t.Fatalf("fired condition is still armed")
	}
	if h.metrics.n != 1 {
		t.Fatalf("metrics saw %d firings, want 1", h.metrics.n)
	}
}

func TestPersistentConditionFiresEveryPass(t *testing.T) {
	h := newHarness(t, []model.Condition{
		{Name: "drip", Predicate: always(), Actions: one(actScore), Persistent: true},
	})
	for i := 0; i < 3; i++ {
		if fired := h.eval.EvaluateAll(); fired != 1 {
			t.Fatalf("pass %d fired %d conditions", i, fired)
		}
	}
	if h.score() != 3 {
		t.Fatalf("score = %d, want 3", h.score())
	}
}

func TestDisabledConditionWaitsForArming(t *testing.T) {
	h := newHarness(t, []model.Condition{
		{Name: "later", Predicate: always(), Actions: one(actScore), Disabled: true},
	})
	h.eval.EvaluateAll()
	if h.score() != 0 {
		t.Fatalf("disabled condition fired")
	}
	h.eval.SetArmed(0, true)
	h.eval.EvaluateAll()
	h.eval.EvaluateAll()
	if h.score() != 1 {
		t.Fatalf("score = %d, want 1", h.score())
	}
}

func TestCascadeFollowsDeclarationOrder(t *testing.T) {
	scoreAtLeastOne := model.Score{Player: model.You(), Which: 0, Op: model.OpGE, Value: 1}

	h := newHarness(t, []model.Condition{
		{Name: "score", Predicate: always(), Actions: one(actScore)},
		{Name: "announce", Predicate: scoreAtLeastOne, Actions: one(actMessage)},
	})
	if fired := h.eval.EvaluateAll(); fired != 2 {
		t.Fatalf("forward order fired %d, want 2 in one pass", fired)
	}
	if h.world.Message != 5 {
		t.Fatalf("message = %d, want 5", h.world.Message)
	}

	h = newHarness(t, []model.Condition{
		{Name: "announce", Predicate: scoreAtLeastOne, Actions: one(actMessage)},
		{Name: "score", Predicate: always(), Actions: one(actScore)},
	})
	if fired := h.eval.EvaluateAll(); fired != 1 {
		t.Fatalf("reverse order fired %d, want 1", fired)
	}
	if h.world.Message == 5 {
		t.Fatalf("later condition leaked into an earlier one in the same pass")
	}
	if fired := h.eval.EvaluateAll(); fired != 1 || h.world.Message != 5 {
		t.Fatalf("second pass fired %d, message %d", fired, h.world.Message)
	}
}

func TestScoreChangeOutsideAPassRechecks(t *testing.T) {
	h := newHarness(t, []model.Condition{
		{Name: "announce", Predicate: model.Score{Player: model.You(), Op: model.OpEQ, Value: 1}, Actions: one(actMessage)},
	})
	h.in.Exec(one(actScore), state.Handle{}, state.Handle{}, model.Point{})
	if h.world.Message != 5 {
		t.Fatalf("score change did not trigger a recheck")
	}
}

func TestArmConditionsVerbDisarms(t *testing.T) {
	h := newHarness(t, []model.Condition{
		{Name: "disarm", Predicate: always(), Actions: one(actDisarm)},
		{Name: "never", Predicate: always(), Actions: one(actScore), Persistent: true},
	})
	h.eval.EvaluateAll()
	if h.eval.Armed(1) || h.score() != 0 {
		t.Fatalf("condition 1 armed=%v score=%d", h.eval.Armed(1), h.score())
	}
}

func TestResetRestoresArming(t *testing.T) {
	h := newHarness(t, []model.Condition{
		{Name: "a", Predicate: always(), Actions: one(actScore)},
		{Name: "b", Predicate: always(), Actions: one(actScore), Disabled: true},
	})
	h.eval.EvaluateAll()
	h.eval.SetArmed(1, true)
	h.eval.Reset()
	if !h.eval.Armed(0) || h.eval.Armed(1) {
		t.Fatalf("after reset armed = %v %v, want true false", h.eval.Armed(0), h.eval.Armed(1))
	}
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred model.Predicate
		subj model.InitialRef
		dir  model.InitialRef
		want bool
	}{
		{"owner you", model.Owner{Player: model.You()}, model.Initial(0), model.NoInitial, true},
		{"owner enemy", model.Owner{Player: model.FirstNotYou()}, model.Initial(0), model.NoInitial, false},
		{"destroyed live", model.Destroyed{Initial: model.Initial(1)}, model.NoInitial, model.NoInitial, false},
		{"destroyed hidden", model.Destroyed{Initial: model.Initial(2)}, model.NoInitial, model.NoInitial, true},
		{"health full", model.Health{Op: model.OpEQ, Percent: 100}, model.Initial(0), model.NoInitial, true},
		{"health missing subject", model.Health{Op: model.OpEQ, Percent: 0}, model.Initial(2), model.NoInitial, true},
		{"ships enemy", model.Ships{Player: model.Player(1), Op: model.OpEQ, Value: 1}, model.NoInitial, model.NoInitial, true},
		{"cash", model.Cash{Player: model.You(), Op: model.OpGT, Value: 49}, model.NoInitial, model.NoInitial, true},
		{"distance", model.Distance{Op: model.OpLE, Squared: 2500}, model.Initial(0), model.Initial(1), true},
		{"distance too far", model.Distance{Op: model.OpLT, Squared: 2500}, model.Initial(0), model.Initial(1), false},
		{"identity flagship", model.Identity{}, model.Initial(0), model.NoInitial, true},
		{"identity other", model.Identity{}, model.Initial(1), model.NoInitial, false},
		{"control", model.Control{}, model.Initial(0), model.NoInitial, true},
		{"target unset", model.Target{}, model.Initial(0), model.Initial(1), false},
		{"speed at rest", model.Speed{Op: model.OpEQ, Value: 0}, model.Initial(0), model.NoInitial, true},
		{"message none", model.Message{ID: 5}, model.NoInitial, model.NoInitial, false},
		{"time", model.Time{Op: model.OpLT, Units: 1}, model.NoInitial, model.NoInitial, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, []model.Condition{{Predicate: tc.pred, Subject: tc.subj, Direct: tc.dir}})
			if got := h.eval.Holds(0); got != tc.want {
				t.Fatalf("Holds = %v, want %v", got, tc.want)
			}
		})
	}
	t.Run("distance across the map", func(t *testing.T) {
		h := newHarness(t, []model.Condition{
			{Predicate: model.Distance{Op: model.OpLT, Squared: 2500}, Subject: model.Initial(0), Direct: model.Initial(1)},
			{Predicate: model.Distance{Op: model.OpGT, Squared: 2500}, Subject: model.Initial(0), Direct: model.Initial(1)},
		})
		h.world.InitialObject(0).Location = model.Point{X: -2e9, Y: -2e9}
		h.world.InitialObject(1).Location = model.Point{X: 2e9, Y: 2e9}
		if h.eval.Holds(0) || !h.eval.Holds(1) {
			t.Fatalf("near = %v far = %v, want false true", h.eval.Holds(0), h.eval.Holds(1))
		}
	})
}

func TestTargetPredicateFollowsDestination(t *testing.T) {
	h := newHarness(t, []model.Condition{
		{Predicate: model.Target{}, Subject: model.Initial(0), Direct: model.Initial(1)},
	})
	h.world.InitialObject(0).Dest = h.world.InitialObject(1).Handle()
	if !h.eval.Holds(0) {
		t.Fatalf("target predicate should hold once the destination is set")
	}
}
