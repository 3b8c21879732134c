package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/signalsfoundry/fleetsim/internal/replay"
	"github.com/signalsfoundry/fleetsim/internal/sim/action"
	"github.com/signalsfoundry/fleetsim/internal/sim/input"
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/kb"
	"github.com/signalsfoundry/fleetsim/model"
)

const (
	baseFlagship = iota
	baseDrone
)

const (
	actMessageOne = iota
	actMessageTwo
	actWin
)

func testScenario(conds ...model.Condition) *model.Scenario {
	return &model.Scenario{
		ID:   7,
		Name: "skirmish",
		Players: []model.PlayerSpec{
			{Name: "human", Human: true, Cash: 100},
			{Name: "enemy", Cash: 100},
		},
		BaseObjects: []model.BaseObject{
			baseFlagship: {Name: "flagship", Health: 300, Energy: 100, Attributes: model.AttrIsShip | model.AttrCanTurn},
			baseDrone:    {Name: "drone", Health: 20, Attributes: model.AttrIsShip, Lifetime: 90},
		},
		Actions: []model.Action{
			actMessageOne: {Verb: model.DisplayMessage{ID: 1}},
			actMessageTwo: {Verb: model.DisplayMessage{ID: 2}},
			actWin:        {Verb: model.DeclareWinner{Player: model.You(), NextLevel: 2}},
		},
		Initials: []model.InitialObject{
			{Base: model.Base(baseFlagship), Owner: 0, Flagship: true},
			{Base: model.Base(baseFlagship), Owner: 1, Flagship: true, Location: model.Point{X: 500}},
			{Base: model.Base(baseDrone), Owner: 1, Hidden: true},
		},
		Conditions: conds,
	}
}

func cadence(decide, maxChunk int64) Config {
	cfg := DefaultConfig()
	cfg.UnitDuration = time.Millisecond
	cfg.DecideEveryCycles = decide
	cfg.MaxTimePerCycle = maxChunk
	cfg.ObjectCapacity = 32
	return cfg
}

func newSession(t *testing.T, sc *model.Scenario, src input.Source, opts ...Option) *Session {
	t.Helper()
	s, err := New(kb.NewCatalog(sc), src, append([]Option{WithSeed(42)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

type chunkMotion struct {
	chunks     []int64
	collisions int
}

func (m *chunkMotion) AdvanceMotion(_ *action.Interpreter, units int64) { m.chunks = append(m.chunks, units) }
func (m *chunkMotion) DetectCollisions(*action.Interpreter)             { m.collisions++ }

func TestNewConstructsVisibleInitials(t *testing.T) {
	s := newSession(t, testScenario(), nil)
	w := s.World()
	if w.Objects.ActiveCount() != 2 {
		t.Fatalf("active objects = %d, want 2", w.Objects.ActiveCount())
	}
	if w.InitialObject(2) != nil {
		t.Fatalf("hidden initial was created")
	}
	if w.Flagship(0) == nil || w.Flagship(1) == nil {
		t.Fatalf("flagships not assigned")
	}
	if s.State() != StatePlaying || s.ID() == "" {
		t.Fatalf("state=%s id=%q", s.State(), s.ID())
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New(nil, nil); !errors.Is(err, ErrNoScenario) {
		t.Fatalf("nil catalog error = %v", err)
	}
	_, err := New(kb.NewCatalog(testScenario()), nil, WithConfig(cadence(0, 12)))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("zero cadence error = %v", err)
	}
}

func TestDanglingBaseReferencesAreSkipped(t *testing.T) {
	var log []string
	sc := testScenario(model.Condition{
		Name:      "reinforce",
		Predicate: model.Time{Op: model.OpGE, Units: 0},
		Subject:   model.Initial(0),
		Actions:   model.ActionRange{First: 3, Count: 2},
	})
	sc.Actions = append(sc.Actions,
		model.Action{Verb: model.CreateObject{Base: model.Base(99), CountMinimum: 1}},
		model.Action{Verb: model.DisplayMessage{ID: 3}},
	)
	sc.Initials = append(sc.Initials, model.InitialObject{Base: model.Base(9), Owner: 1})
	if err := kb.NewCatalog(sc).Validate(); !errors.Is(err, kb.ErrUnknownBase) {
		t.Fatalf("Validate = %v, want the dangling bases reported", err)
	}

	s := newSession(t, sc, nil, WithConfig(cadence(3, 12)), WithNotifier(recordingNotifier{log: &log}))
	if n := s.World().Objects.ActiveCount(); n != 2 {
		t.Fatalf("active objects = %d, want 2", n)
	}
	if s.World().InitialObject(3) != nil {
		t.Fatalf("initial with an unknown base was created")
	}

	if st := s.Advance(3); st.State != StatePlaying || st.Units != 3 {
		t.Fatalf("status = %+v, want 3 units of play", st)
	}
	if n := s.World().Objects.ActiveCount(); n != 2 {
		t.Fatalf("active objects after create = %d, want 2", n)
	}
	if fmt.Sprint(log) != "[message 3]" {
		t.Fatalf("notifications = %v, want the action after the dangling create to run", log)
	}
}

func TestNinetyFiveUnitsMakeThreeDecisions(t *testing.T) {
	motion := &chunkMotion{}
	s := newSession(t, testScenario(), nil, WithConfig(cadence(30, 12)), WithMotion(motion))

	st := s.Advance(95)
	if st.Units != 95 || st.Decisions != 3 {
		t.Fatalf("status = %+v, want 95 units and 3 decisions", st)
	}
	if s.Counter() != 5 || s.World().Time != 95 {
		t.Fatalf("counter=%d time=%d, want 5 and 95", s.Counter(), s.World().Time)
	}
	want := []int64{12, 12, 6, 12, 12, 6, 12, 12, 6, 5}
	if fmt.Sprint(motion.chunks) != fmt.Sprint(want) {
		t.Fatalf("chunks = %v, want %v", motion.chunks, want)
	}
	if motion.collisions != len(want) {
		t.Fatalf("collisions ran %d times, want once per chunk", motion.collisions)
	}
}

func TestStepConvertsWallTimeToUnits(t *testing.T) {
	s := newSession(t, testScenario(), nil, WithConfig(cadence(30, 12)))
	t0 := time.Unix(1000, 0)

	if st := s.Step(t0); st.Units != 0 {
		t.Fatalf("first step reported %d units", st.Units)
	}
	st := s.Step(t0.Add(95*time.Millisecond + 400*time.Microsecond))
	if st.Units != 95 || st.Decisions != 3 {
		t.Fatalf("status = %+v", st)
	}
	if st := s.Step(t0.Add(96 * time.Millisecond)); st.Units != 1 {
		t.Fatalf("remainder was lost: %d units", st.Units)
	}
}

func TestDecisionCadenceHoldsForAnyChunking(t *testing.T) {
	const decide = 7
	s := newSession(t, testScenario(), nil, WithConfig(cadence(decide, 5)))
	var total int64
	for i := int64(0); i < 200; i++ {
		n := (i*37 + 11) % 23
		s.Advance(n)
		total += n
		if c := s.Counter(); c < 0 || c >= decide {
			t.Fatalf("counter %d outside [0, %d)", c, decide)
		}
	}
	if s.Decisions() != total/decide {
		t.Fatalf("decisions = %d, want %d", s.Decisions(), total/decide)
	}
	if s.World().Time != total {
		t.Fatalf("time = %d, want %d", s.World().Time, total)
	}
}

type recordingNotifier struct {
	action.NopNotifier
	log *[]string
}

func (n recordingNotifier) DisplayMessage(id, _ int) {
	*n.log = append(*n.log, fmt.Sprintf("message %d", id))
}

type orderPilot struct{ log *[]string }

func (p orderPilot) ThinkNonPlayer(*action.Interpreter, int64) { *p.log = append(*p.log, "think") }
func (p orderPilot) AdmiralThink(*action.Interpreter, int64)   { *p.log = append(*p.log, "admiral") }

type scriptedHelm struct {
	log     *[]string
	pauseAt int
	calls   int
}

func (h *scriptedHelm) ApplyKeys(_ *action.Interpreter, keys input.KeyBits, _ int64) bool {
	h.calls++
	if h.log != nil {
		*h.log = append(*h.log, fmt.Sprintf("helm %b", keys))
	}
	return h.calls == h.pauseAt
}

func TestDecisionStepOrder(t *testing.T) {
	var log []string
	sc := testScenario(model.Condition{
		Name:      "briefing",
		Predicate: model.Time{Op: model.OpGE, Units: 0},
		Actions:   model.ActionRange{First: actMessageTwo, Count: 1},
	})
	keys := input.NewLive(input.KeyReaderFunc(func() input.KeyBits { return input.KeyThrust | input.KeyBeam }))
	s := newSession(t, sc, keys,
		WithConfig(cadence(3, 12)),
		WithPilot(orderPilot{log: &log}),
		WithHelm(&scriptedHelm{log: &log}),
		WithNotifier(recordingNotifier{log: &log}),
	)
	if err := s.Interpreter().Add(model.ActionRange{First: actMessageOne, Count: 1}, 3, state.Handle{}, state.Handle{}, model.Point{}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	s.World().KeyMask = uint32(input.KeyBeam)

	s.Advance(3)
	want := []string{"think", "admiral", fmt.Sprintf("helm %b", input.KeyThrust), "message 1", "message 2"}
	if fmt.Sprint(log) != fmt.Sprint(want) {
		t.Fatalf("order = %v, want %v", log, want)
	}
}

func TestPauseStopsConsumingTime(t *testing.T) {
	helm := &scriptedHelm{pauseAt: 2}
	s := newSession(t, testScenario(), nil, WithConfig(cadence(1, 12)), WithHelm(helm))

	st := s.Advance(10)
	if st.State != StatePaused || st.Units != 2 {
		t.Fatalf("status = %+v, want paused after 2 units", st)
	}

	t0 := time.Unix(50, 0)
	s.Step(t0)
	if st := s.Step(t0.Add(time.Second)); st.Units != 0 {
		t.Fatalf("paused session consumed %d units", st.Units)
	}
	s.Resume()
	if st := s.Step(t0.Add(2 * time.Second)); st.Units != 0 {
		t.Fatalf("time spent paused leaked into play: %d units", st.Units)
	}
	if st := s.Step(t0.Add(2*time.Second + 4*time.Millisecond)); st.Units != 4 || st.State != StatePlaying {
		t.Fatalf("after resume status = %+v", st)
	}
}

func TestReplayExhaustionQuits(t *testing.T) {
	data := &replay.Data{Seed: 9, Items: []replay.Item{{Kind: replay.ItemWait, Value: 2}}}
	s := newSession(t, testScenario(), nil, WithConfig(cadence(1, 12)), WithReplay(data))
	if s.Seed() != 9 {
		t.Fatalf("seed = %d, want the replay's", s.Seed())
	}

	st := s.Advance(5)
	if st.State != StateGameOver || st.Outcome != OutcomeQuit {
		t.Fatalf("status = %+v, want game over by quit", st)
	}
	if st.Units != 3 || s.Decisions() != 3 {
		t.Fatalf("units=%d decisions=%d, want 3 and 3", st.Units, s.Decisions())
	}
}

func TestWinningConditionEndsTheSession(t *testing.T) {
	sc := testScenario(model.Condition{
		Name:      "hold out",
		Predicate: model.Time{Op: model.OpGE, Units: 6},
		Actions:   model.ActionRange{First: actWin, Count: 1},
	})
	s := newSession(t, sc, nil, WithConfig(cadence(3, 12)))

	if st := s.Advance(3); st.State != StatePlaying {
		t.Fatalf("ended early: %+v", st)
	}
	st := s.Advance(30)
	if st.State != StateGameOver || st.Outcome != OutcomeWin {
		t.Fatalf("status = %+v, want a win", st)
	}
	if st.Units != 3 || s.World().NextLevel != 2 {
		t.Fatalf("units=%d next level=%d", st.Units, s.World().NextLevel)
	}
}

func TestPlayAgainChoices(t *testing.T) {
	s := newSession(t, testScenario(), nil, WithConfig(cadence(3, 12)))
	s.Advance(4)

	s.OpenPlayAgain()
	if st := s.Advance(9); st.Units != 0 || st.State != StatePlayAgain {
		t.Fatalf("prompt did not suspend play: %+v", st)
	}
	if st := s.ResolvePlayAgain(ChoiceResume); st.State != StatePlaying {
		t.Fatalf("resume = %+v", st)
	}

	s.OpenPlayAgain()
	if st := s.ResolvePlayAgain(ChoiceSkip); st.Outcome != OutcomeWin || !s.World().GameOver {
		t.Fatalf("skip = %+v", st)
	}

	s.Restart(nil)
	if s.State() != StatePlaying || s.World().Time != 0 || s.World().GameOver {
		t.Fatalf("restart left state=%s time=%d over=%v", s.State(), s.World().Time, s.World().GameOver)
	}
	if s.World().Objects.ActiveCount() != 2 {
		t.Fatalf("restart rebuilt %d objects", s.World().Objects.ActiveCount())
	}

	s.OpenPlayAgain()
	if st := s.ResolvePlayAgain(ChoiceRestart); st.Outcome != OutcomeRestart {
		t.Fatalf("restart choice = %+v", st)
	}
}

func TestFastMotion(t *testing.T) {
	s := newSession(t, testScenario(), nil, WithConfig(cadence(3, 12)))
	if !s.SetFastMotion(true) {
		t.Fatalf("live session refused fast motion")
	}
	t0 := time.Unix(10, 0)
	if st := s.Step(t0); st.Units != 12 {
		t.Fatalf("fast frame = %d units, want 12", st.Units)
	}

	data := &replay.Data{Items: []replay.Item{{Kind: replay.ItemWait, Value: 100}}}
	r := newSession(t, testScenario(), nil, WithConfig(cadence(3, 12)), WithReplay(data))
	if r.SetFastMotion(true) {
		t.Fatalf("replay accepted fast motion")
	}
	r.Step(t0)
	if st := r.Step(t0.Add(2 * time.Millisecond)); st.Units != 2 {
		t.Fatalf("replay frame = %d units, want wall-clock 2", st.Units)
	}
}

func TestCounterOutOfRangePanics(t *testing.T) {
	s := newSession(t, testScenario(), nil, WithConfig(cadence(3, 12)))
	s.counter = 5
	defer func() {
		r := recover()
		var inv *state.InvariantError
		err, ok := r.(error)
		if !ok || !errors.As(err, &inv) {
			t.Fatalf("recovered %v, want *state.InvariantError", r)
		}
	}()
	s.Advance(1)
}
