// Package session drives a scenario: it turns wall-clock frames into
// simulation units, runs motion in bounded chunks and performs a decision
// step every DecideEveryCycles units.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/fleetsim/internal/logging"
	"github.com/signalsfoundry/fleetsim/internal/replay"
	"github.com/signalsfoundry/fleetsim/internal/sim/action"
	"github.com/signalsfoundry/fleetsim/internal/sim/condition"
	"github.com/signalsfoundry/fleetsim/internal/sim/input"
	"github.com/signalsfoundry/fleetsim/internal/sim/random"
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/kb"
	"github.com/signalsfoundry/fleetsim/model"
	"github.com/signalsfoundry/fleetsim/timectrl"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNoScenario is returned by New without a catalog.
var ErrNoScenario = errors.New("session: no scenario")

// State is the session's top-level mode.
type State int

const (
	StatePlaying State = iota
	StatePaused
	StatePlayAgain
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StatePlayAgain:
		return "play-again"
	case StateGameOver:
		return "game-over"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is how a finished session ended.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLoss
	OutcomeQuit
	OutcomeRestart
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	case OutcomeQuit:
		return "quit"
	case OutcomeRestart:
		return "restart"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// PlayAgainChoice answers the play-again prompt.
type PlayAgainChoice int

const (
	ChoiceResume PlayAgainChoice = iota
	ChoiceRestart
	ChoiceQuit
	ChoiceSkip
)

// Status summarises one Step or Advance call.
type Status struct {
	State     State
	Outcome   Outcome
	Units     int64
	Decisions int
}

// Option configures a Session.
type Option func(*options)

type options struct {
	cfg       Config
	motion    Motion
	pilot     Pilot
	helm      Helm
	notify    action.Notifier
	log       logging.Logger
	metrics   MetricsRecorder
	seed      *uint32
	replay    *replay.Data
	sessionID string
}

func WithConfig(cfg Config) Option          { return func(o *options) { o.cfg = cfg } }
func WithMotion(m Motion) Option            { return func(o *options) { o.motion = m } }
func WithPilot(p Pilot) Option              { return func(o *options) { o.pilot = p } }
func WithHelm(h Helm) Option                { return func(o *options) { o.helm = h } }
func WithNotifier(n action.Notifier) Option { return func(o *options) { o.notify = n } }
func WithLogger(l logging.Logger) Option    { return func(o *options) { o.log = l } }
func WithSessionID(id string) Option        { return func(o *options) { o.sessionID = id } }

// WithMetricsRecorder wires session, action and condition metrics.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(o *options) { o.metrics = m }
}

// WithSeed fixes the random seed. Without it live sessions seed from the
// wall clock.
func WithSeed(seed uint32) Option {
	return func(o *options) { o.seed = &seed }
}

// WithReplay plays back d: its seed replaces any other and its key stream
// replaces the input source. Fast motion is refused while replaying.
func WithReplay(d *replay.Data) Option {
	return func(o *options) { o.replay = d }
}

// Session is one running scenario. It is owned by a single host goroutine.
type Session struct {
	id      string
	ctx     context.Context
	cfg     Config
	catalog *kb.Catalog
	seed    uint32

	world  *state.World
	queue  *action.Queue
	interp *action.Interpreter
	conds  *condition.Evaluator
	clock  *timectrl.UnitClock

	input      input.Source
	replaying  bool
	replayData *replay.Data
	motion     Motion
	pilot      Pilot
	helm       Helm
	log        logging.Logger
	metrics    MetricsRecorder

	state     State
	resumeTo  State
	outcome   Outcome
	counter   int64
	decisions int64

	fastMotion  bool
	discardNext bool
}

// New builds a session for cat reading keys from src and brings the
// scenario's visible initial objects into play.
func New(cat *kb.Catalog, src input.Source, opts ...Option) (*Session, error) {
	if cat == nil {
		return nil, ErrNoScenario
	}
	o := options{cfg: DefaultConfig()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	if o.log == nil {
		o.log = logging.Noop()
	}
	if o.sessionID == "" {
		o.sessionID = logging.NewSessionID()
	}
	ctx := logging.ContextWithSessionID(context.Background(), o.sessionID)
	ctx, log := logging.WithSessionLogger(ctx, o.log)
	ctx = logging.ContextWithLogger(ctx, log)
	if err := cat.Validate(); err != nil {
		log.Warn(ctx, "scenario has dangling references",
			logging.String("scenario", cat.Scenario().Name),
			logging.Err(err),
		)
	}

	s := &Session{
		id:      o.sessionID,
		ctx:     ctx,
		cfg:     o.cfg,
		catalog: cat,
		clock:   timectrl.NewUnitClock(o.cfg.UnitDuration),
		input:   src,
		motion:  o.motion,
		pilot:   o.pilot,
		helm:    o.helm,
		log:     log,
		metrics: o.metrics,
	}
	switch {
	case o.replay != nil:
		if err := o.replay.Validate(); err != nil {
			return nil, fmt.Errorf("session: replay: %w", err)
		}
		s.seed = o.replay.Seed
		s.input = input.NewReplay(o.replay)
		s.replaying = true
		s.replayData = o.replay
	case o.seed != nil:
		s.seed = *o.seed
	default:
		s.seed = random.NewFromTime(time.Now()).Seed()
	}
	if s.input == nil {
		s.input = input.NewLive(nil)
	}
	if s.motion == nil {
		s.motion = noopMotion{}
	}
	if s.pilot == nil {
		s.pilot = noopPilot{}
	}
	if s.helm == nil {
		s.helm = noopHelm{}
	}

	s.world = state.NewWorld(cat, state.NewStore(o.cfg.ObjectCapacity), random.New(s.seed))
	s.queue = action.NewQueue(o.cfg.QueueCapacity)

	actionOpts := []action.Option{
		action.WithContext(ctx),
		action.WithNotifier(o.notify),
	}
	condOpts := []condition.Option{
		condition.WithContext(ctx),
	}
	if o.metrics != nil {
		actionOpts = append(actionOpts, action.WithMetricsRecorder(o.metrics))
		condOpts = append(condOpts, condition.WithMetricsRecorder(o.metrics))
	}
	s.interp = action.NewInterpreter(s.world, s.queue, actionOpts...)
	s.conds = condition.NewEvaluator(s.world, s.interp, condOpts...)
	s.interp.AttachConditions(s.conds)

	s.construct()
	return s, nil
}

// construct spawns the non-hidden initial objects and links their starting
// destinations.
func (s *Session) construct() {
	_, span := startSpan(s.ctx, "session.construct",
		attribute.Int("scenario.id", s.catalog.Scenario().ID),
		attribute.Int64("seed", int64(s.seed)),
	)
	defer span.End()

	n := s.catalog.InitialCount()
	for i := 0; i < n; i++ {
		initial, _ := s.catalog.Initial(i)
		if initial.Hidden {
			continue
		}
		s.interp.CreateInitial(i)
	}
	for i := 0; i < n; i++ {
		initial, _ := s.catalog.Initial(i)
		o := s.world.InitialObject(i)
		if o == nil || initial.Target == model.NoInitial {
			continue
		}
		if dest := s.world.Objects.Resolve(s.world.InitialHandle(initial.Target)); dest != nil {
			o.Dest = dest.Handle()
			o.DestLocation = dest.Location
		}
	}
	s.log.Info(s.ctx, "scenario constructed",
		logging.String("scenario", s.catalog.Scenario().Name),
		logging.Int("objects", s.world.Objects.ActiveCount()),
		logging.Bool("replay", s.replaying),
	)
}

// Restart rebuilds the scenario from scratch with the original seed. A nil
// src keeps the current input, except that a replay restarts from the
// beginning of its stream.
func (s *Session) Restart(src input.Source) {
	s.world.Random.Reseed(s.seed)
	s.world.Reset()
	s.queue.Reset()
	s.conds.Reset()
	switch {
	case src != nil:
		s.input = src
	case s.replayData != nil:
		s.input = input.NewReplay(s.replayData)
	}
	s.state = StatePlaying
	s.outcome = OutcomeNone
	s.counter = 0
	s.decisions = 0
	s.fastMotion = false
	s.discardNext = true
	s.construct()
}

// ID returns the session identifier used in logs and results.
func (s *Session) ID() string { return s.id }

func (s *Session) World() *state.World              { return s.world }
func (s *Session) Interpreter() *action.Interpreter { return s.interp }
func (s *Session) Conditions() *condition.Evaluator { return s.conds }
func (s *Session) Config() Config                   { return s.cfg }
func (s *Session) Seed() uint32                     { return s.seed }
func (s *Session) Replaying() bool                  { return s.replaying }
func (s *Session) State() State                     { return s.state }
func (s *Session) Outcome() Outcome                 { return s.outcome }
func (s *Session) Decisions() int64                 { return s.decisions }
func (s *Session) Counter() int64                   { return s.counter }

// Step consumes the wall time elapsed since the previous frame.
func (s *Session) Step(now time.Time) Status {
	if s.state != StatePlaying {
		s.clock.Discard(now)
		return Status{State: s.state, Outcome: s.outcome}
	}
	if s.discardNext {
		s.discardNext = false
		s.clock.Discard(now)
		return Status{State: s.state, Outcome: s.outcome}
	}
	var units int64
	if s.fastMotion && !s.replaying {
		units = s.clock.FastForward(now, s.cfg.FastMotionUnits)
	} else {
		units = s.clock.Elapsed(now)
	}
	return s.Advance(units)
}

// Advance simulates units directly, bypassing the clock. It stops early
// when the session leaves the playing state.
func (s *Session) Advance(units int64) Status {
	st := Status{}
	decide := s.cfg.DecideEveryCycles
	for units > 0 && s.state == StatePlaying {
		if s.counter < 0 || s.counter >= decide {
			panic(&state.InvariantError{
				Op:     "session.Advance",
				Detail: fmt.Sprintf("decision counter %d outside [0, %d)", s.counter, decide),
			})
		}
		chunk := units
		if chunk > s.cfg.MaxTimePerCycle {
			chunk = s.cfg.MaxTimePerCycle
		}
		if left := decide - s.counter; chunk > left {
			chunk = left
		}

		s.motion.AdvanceMotion(s.interp, chunk)
		s.world.Time += chunk
		s.motion.DetectCollisions(s.interp)
		s.world.Objects.EndBatch()

		s.counter += chunk
		units -= chunk
		st.Units += chunk
		if s.counter == decide {
			s.decide()
			st.Decisions++
		}
		s.checkGameOver()
	}
	if s.metrics != nil && st.Units > 0 {
		s.metrics.UnitsProcessed(st.Units)
	}
	st.State = s.state
	st.Outcome = s.outcome
	return st
}

func (s *Session) decide() {
	units := s.cfg.DecideEveryCycles
	ctx, span := startSpan(s.ctx, "session.decide", attribute.Int64("decision", s.decisions+1))
	defer span.End()

	s.counter = 0
	s.decisions++

	keys, ok := s.input.Next()
	if !ok {
		s.log.Info(ctx, "input exhausted", logging.Int64("decisions", s.decisions))
		s.finish(OutcomeQuit)
		return
	}
	keys &^= input.KeyBits(s.world.KeyMask)

	s.pilot.ThinkNonPlayer(s.interp, units)
	s.pilot.AdmiralThink(s.interp, units)
	paused := s.helm.ApplyKeys(s.interp, keys, units)
	fired := s.interp.Execute(units)
	triggered := s.conds.EvaluateAll()
	s.world.Objects.EndBatch()

	span.SetAttributes(
		attribute.Int("actions.fired", fired),
		attribute.Int("conditions.fired", triggered),
		attribute.Int("objects.active", s.world.Objects.ActiveCount()),
	)
	if s.metrics != nil {
		s.metrics.DecisionCompleted(s.queue.Len(), s.world.Objects.ActiveCount())
	}
	if paused && s.state == StatePlaying {
		s.state = StatePaused
		s.log.Debug(ctx, "paused by player")
	}
}

func (s *Session) checkGameOver() {
	if !s.world.GameOver || s.state == StateGameOver {
		return
	}
	if s.world.Winner == s.world.PlayerAdmiral {
		s.finish(OutcomeWin)
	} else {
		s.finish(OutcomeLoss)
	}
}

func (s *Session) finish(outcome Outcome) {
	if s.state == StateGameOver {
		return
	}
	s.state = StateGameOver
	s.outcome = outcome
	s.log.Info(s.ctx, "session finished",
		logging.String("outcome", outcome.String()),
		logging.Int64("units", s.world.Time),
		logging.Int64("decisions", s.decisions),
	)
	if s.metrics != nil {
		s.metrics.SessionEnded(outcome.String())
	}
}

// Pause stops the session consuming time.
func (s *Session) Pause() {
	if s.state == StatePlaying {
		s.state = StatePaused
	}
}

// Resume continues a paused session. Time that passed while paused is
// discarded.
func (s *Session) Resume() {
	if s.state == StatePaused {
		s.state = StatePlaying
		s.discardNext = true
	}
}

// OpenPlayAgain shows the play-again prompt, suspending play.
func (s *Session) OpenPlayAgain() {
	if s.state == StatePlaying || s.state == StatePaused {
		s.resumeTo = s.state
		s.state = StatePlayAgain
	}
}

// ResolvePlayAgain answers the prompt. Restart ends the session with
// OutcomeRestart; the host calls Restart to play it again.
func (s *Session) ResolvePlayAgain(choice PlayAgainChoice) Status {
	if s.state != StatePlayAgain {
		return Status{State: s.state, Outcome: s.outcome}
	}
	switch choice {
	case ChoiceResume:
		s.state = s.resumeTo
		s.discardNext = true
	case ChoiceRestart:
		s.finish(OutcomeRestart)
	case ChoiceQuit:
		s.finish(OutcomeQuit)
	case ChoiceSkip:
		s.world.DeclareWinner(s.world.PlayerAdmiral, -1, "")
		s.finish(OutcomeWin)
	}
	return Status{State: s.state, Outcome: s.outcome}
}

// SetFastMotion toggles fast motion. It is refused while replaying so the
// recorded frame cadence cannot be altered.
func (s *Session) SetFastMotion(on bool) bool {
	if s.replaying {
		s.fastMotion = false
		return false
	}
	s.fastMotion = on
	return true
}
