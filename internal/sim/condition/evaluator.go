// Package condition evaluates scenario triggers once per decision cycle and
// fires their action lists.
package condition

import (
	"context"

	"github.com/signalsfoundry/fleetsim/internal/logging"
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/model"
)

// Runner executes an action list immediately.
type Runner interface {
	Exec(r model.ActionRange, subject, direct state.Handle, offset model.Point)
}

// MetricsRecorder observes condition firings.
type MetricsRecorder interface {
	ConditionFired()
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used to trace firings.
func WithLogger(log logging.Logger) Option {
	return func(e *Evaluator) {
		if log != nil {
			e.log = log
		}
	}
}

// WithContext sets the context attached to log records. A logger stored on
// ctx is used when WithLogger is not given.
func WithContext(ctx context.Context) Option {
	return func(e *Evaluator) {
		if ctx != nil {
			e.ctx = ctx
		}
	}
}

// WithMetricsRecorder wires a recorder for firings.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

// Evaluator walks the scenario's conditions in declaration order. A
// condition fires while it is armed and its predicate holds; non-persistent
// conditions disarm when they fire.
type Evaluator struct {
	world   *state.World
	runner  Runner
	conds   []model.Condition
	armed   []bool
	log     logging.Logger
	ctx     context.Context
	metrics MetricsRecorder

	// evaluating is set during a pass so action-triggered rechecks do not
	// start a nested one.
	evaluating bool
}

// NewEvaluator binds the world's scenario conditions to runner and arms
// them per their flags.
func NewEvaluator(world *state.World, runner Runner, opts ...Option) *Evaluator {
	e := &Evaluator{
		world:  world,
		runner: runner,
		conds:  world.Catalog.Conditions(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.log == nil {
		e.log = logging.LoggerFromContext(e.ctx)
	}
	if e.log == nil {
		e.log = logging.Noop()
	}
	e.Reset()
	return e
}

// Reset re-arms every condition that is not disabled.
func (e *Evaluator) Reset() {
	e.armed = make([]bool, len(e.conds))
	for i := range e.conds {
		e.armed[i] = !e.conds[i].Disabled
	}
	e.evaluating = false
}

// Len returns the number of conditions.
func (e *Evaluator) Len() int { return len(e.conds) }

// SetArmed arms or disarms condition i. Unknown indexes are ignored.
func (e *Evaluator) SetArmed(i int, armed bool) {
	if i < 0 || i >= len(e.armed) {
		return
	}
	e.armed[i] = armed
}

// Armed reports whether condition i may still fire.
func (e *Evaluator) Armed(i int) bool {
	if i < 0 || i >= len(e.armed) {
		return false
	}
	return e.armed[i]
}

// EvaluateAll runs one pass and returns the number of conditions fired.
// Actions fired by one condition are visible to the conditions after it.
func (e *Evaluator) EvaluateAll() int {
	if e.evaluating {
		return 0
	}
	e.evaluating = true
	defer func() { e.evaluating = false }()

	fired := 0
	for i := range e.conds {
		if !e.armed[i] {
			continue
		}
		c := &e.conds[i]
		if !e.Holds(i) {
			continue
		}
		if !c.Persistent {
			e.armed[i] = false
		}
		fired++
		e.log.Debug(e.ctx, "condition fired",
			logging.Int("condition", i),
			logging.String("name", c.Name),
			logging.Int64("time", e.world.Time),
		)
		if e.metrics != nil {
			e.metrics.ConditionFired()
		}
		e.runner.Exec(c.Actions, e.world.InitialHandle(c.Subject), e.world.InitialHandle(c.Direct), model.Point{})
	}
	return fired
}

// Recheck runs a pass when called outside one. Actions call it after
// changing state that conditions commonly watch.
func (e *Evaluator) Recheck() {
	if e.evaluating {
		return
	}
	e.EvaluateAll()
}

// Holds evaluates condition i's predicate against the current world.
func (e *Evaluator) Holds(i int) bool {
	if i < 0 || i >= len(e.conds) {
		return false
	}
	c := &e.conds[i]
	w := e.world
	subject := w.InitialObject(initialIndex(c.Subject))
	direct := w.InitialObject(initialIndex(c.Direct))
	return evaluate(w, c.Predicate, subject, direct)
}

func initialIndex(ref model.InitialRef) int {
	i, ok := ref.Index()
	if !ok {
		return -1
	}
	return i
}
