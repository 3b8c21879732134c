// Package action runs scenario action lists against the world and keeps the
// queue of deferred lists.
package action

import (
	"context"
	"errors"

	"github.com/signalsfoundry/fleetsim/internal/logging"
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/model"
)

// DefaultMaxDepth bounds how deeply action lists may trigger one another
// within a single call.
const DefaultMaxDepth = 64

// Reasons reported to MetricsRecorder.ActionDropped.
const (
	DropQueueFull   = "queue_full"
	DropStale       = "stale"
	DropNoFreeSlots = "no_free_slots"
	DropDepth       = "depth"
)

// Notifier receives presentation side effects. None of them feed back into
// the simulation.
type Notifier interface {
	PlaySound(id, volume int32, at model.Point, absolute bool)
	MakeSparks(count, speed int32, hue uint8, at model.Point)
	DisplayMessage(id, pages int)
	ColorFlash(length int32, color, shade uint8)
	DeclareWinner(admiral, nextLevel int, text string)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) PlaySound(int32, int32, model.Point, bool)   {}
func (NopNotifier) MakeSparks(int32, int32, uint8, model.Point) {}
func (NopNotifier) DisplayMessage(int, int)                     {}
func (NopNotifier) ColorFlash(int32, uint8, uint8)              {}
func (NopNotifier) DeclareWinner(int, int, string)              {}

// ConditionControl is the slice of the condition evaluator that actions
// drive.
type ConditionControl interface {
	SetArmed(i int, armed bool)
	Recheck()
}

// MetricsRecorder observes interpreter activity.
type MetricsRecorder interface {
	ActionExecuted(verb string)
	ActionDropped(reason string)
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithNotifier routes presentation effects to n.
func WithNotifier(n Notifier) Option {
	return func(in *Interpreter) {
		if n != nil {
			in.notify = n
		}
	}
}

// WithLogger sets the logger used for dropped work.
func WithLogger(log logging.Logger) Option {
	return func(in *Interpreter) {
		if log != nil {
			in.log = log
		}
	}
}

// WithContext sets the context attached to log records. A logger stored on
// ctx is used when WithLogger is not given.
func WithContext(ctx context.Context) Option {
	return func(in *Interpreter) {
		if ctx != nil {
			in.ctx = ctx
		}
	}
}

// WithMetricsRecorder wires a recorder for executed and dropped actions.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(in *Interpreter) {
		in.metrics = m
	}
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(in *Interpreter) {
		if depth > 0 {
			in.maxDepth = depth
		}
	}
}

// Interpreter executes action lists. It is driven from the session's
// decision cycle and is not safe for concurrent use.
type Interpreter struct {
	world      *state.World
	queue      *Queue
	conditions ConditionControl
	notify     Notifier
	log        logging.Logger
	ctx        context.Context
	metrics    MetricsRecorder

	depth    int
	maxDepth int
}

// NewInterpreter returns an interpreter bound to world. A nil queue gets a
// default-capacity one.
func NewInterpreter(world *state.World, queue *Queue, opts ...Option) *Interpreter {
	if queue == nil {
		queue = NewQueue(DefaultQueueCapacity)
	}
	in := &Interpreter{
		world:    world,
		queue:    queue,
		notify:   NopNotifier{},
		ctx:      context.Background(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(in)
		}
	}
	if in.log == nil {
		in.log = logging.LoggerFromContext(in.ctx)
	}
	if in.log == nil {
		in.log = logging.Noop()
	}
	return in
}

// AttachConditions connects the condition evaluator so arm-conditions and
// score changes reach it.
func (in *Interpreter) AttachConditions(c ConditionControl) { in.conditions = c }

// World returns the world the interpreter mutates.
func (in *Interpreter) World() *state.World { return in.world }

// Queue returns the deferred action queue.
func (in *Interpreter) Queue() *Queue { return in.queue }

// Exec runs the action list r now. Actions carrying a delay move themselves
// and the rest of the list to the queue.
func (in *Interpreter) Exec(r model.ActionRange, subject, direct state.Handle, offset model.Point) {
	in.run(r, subject, direct, offset, true)
}

// Add defers r by delay units. A non-positive delay runs it immediately.
func (in *Interpreter) Add(r model.ActionRange, delay int64, subject, direct state.Handle, offset model.Point) error {
	if delay <= 0 {
		in.Exec(r, subject, direct, offset)
		return nil
	}
	return in.enqueue(r, delay, subject, direct, offset)
}

// Execute charges units against every queued list and fires the ones that
// came due, in insertion order. Lists whose subject or direct object has
// been freed since they were queued are dropped. It returns the number of
// lists fired.
func (in *Interpreter) Execute(units int64) int {
	current := in.queue.begin(units)
	kept := current[:0]
	fired := 0
	for _, p := range current {
		if p.Remaining > 0 {
			kept = append(kept, p)
			continue
		}
		in.queue.release()
		if !in.live(p.Subject) || !in.live(p.Direct) {
			in.drop(DropStale, logging.Int("first", p.Actions.First))
			continue
		}
		// The first action's delay has already been served.
		in.run(p.Actions, p.Subject, p.Direct, p.Offset, false)
		fired++
	}
	in.queue.finish(kept)
	return fired
}

func (in *Interpreter) live(h state.Handle) bool {
	return h.None() || in.world.Objects.Resolve(h) != nil
}

func (in *Interpreter) enqueue(r model.ActionRange, delay int64, subject, direct state.Handle, offset model.Point) error {
	err := in.queue.push(Pending{
		Actions:   r,
		Remaining: delay,
		Subject:   subject,
		Direct:    direct,
		Offset:    offset,
	})
	if err != nil {
		in.drop(DropQueueFull, logging.Int("first", r.First), logging.Int64("delay", delay))
	}
	return err
}

func (in *Interpreter) drop(reason string, fields ...logging.Field) {
	in.log.Debug(in.ctx, "action dropped", append([]logging.Field{logging.String("reason", reason)}, fields...)...)
	if in.metrics != nil {
		in.metrics.ActionDropped(reason)
	}
}

// run walks r. allowDelay is false only for the first action of a list
// taken off the queue.
func (in *Interpreter) run(r model.ActionRange, subjectH, directH state.Handle, offset model.Point, allowDelay bool) {
	actions := in.world.Catalog.Actions(r)
	if len(actions) == 0 {
		return
	}
	if in.depth >= in.maxDepth {
		in.drop(DropDepth, logging.Int("first", r.First))
		return
	}
	in.depth++
	defer func() { in.depth-- }()

	objects := in.world.Objects
	recheck := false
	for i := range actions {
		a := &actions[i]
		if a.Verb == nil || a.Verb.Kind() == model.VerbNoAction {
			break
		}

		sh, dh := subjectH, directH
		if a.SubjectOverride != model.NoInitial {
			sh = in.world.InitialHandle(a.SubjectOverride)
		}
		if a.DirectOverride != model.NoInitial {
			dh = in.world.InitialHandle(a.DirectOverride)
		}

		if a.Delay > 0 && allowDelay {
			_ = in.enqueue(r.Tail(i), a.Delay, sh, dh, offset)
			break
		}
		allowDelay = true

		subject := objects.Resolve(sh)
		direct := objects.Resolve(dh)

		focus := direct
		if a.Reflexive || direct == nil {
			focus = subject
		}

		if subject != nil && direct != nil && !a.OwnersPass(subject.Owner, direct.Owner) {
			continue
		}
		if a.Filtered() && (direct == nil || !a.Matches(direct.Attributes, direct.LevelKeyTag())) {
			continue
		}

		rc, handled := in.apply(a, focus, subject, direct, offset)
		if !handled {
			continue
		}
		recheck = recheck || rc
		if in.metrics != nil {
			in.metrics.ActionExecuted(a.Verb.Kind().String())
		}
	}

	if recheck && in.conditions != nil {
		in.conditions.Recheck()
	}
}

// Spawn creates an object from template base and runs its create actions.
// It returns nil when the spawn was dropped.
func (in *Interpreter) Spawn(base, owner int, at model.Point, vel model.FixedPoint, direction int32) *state.Object {
	o := in.allocate(base, owner, at, vel, direction)
	if o == nil {
		return nil
	}
	in.created(o)
	return o
}

func (in *Interpreter) allocate(base, owner int, at model.Point, vel model.FixedPoint, direction int32) *state.Object {
	o, err := in.world.Spawn(base, owner, at, vel, direction)
	if err != nil {
		if errors.Is(err, state.ErrNoFreeSlots) {
			in.drop(DropNoFreeSlots, logging.Int("base", base))
		} else {
			in.log.Warn(in.ctx, "spawn failed", logging.Int("base", base), logging.Err(err))
		}
		return nil
	}
	return o
}

func (in *Interpreter) created(o *state.Object) {
	if o.Base != nil {
		in.run(o.Base.OnCreate, o.Handle(), state.Handle{}, model.Point{}, true)
	}
}

// CreateInitial brings initial object i into play unless it is already
// live. Flagships become their admiral's flagship and controlled ship.
func (in *Interpreter) CreateInitial(i int) *state.Object {
	if o := in.world.InitialObject(i); o != nil {
		return o
	}
	initial, ok := in.world.Catalog.Initial(i)
	if !ok {
		return nil
	}
	base, ok := initial.Base.Index()
	if !ok {
		return nil
	}
	o := in.allocate(base, initial.Owner, initial.Location, model.FixedPoint{}, 0)
	if o == nil {
		return nil
	}
	o.Initial = model.Initial(i)
	in.world.Initials[i] = o.Handle()
	if a := in.world.Admiral(o.Owner); a != nil && initial.Flagship {
		a.Flagship = o.Handle()
		a.Control = o.Handle()
		if o.Owner == in.world.PlayerAdmiral {
			o.Attributes |= model.AttrIsPlayerShip
		}
	}
	in.created(o)
	return o
}

// Destroy runs o's destroy actions and removes it.
func (in *Interpreter) Destroy(o *state.Object) {
	if o == nil || !o.Active || o.Dying {
		return
	}
	o.Dying = true
	if a := in.world.Admiral(o.Owner); a != nil && o.Attributes.Has(model.AttrIsShip) {
		a.Losses++
	}
	if o.Base != nil {
		in.run(o.Base.OnDestroy, o.Handle(), state.Handle{}, model.Point{}, true)
	}
	in.world.Remove(o)
}

// Expire runs o's expire actions and removes it.
func (in *Interpreter) Expire(o *state.Object) {
	if o == nil || !o.Active || o.Dying {
		return
	}
	o.Dying = true
	if o.Base != nil {
		in.run(o.Base.OnExpire, o.Handle(), state.Handle{}, model.Point{}, true)
	}
	in.world.Remove(o)
}

// Collide runs o's collide actions against other.
func (in *Interpreter) Collide(o, other *state.Object) {
	if o == nil || o.Base == nil || !o.Active {
		return
	}
	in.run(o.Base.OnCollide, o.Handle(), other.Handle(), model.Point{}, true)
}

// Activate runs o's periodic activate actions.
func (in *Interpreter) Activate(o *state.Object) {
	if o == nil || o.Base == nil || !o.Active {
		return
	}
	in.run(o.Base.OnActivate, o.Handle(), o.Target, model.Point{}, true)
}

// FireWeapon runs the activate actions of the weapon mounted in slot with
// o as subject and o's target as direct object.
func (in *Interpreter) FireWeapon(o *state.Object, slot model.WeaponSlot) bool {
	if o == nil || !o.Active {
		return false
	}
	tmpl, _, ok := in.world.Catalog.Base(o.Weapon(slot))
	if !ok || tmpl.OnActivate.Empty() {
		return false
	}
	in.run(tmpl.OnActivate, o.Handle(), o.Target, model.Point{}, true)
	return true
}
