package kb

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/fleetsim/model"
)

var (
	// ErrInvalidRange indicates an action range that falls outside the table.
	ErrInvalidRange = errors.New("action range out of bounds")
	// ErrUnknownBase indicates a reference to a missing base object.
	ErrUnknownBase = errors.New("base object not found")
	// ErrUnknownInitial indicates a reference to a missing initial object.
	ErrUnknownInitial = errors.New("initial object not found")
	// ErrUnknownCondition indicates a reference to a missing condition.
	ErrUnknownCondition = errors.New("condition not found")
)

// Catalog is the read-only view of a scenario's template tables that the
// simulation core consults while running. Lookups never fail loudly: invalid
// indices yield ok=false or an empty slice so that bad scenario data degrades
// to a no-op.
type Catalog struct {
	scenario *model.Scenario
}

// NewCatalog wraps a scenario. The scenario must not be mutated afterwards.
func NewCatalog(s *model.Scenario) *Catalog {
	if s == nil {
		s = &model.Scenario{}
	}
	return &Catalog{scenario: s}
}

// Scenario returns the underlying scenario.
func (c *Catalog) Scenario() *model.Scenario { return c.scenario }

// BaseObject returns template i.
func (c *Catalog) BaseObject(i int) (*model.BaseObject, bool) {
	if i < 0 || i >= len(c.scenario.BaseObjects) {
		return nil, false
	}
	return &c.scenario.BaseObjects[i], true
}

// Base resolves a BaseRef.
func (c *Catalog) Base(ref model.BaseRef) (*model.BaseObject, int, bool) {
	i, ok := ref.Index()
	if !ok {
		return nil, 0, false
	}
	b, ok := c.BaseObject(i)
	return b, i, ok
}

// Actions returns the actions named by r, or nil when r does not fit the
// action table.
func (c *Catalog) Actions(r model.ActionRange) []model.Action {
	if r.Count <= 0 || r.First < 0 || r.First+r.Count > len(c.scenario.Actions) {
		return nil
	}
	return c.scenario.Actions[r.First : r.First+r.Count]
}

// Initial returns initial object i.
func (c *Catalog) Initial(i int) (*model.InitialObject, bool) {
	if i < 0 || i >= len(c.scenario.Initials) {
		return nil, false
	}
	return &c.scenario.Initials[i], true
}

// InitialCount returns the number of initial objects.
func (c *Catalog) InitialCount() int { return len(c.scenario.Initials) }

// Conditions returns the condition table in declaration order.
func (c *Catalog) Conditions() []model.Condition { return c.scenario.Conditions }

// Players returns the admiral seats.
func (c *Catalog) Players() []model.PlayerSpec { return c.scenario.Players }

// Validate checks every cross-reference in the scenario and reports all
// problems found.
func (c *Catalog) Validate() error {
	s := c.scenario
	var errs []error

	checkRange := func(where string, r model.ActionRange) {
		if r.Count == 0 {
			return
		}
		if r.Count < 0 || r.First < 0 || r.First+r.Count > len(s.Actions) {
			errs = append(errs, fmt.Errorf("%s: [%d,+%d): %w", where, r.First, r.Count, ErrInvalidRange))
		}
	}
	checkBase := func(where string, ref model.BaseRef, required bool) {
		i, ok := ref.Index()
		if !ok {
			if required {
				errs = append(errs, fmt.Errorf("%s: %w", where, ErrUnknownBase))
			}
			return
		}
		if i >= len(s.BaseObjects) {
			errs = append(errs, fmt.Errorf("%s: base %d: %w", where, i, ErrUnknownBase))
		}
	}
	checkInitial := func(where string, ref model.InitialRef) {
		if i, ok := ref.Index(); ok && i >= len(s.Initials) {
			errs = append(errs, fmt.Errorf("%s: initial %d: %w", where, i, ErrUnknownInitial))
		}
	}

	for i := range s.BaseObjects {
		b := &s.BaseObjects[i]
		where := fmt.Sprintf("base %d (%s)", i, b.Name)
		checkRange(where+" create", b.OnCreate)
		checkRange(where+" destroy", b.OnDestroy)
		checkRange(where+" expire", b.OnExpire)
		checkRange(where+" collide", b.OnCollide)
		checkRange(where+" activate", b.OnActivate)
		checkBase(where+" pulse", b.Pulse, false)
		checkBase(where+" beam", b.Beam, false)
		checkBase(where+" special", b.Special, false)
	}
	for i := range s.Actions {
		a := &s.Actions[i]
		where := fmt.Sprintf("action %d", i)
		checkInitial(where+" subject", a.SubjectOverride)
		checkInitial(where+" direct", a.DirectOverride)
		switch v := a.Verb.(type) {
		case model.CreateObject:
			checkBase(where, v.Base, true)
		case model.AlterWeapon:
			checkBase(where, v.Base, false)
		case model.ArmConditions:
			if v.First < 0 || v.First+v.Count > len(s.Conditions) {
				errs = append(errs, fmt.Errorf("%s: [%d,+%d): %w", where, v.First, v.Count, ErrUnknownCondition))
			}
		case model.AlterHidden:
			if v.First < 0 || v.First+v.Count > len(s.Initials) {
				errs = append(errs, fmt.Errorf("%s: [%d,+%d): %w", where, v.First, v.Count, ErrUnknownInitial))
			}
		}
	}
	for i := range s.Initials {
		in := &s.Initials[i]
		where := fmt.Sprintf("initial %d", i)
		checkBase(where, in.Base, true)
		checkInitial(where+" target", in.Target)
	}
	for i := range s.Conditions {
		cond := &s.Conditions[i]
		where := fmt.Sprintf("condition %d (%s)", i, cond.Name)
		checkRange(where, cond.Actions)
		checkInitial(where+" subject", cond.Subject)
		checkInitial(where+" direct", cond.Direct)
		if d, ok := cond.Predicate.(model.Destroyed); ok {
			checkInitial(where+" destroyed", d.Initial)
		}
	}
	return errors.Join(errs...)
}
