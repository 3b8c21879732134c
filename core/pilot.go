package core

import (
	"github.com/signalsfoundry/fleetsim/internal/sim/action"
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/model"
)

// Pilot flies every thinking object the local player does not control:
// it keeps a target, turns toward it, burns toward it and fires at random
// intervals drawn from the session's random source.
type Pilot struct {
	// FireOdds is the chance, one in FireOdds, that a pilot with a target
	// fires its pulse weapon on a decision step. Zero never fires.
	FireOdds int32
}

// NewPilot returns a pilot that fires one decision in four.
func NewPilot() *Pilot { return &Pilot{FireOdds: 4} }

// ThinkNonPlayer updates every computer-flown object.
func (p *Pilot) ThinkNonPlayer(in *action.Interpreter, units int64) {
	w := in.World()
	controlled := state.Handle{}
	if a := w.Admiral(w.PlayerAdmiral); a != nil {
		controlled = a.Control
	}

	var thinkers []state.Handle
	w.Objects.Scan(func(o *state.Object) bool {
		if o.Attributes.Has(model.AttrCanThink) && o.Handle() != controlled {
			thinkers = append(thinkers, o.Handle())
		}
		return true
	})
	for _, h := range thinkers {
		o := w.Objects.Resolve(h)
		if o == nil {
			continue
		}
		target := w.Objects.Resolve(o.Target)
		if target == nil || target.Owner == o.Owner {
			target = nearestEnemy(w, o)
			if target == nil {
				o.Target = state.Handle{}
				continue
			}
			o.Target = target.Handle()
		}
		if o.Attributes.Has(model.AttrCanTurn) && o.Base != nil {
			step := int32(int64(o.Base.TurnRate) * units)
			o.Direction = TurnToward(o.Direction, model.Heading(o.Location, target.Location), step)
		}
		if o.Base != nil && o.Base.Thrust > 0 {
			burn := model.Rotation(o.Direction).Scale(o.Base.Thrust.Mul(model.FixedFromInt(int32(units))))
			o.Velocity = ClampVelocity(o.Velocity.Add(burn), o.Base.MaxVelocity)
		}
		if p.FireOdds > 0 && w.Random.Next(p.FireOdds) == 0 {
			in.FireWeapon(o, model.WeaponPulse)
		}
	}
}

// AdmiralThink pays each admiral its income once per decision step.
func (p *Pilot) AdmiralThink(in *action.Interpreter, _ int64) {
	w := in.World()
	for i := range w.Admirals {
		if inc := w.Admirals[i].Income; inc != 0 {
			w.Admirals[i].Pay(inc)
		}
	}
}

// nearestEnemy returns the closest hittable ship owned by someone else.
// Ties go to the lower slot.
func nearestEnemy(w *state.World, from *state.Object) *state.Object {
	var best *state.Object
	var bestDist int64
	w.Objects.Scan(func(o *state.Object) bool {
		if o.Owner == from.Owner || o.Owner == state.NoOwner || !o.Attributes.Has(model.AttrIsShip|model.AttrCanBeHit) {
			return true
		}
		d := from.Location.DistanceSquared(o.Location)
		if best == nil || d < bestDist {
			best, bestDist = o, d
		}
		return true
	})
	return best
}
