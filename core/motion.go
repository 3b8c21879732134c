package core

import (
	"github.com/signalsfoundry/fleetsim/internal/sim/action"
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/model"
)

// Kinematics is the stock motion model: it integrates velocities in fixed
// point, ages objects and fires periodic activations, then resolves
// circle-against-circle contacts.
type Kinematics struct{}

// AdvanceMotion moves every live object by units.
func (Kinematics) AdvanceMotion(in *action.Interpreter, units int64) {
	w := in.World()
	var expired, activated []state.Handle
	w.Objects.Scan(func(o *state.Object) bool {
		var dx, dy int32
		dx, o.Residual.X = integrate(o.Residual.X, o.Velocity.X, units)
		dy, o.Residual.Y = integrate(o.Residual.Y, o.Velocity.Y, units)
		o.Location = o.Location.Add(model.Point{X: dx, Y: dy})

		if o.Age >= 0 {
			o.Age -= units
			if o.Age <= 0 {
				o.Age = 0
				expired = append(expired, o.Handle())
				return true
			}
		}
		if o.Base != nil && o.Base.ActivatePeriod > 0 {
			o.ActivateCountdown -= units
			if o.ActivateCountdown <= 0 {
				o.ActivateCountdown += o.Base.ActivatePeriod
				activated = append(activated, o.Handle())
			}
		}
		return true
	})

	// Action lists run after the scan so objects they spawn do not move in
	// the chunk that created them.
	for _, h := range expired {
		in.Expire(w.Objects.Resolve(h))
	}
	for _, h := range activated {
		in.Activate(w.Objects.Resolve(h))
	}
}

// DetectCollisions runs the collide actions of every pair where one side
// can collide, the other can be hit, the owners differ and the circles
// overlap. Pairs are visited in slot order.
func (Kinematics) DetectCollisions(in *action.Interpreter) {
	w := in.World()
	var live []state.Handle
	w.Objects.Scan(func(o *state.Object) bool {
		if o.Attributes.Has(model.AttrCanCollide) || o.Attributes.Has(model.AttrCanBeHit) {
			live = append(live, o.Handle())
		}
		return true
	})
	for i := 0; i < len(live); i++ {
		for j := i + 1; j < len(live); j++ {
			a := w.Objects.Resolve(live[i])
			b := w.Objects.Resolve(live[j])
			if a == nil || b == nil || a.Owner == b.Owner || !Overlaps(a, b) {
				continue
			}
			if a.Attributes.Has(model.AttrCanCollide) && b.Attributes.Has(model.AttrCanBeHit) {
				in.Collide(a, b)
			}
			if b.Active && a.Active && b.Attributes.Has(model.AttrCanCollide) && a.Attributes.Has(model.AttrCanBeHit) {
				in.Collide(b, a)
			}
		}
	}
}
