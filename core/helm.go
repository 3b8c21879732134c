package core

import (
	"github.com/signalsfoundry/fleetsim/internal/sim/action"
	"github.com/signalsfoundry/fleetsim/internal/sim/input"
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/model"
)

// WarpFactor multiplies a ship's top speed while the warp key is held.
const WarpFactor = 4

// Helm applies the player's keys to the ship the player controls.
type Helm struct{}

// ApplyKeys steers, burns and fires the controlled ship. It reports the
// pause key.
func (Helm) ApplyKeys(in *action.Interpreter, keys input.KeyBits, units int64) bool {
	w := in.World()
	a := w.Admiral(w.PlayerAdmiral)
	if a == nil {
		return keys.Has(input.KeyPause)
	}
	ship := w.Objects.Resolve(a.Control)
	if ship == nil || ship.Base == nil {
		return keys.Has(input.KeyPause)
	}
	base := ship.Base

	if ship.Attributes.Has(model.AttrCanTurn) {
		step := int32(int64(base.TurnRate) * units)
		if keys.Has(input.KeyLeft) {
			ship.Direction = model.NormalizeAngle(ship.Direction - step)
		}
		if keys.Has(input.KeyRight) {
			ship.Direction = model.NormalizeAngle(ship.Direction + step)
		}
	}

	burn := base.Thrust.Mul(model.FixedFromInt(int32(units)))
	limit := base.MaxVelocity
	switch {
	case keys.Has(input.KeyWarp):
		limit *= WarpFactor
		ship.Velocity = model.Rotation(ship.Direction).Scale(limit)
	case keys.Has(input.KeyThrust):
		ship.Velocity = ship.Velocity.Add(model.Rotation(ship.Direction).Scale(burn))
	case keys.Has(input.KeyReverse):
		ship.Velocity = model.FixedPoint{
			X: towardZero(ship.Velocity.X, burn),
			Y: towardZero(ship.Velocity.Y, burn),
		}
	}
	ship.Velocity = ClampVelocity(ship.Velocity, limit)

	if keys.Has(input.KeySelectTarget) {
		if next := nextTarget(w, ship); next != nil {
			ship.Target = next.Handle()
			a.Target = ship.Target
		}
	}
	if keys.Has(input.KeyPulse) {
		in.FireWeapon(ship, model.WeaponPulse)
	}
	if keys.Has(input.KeyBeam) {
		in.FireWeapon(ship, model.WeaponBeam)
	}
	if keys.Has(input.KeySpecial) {
		in.FireWeapon(ship, model.WeaponSpecial)
	}
	return keys.Has(input.KeyPause)
}

func towardZero(f, by model.Fixed) model.Fixed {
	switch {
	case f > by:
		return f - by
	case f < -by:
		return f + by
	default:
		return 0
	}
}

// nextTarget cycles through enemy ships in slot order, starting after the
// current target.
func nextTarget(w *state.World, ship *state.Object) *state.Object {
	var first, next *state.Object
	after := -1
	if cur := w.Objects.Resolve(ship.Target); cur != nil {
		after = cur.Slot
	}
	w.Objects.Scan(func(o *state.Object) bool {
		if o.Owner == ship.Owner || !o.Attributes.Has(model.AttrIsShip) {
			return true
		}
		if first == nil {
			first = o
		}
		if o.Slot > after {
			next = o
			return false
		}
		return true
	})
	if next == nil {
		return first
	}
	return next
}
