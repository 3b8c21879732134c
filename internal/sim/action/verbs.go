package action

import (
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/model"
)

// BatteryFactor sizes an object's battery as a multiple of its energy
// ceiling.
const BatteryFactor = 5

// apply performs a single verb. recheck reports whether scenario conditions
// must be re-evaluated afterwards; handled is false when the verb had
// nothing to act on.
func (in *Interpreter) apply(a *model.Action, focus, subject, direct *state.Object, offset model.Point) (recheck, handled bool) {
	w := in.world
	switch v := a.Verb.(type) {
	case model.CreateObject:
		if focus == nil {
			return false, false
		}
		in.createObject(v, a.Reflexive, focus, subject, offset)

	case model.PlaySound:
		at := model.Point{}
		if focus != nil {
			at = focus.Location
		}
		id := v.Sound
		if v.Range > 0 {
			id += w.Random.Next(v.Range + 1)
		}
		in.notify.PlaySound(id, v.Volume, at, v.Absolute)

	case model.MakeSparks:
		if focus == nil {
			return false, false
		}
		in.notify.MakeSparks(v.Count, v.Speed, v.Hue, focus.Location)

	case model.Die:
		switch v.How {
		case model.DieExpire:
			in.Expire(subject)
		case model.DieDestroy:
			in.Destroy(subject)
		default:
			w.Remove(focus)
		}

	case model.NilTarget:
		if focus == nil {
			return false, false
		}
		focus.Target = state.Handle{}

	case model.AlterHealth:
		if focus == nil {
			return false, false
		}
		h := int64(focus.Health) + int64(v.Amount)
		if h < 0 {
			focus.Health = 0
			in.Destroy(focus)
			break
		}
		if limit := int64(focus.MaxHealth()); h > limit {
			h = limit
		}
		focus.Health = int32(h)

	case model.AlterEnergy:
		if focus == nil {
			return false, false
		}
		e := int64(focus.Energy) + int64(v.Amount)
		if e < 0 {
			e = 0
		} else if limit := int64(focus.MaxEnergy()); e > limit {
			in.charge(focus, e-limit)
			e = limit
		}
		focus.Energy = int32(e)

	case model.AlterHidden:
		for i := v.First; i < v.First+v.Count; i++ {
			in.CreateInitial(i)
		}

	case model.AlterCloak:
		if focus == nil {
			return false, false
		}
		focus.Cloaked = true

	case model.AlterVelocity:
		if focus == nil {
			return false, false
		}
		burst := model.Rotation(focus.Direction).Scale(v.Speed)
		if v.Relative {
			focus.Velocity = focus.Velocity.Add(burst)
		} else {
			focus.Velocity = burst
		}

	case model.AlterOwner:
		if focus == nil {
			return false, false
		}
		owner := w.ResolvePlayer(v.Player, focus)
		if v.Relative {
			other := subject
			if a.Reflexive && direct != nil {
				other = direct
			}
			if other == nil {
				return false, false
			}
			owner = other.Owner
		}
		in.setOwner(focus, owner)
		return true, true

	case model.ArmConditions:
		if in.conditions != nil {
			for i := v.First; i < v.First+v.Count; i++ {
				in.conditions.SetArmed(i, v.Armed)
			}
		}

	case model.AlterCash:
		admiral := w.ResolvePlayer(v.Player, focus)
		if v.Relative {
			if focus == nil {
				return false, false
			}
			admiral = focus.Owner
		}
		acct := w.Admiral(admiral)
		if acct == nil {
			return false, false
		}
		acct.Pay(v.Amount)

	case model.AlterAge:
		if focus == nil {
			return false, false
		}
		age := v.Minimum + int64(w.Random.Next(v.Range))
		if !v.Relative {
			focus.Age = age
		} else if focus.Age >= 0 {
			focus.Age += age
			if focus.Age < 0 {
				focus.Age = 0
			}
		}

	case model.AlterLocation:
		if focus == nil {
			return false, false
		}
		origin := model.Point{}
		if v.Relative && subject != nil {
			origin = subject.Location
		}
		origin.X += w.Random.Next(v.Range*2) - v.Range
		origin.Y += w.Random.Next(v.Range*2) - v.Range
		focus.Location = origin
		focus.Residual = model.FixedPoint{}

	case model.AlterWeapon:
		if focus == nil {
			return false, false
		}
		ref := v.Base
		if _, _, ok := w.Catalog.Base(ref); !ok {
			ref = model.NoBase
		}
		focus.SetWeapon(v.Slot, ref)

	case model.ChangeScore:
		acct := w.Admiral(w.ResolvePlayer(v.Player, focus))
		if acct == nil {
			return false, false
		}
		acct.AlterScore(v.Which, v.Amount)
		return true, true

	case model.DeclareWinner:
		if w.GameOver {
			return false, false
		}
		winner := w.ResolvePlayer(v.Player, focus)
		w.DeclareWinner(winner, v.NextLevel, v.Text)
		in.notify.DeclareWinner(winner, v.NextLevel, v.Text)

	case model.DisplayMessage:
		w.Message = v.ID
		in.notify.DisplayMessage(v.ID, v.Pages)
		return true, true

	case model.SetDestination:
		if subject == nil || focus == nil {
			return false, false
		}
		subject.Dest = focus.Handle()
		subject.DestLocation = focus.Location

	case model.ActivateWeapon:
		if subject == nil {
			return false, false
		}
		in.FireWeapon(subject, v.Slot)

	case model.ColorFlash:
		in.notify.ColorFlash(v.Length, v.Color, v.Shade)

	case model.EnableKeys:
		w.KeyMask &^= v.Mask

	case model.DisableKeys:
		w.KeyMask |= v.Mask

	default:
		return false, false
	}
	return false, true
}

func (in *Interpreter) createObject(v model.CreateObject, reflexive bool, focus, subject *state.Object, offset model.Point) {
	w := in.world
	tmpl, base, ok := w.Catalog.Base(v.Base)
	if !ok {
		return
	}
	count := v.CountMinimum
	if v.CountRange > 0 {
		count += w.Random.Next(v.CountRange)
	}
	for n := int32(0); n < count; n++ {
		var vel model.FixedPoint
		if v.RelativeVelocity {
			vel = focus.Velocity
		}
		dir := int32(0)
		if v.RelativeDirection {
			dir = focus.Direction
		}
		at := focus.Location.Add(offset)
		if tmpl.Attributes.Has(model.AttrAutoTarget) && subject != nil {
			if t := w.Objects.Resolve(subject.Target); t != nil {
				dir = model.Heading(at, t.Location)
			}
		}
		if d := v.RandomDistance; d > 0 {
			at.X += w.Random.Next(d*2) - d
			at.Y += w.Random.Next(d*2) - d
		}

		o := in.allocate(base, focus.Owner, at, vel, dir)
		if o == nil {
			continue
		}
		o.Target = focus.Target
		if reflexive && tmpl.Attributes.Has(model.AttrCanAcceptDestination) {
			if v.InheritDestination {
				o.Dest = focus.Dest
				o.DestLocation = focus.DestLocation
			} else {
				o.Dest = focus.Handle()
				o.DestLocation = focus.Location
			}
		}
		in.created(o)
	}
}

// charge tops up o's battery. Overflow past the battery ceiling is paid to
// the owner.
func (in *Interpreter) charge(o *state.Object, amount int64) {
	b := int64(o.Battery) + amount
	if limit := int64(o.MaxEnergy()) * BatteryFactor; b > limit {
		if acct := in.world.Admiral(o.Owner); acct != nil {
			acct.Pay(b - limit)
		}
		b = limit
	}
	o.Battery = int32(b)
}

func (in *Interpreter) setOwner(o *state.Object, owner int) {
	if in.world.Admiral(owner) == nil {
		owner = state.NoOwner
	}
	if o.Owner == owner {
		return
	}
	h := o.Handle()
	if prev := in.world.Admiral(o.Owner); prev != nil {
		if prev.Flagship == h {
			prev.Flagship = state.Handle{}
		}
		if prev.Control == h {
			prev.Control = state.Handle{}
		}
	}
	o.Owner = owner
	o.Target = state.Handle{}
	if owner == in.world.PlayerAdmiral {
		if acct := in.world.Admiral(owner); acct != nil && acct.Control.None() && o.Attributes.Has(model.AttrIsShip) {
			acct.Control = h
		}
	}
}
