package condition

import (
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/model"
)

func evaluate(w *state.World, p model.Predicate, subject, direct *state.Object) bool {
	switch p := p.(type) {
	case model.Score:
		a := w.Admiral(w.ResolvePlayer(p.Player, subject))
		return a != nil && p.Op.Compare(a.Score(p.Which), p.Value)

	case model.Owner:
		return subject != nil && subject.Owner == w.ResolvePlayer(p.Player, subject)

	case model.Destroyed:
		i, ok := p.Initial.Index()
		return ok && w.InitialObject(i) == nil

	case model.Time:
		return p.Op.Compare(w.Time, p.Units)

	case model.Health:
		return p.Op.Compare(healthPercent(subject), p.Percent)

	case model.Ships:
		who := w.ResolvePlayer(p.Player, subject)
		if w.Admiral(who) == nil {
			return false
		}
		return p.Op.Compare(int64(w.ShipsLeft(who)), p.Value)

	case model.Cash:
		a := w.Admiral(w.ResolvePlayer(p.Player, subject))
		return a != nil && p.Op.Compare(a.Cash, p.Value)

	case model.Distance:
		if subject == nil || direct == nil {
			return false
		}
		return p.Op.Compare(subject.Location.DistanceSquared(direct.Location), p.Squared)

	case model.Identity:
		if subject == nil {
			return false
		}
		a := w.Admiral(w.PlayerAdmiral)
		return a != nil && a.Flagship == subject.Handle()

	case model.Control:
		if subject == nil {
			return false
		}
		a := w.Admiral(w.PlayerAdmiral)
		return a != nil && a.Control == subject.Handle()

	case model.Target:
		return subject != nil && direct != nil && subject.Dest == direct.Handle()

	case model.Speed:
		if subject == nil {
			return false
		}
		v := subject.Velocity.X.Abs()
		if y := subject.Velocity.Y.Abs(); y > v {
			v = y
		}
		return p.Op.Compare(int64(v), int64(p.Value))

	case model.Message:
		return w.Message == p.ID

	default:
		return false
	}
}

func healthPercent(o *state.Object) int64 {
	if o == nil {
		return 0
	}
	limit := int64(o.MaxHealth())
	if limit <= 0 {
		return 0
	}
	return int64(o.Health) * 100 / limit
}
