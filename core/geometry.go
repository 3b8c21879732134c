package core

import (
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/model"
)

// Overlaps reports whether the collision circles of a and b touch.
func Overlaps(a, b *state.Object) bool {
	r := int64(radius(a)) + int64(radius(b))
	return a.Location.DistanceSquared(b.Location) <= r*r
}

func radius(o *state.Object) int32 {
	if o.Base == nil {
		return 0
	}
	return o.Base.Radius
}

// TurnToward rotates dir toward want by at most step degrees, taking the
// shorter way round.
func TurnToward(dir, want, step int32) int32 {
	diff := model.NormalizeAngle(want - dir)
	if diff > 180 {
		diff -= 360
	}
	switch {
	case step <= 0:
		return model.NormalizeAngle(dir)
	case diff > step:
		diff = step
	case diff < -step:
		diff = -step
	}
	return model.NormalizeAngle(dir + diff)
}

// ClampVelocity limits each component of v to limit. A non-positive limit
// leaves v untouched.
func ClampVelocity(v model.FixedPoint, limit model.Fixed) model.FixedPoint {
	if limit <= 0 {
		return v
	}
	return model.FixedPoint{X: clamp(v.X, limit), Y: clamp(v.Y, limit)}
}

func clamp(f, limit model.Fixed) model.Fixed {
	switch {
	case f > limit:
		return limit
	case f < -limit:
		return -limit
	default:
		return f
	}
}

// integrate advances one axis: velocity times units plus the carried
// sub-unit residual. It returns the whole-unit step and the new residual.
func integrate(residual, velocity model.Fixed, units int64) (int32, model.Fixed) {
	total := int64(residual) + int64(velocity)*units
	whole := total >> model.FixedShift
	return int32(whole), model.Fixed(total - whole<<model.FixedShift)
}
