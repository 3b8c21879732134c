package model

import "math"

// FixedShift is the number of fractional bits carried by Fixed values.
const FixedShift = 8

// FixedOne is the Fixed representation of 1.
const FixedOne Fixed = 1 << FixedShift

// Fixed is a signed 24.8 fixed-point scalar used for velocities, thrust and
// other sub-unit quantities. Integer arithmetic keeps replays bit-identical
// across platforms.
type Fixed int32

// FixedFromInt converts a whole number to Fixed.
func FixedFromInt(v int32) Fixed { return Fixed(v << FixedShift) }

// FixedFromFloat rounds f to the nearest Fixed. Only scenario loading uses
// floats; the simulation itself never does.
func FixedFromFloat(f float64) Fixed { return Fixed(math.Round(f * float64(FixedOne))) }

// Int truncates toward negative infinity.
func (f Fixed) Int() int32 { return int32(f) >> FixedShift }

// Mul multiplies two fixed-point values.
func (f Fixed) Mul(g Fixed) Fixed { return Fixed((int64(f) * int64(g)) >> FixedShift) }

// Abs returns |f|.
func (f Fixed) Abs() Fixed {
	if f < 0 {
		return -f
	}
	return f
}

// Point is an integer location in scenario space.
type Point struct {
	X int32
	Y int32
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// MaxRelevantDistance bounds the per-axis separation DistanceSquared squares.
// Two deltas below it always sum to less than math.MaxInt64.
const MaxRelevantDistance int64 = 1 << 31

// DistanceSquared returns the squared Euclidean distance to q, saturating at
// math.MaxInt64 when either axis is MaxRelevantDistance or more apart.
func (p Point) DistanceSquared(q Point) int64 {
	dx := int64(p.X) - int64(q.X)
	dy := int64(p.Y) - int64(q.Y)
	if dx <= -MaxRelevantDistance || dx >= MaxRelevantDistance ||
		dy <= -MaxRelevantDistance || dy >= MaxRelevantDistance {
		return math.MaxInt64
	}
	return dx*dx + dy*dy
}

// FixedPoint is a fixed-point 2D vector (velocity, residual motion).
type FixedPoint struct {
	X Fixed
	Y Fixed
}

// Add returns v + w.
func (v FixedPoint) Add(w FixedPoint) FixedPoint { return FixedPoint{X: v.X + w.X, Y: v.Y + w.Y} }

// Scale multiplies each component by s.
func (v FixedPoint) Scale(s Fixed) FixedPoint { return FixedPoint{X: v.X.Mul(s), Y: v.Y.Mul(s)} }
