package model

import "math"

// sinTable holds sin(d) for whole degrees in Fixed, computed once so every
// platform steers identically.
var sinTable = func() [360]Fixed {
	var t [360]Fixed
	for d := range t {
		t[d] = Fixed(math.Round(math.Sin(float64(d)*math.Pi/180) * float64(FixedOne)))
	}
	return t
}()

// NormalizeAngle folds a heading into [0, 360).
func NormalizeAngle(a int32) int32 {
	a %= 360
	if a < 0 {
		a += 360
	}
	return a
}

// Rotation returns the unit vector for heading dir. Zero degrees points
// along +Y and angles grow clockwise.
func Rotation(dir int32) FixedPoint {
	d := NormalizeAngle(dir)
	return FixedPoint{
		X: sinTable[d],
		Y: sinTable[NormalizeAngle(d+90)],
	}
}

// Heading returns the whole-degree heading from one point toward another.
func Heading(from, to Point) int32 {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	if dx == 0 && dy == 0 {
		return 0
	}
	deg := math.Atan2(dx, dy) * 180 / math.Pi
	return NormalizeAngle(int32(math.Round(deg)))
}
