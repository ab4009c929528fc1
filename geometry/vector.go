// Package geometry provides the convex shapes, transforms and mass
// properties used by the simulation core.
//
// All math is float64 via mgl64. The package adds the handful of 2D
// operations mgl64 does not carry: scalar cross products and the vector
// triple product used by the GJK simplex tests.
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the general tolerance for geometric comparisons.
const Epsilon = 1e-9

// Cross returns the z component of the 3D cross product of two 2D vectors.
func Cross(a, b mgl64.Vec2) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// CrossSV returns s × v, the cross product of a scalar (z axis) and a vector.
func CrossSV(s float64, v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-s * v.Y(), s * v.X()}
}

// CrossVS returns v × s.
func CrossVS(v mgl64.Vec2, s float64) mgl64.Vec2 {
	return mgl64.Vec2{s * v.Y(), -s * v.X()}
}

// TripleProduct computes (a × b) × c expanded to 2D.
//
// The result is perpendicular to c, pointing toward the side a and b span.
// GJK uses this to aim the next search direction at the origin.
func TripleProduct(a, b, c mgl64.Vec2) mgl64.Vec2 {
	ac := a.Dot(c)
	bc := b.Dot(c)
	return mgl64.Vec2{b.X()*ac - a.X()*bc, b.Y()*ac - a.Y()*bc}
}

// LeftNormal returns the counter-clockwise perpendicular of v.
func LeftNormal(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-v.Y(), v.X()}
}

// RightNormal returns the clockwise perpendicular of v.
func RightNormal(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{v.Y(), -v.X()}
}

// Normalized returns v scaled to unit length, or the zero vector if v is
// shorter than Epsilon.
func Normalized(v mgl64.Vec2) mgl64.Vec2 {
	l := v.Len()
	if l < Epsilon {
		return mgl64.Vec2{}
	}
	return v.Mul(1.0 / l)
}

// IsValidVec reports whether both components are finite.
func IsValidVec(v mgl64.Vec2) bool {
	return !math.IsNaN(v.X()) && !math.IsInf(v.X(), 0) &&
		!math.IsNaN(v.Y()) && !math.IsInf(v.Y(), 0)
}

// Interval is a 1D projection of a shape onto an axis.
type Interval struct {
	Min, Max float64
}

// Overlaps reports whether two intervals intersect.
func (i Interval) Overlaps(o Interval) bool {
	return i.Min <= o.Max && o.Min <= i.Max
}

// Clamp restricts v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
