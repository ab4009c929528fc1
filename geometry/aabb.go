package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// NewAABB creates an AABB from min/max corners.
func NewAABB(min, max mgl64.Vec2) AABB {
	return AABB{Min: min, Max: max}
}

// Overlaps checks if two AABBs overlap.
func (a AABB) Overlaps(other AABB) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y()
}

// Contains reports whether other lies entirely inside a.
func (a AABB) Contains(other AABB) bool {
	return other.Min.X() >= a.Min.X() && other.Max.X() <= a.Max.X() &&
		other.Min.Y() >= a.Min.Y() && other.Max.Y() <= a.Max.Y()
}

// ContainsPoint checks if a point is inside the AABB.
func (a AABB) ContainsPoint(point mgl64.Vec2) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y()
}

// Union returns the smallest AABB enclosing both boxes.
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec2{math.Min(a.Min.X(), other.Min.X()), math.Min(a.Min.Y(), other.Min.Y())},
		Max: mgl64.Vec2{math.Max(a.Max.X(), other.Max.X()), math.Max(a.Max.Y(), other.Max.Y())},
	}
}

// Expanded returns the AABB grown by amount on every side.
func (a AABB) Expanded(amount float64) AABB {
	r := mgl64.Vec2{amount, amount}
	return AABB{Min: a.Min.Sub(r), Max: a.Max.Add(r)}
}

// Width returns the extent along x.
func (a AABB) Width() float64 {
	return a.Max.X() - a.Min.X()
}

// Height returns the extent along y.
func (a AABB) Height() float64 {
	return a.Max.Y() - a.Min.Y()
}

// Center returns the midpoint of the box.
func (a AABB) Center() mgl64.Vec2 {
	return a.Min.Add(a.Max).Mul(0.5)
}
