package geometry

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Circle is a circle with a local center offset.
type Circle struct {
	center mgl64.Vec2
	radius float64
}

// NewCircle creates a circle of the given radius centered at the local
// origin.
func NewCircle(radius float64) (*Circle, error) {
	return NewCircleAt(mgl64.Vec2{}, radius)
}

// NewCircleAt creates a circle of the given radius at a local center.
func NewCircleAt(center mgl64.Vec2, radius float64) (*Circle, error) {
	if radius <= 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("circle: radius must be positive, got %v", radius)
	}
	if !IsValidVec(center) {
		return nil, fmt.Errorf("circle: center is not finite: %v", center)
	}
	return &Circle{center: center, radius: radius}, nil
}

func (c *Circle) Center() mgl64.Vec2 {
	return c.center
}

// CircleRadius returns the circle's own radius.
func (c *Circle) CircleRadius() float64 {
	return c.radius
}

func (c *Circle) Radius(center mgl64.Vec2) float64 {
	return c.center.Sub(center).Len() + c.radius
}

func (c *Circle) Project(axis mgl64.Vec2, transform Transform) Interval {
	center := transform.Transformed(c.center)
	d := center.Dot(axis)
	return Interval{Min: d - c.radius, Max: d + c.radius}
}

func (c *Circle) Support(direction mgl64.Vec2) mgl64.Vec2 {
	return c.center.Add(Normalized(direction).Mul(c.radius))
}

func (c *Circle) FarthestPoint(direction mgl64.Vec2, transform Transform) mgl64.Vec2 {
	center := transform.Transformed(c.center)
	return center.Add(Normalized(direction).Mul(c.radius))
}

// FarthestFeature for a circle is always a vertex; a circle has no flat
// edges to clip against.
func (c *Circle) FarthestFeature(direction mgl64.Vec2, transform Transform) Feature {
	return NewVertexFeature(c.FarthestPoint(direction, transform), NotIndexed)
}

func (c *Circle) CreateAABB(transform Transform) AABB {
	center := transform.Transformed(c.center)
	r := mgl64.Vec2{c.radius, c.radius}
	return AABB{Min: center.Sub(r), Max: center.Add(r)}
}

// CreateMass uses m = ρπr² and I = m·r²/2 about the center.
func (c *Circle) CreateMass(density float64) Mass {
	mass := density * math.Pi * c.radius * c.radius
	inertia := mass * c.radius * c.radius * 0.5
	m, _ := NewMass(c.center, mass, inertia)
	return m
}

func (c *Circle) Raycast(ray Ray, maxLength float64, transform Transform) (RaycastResult, bool) {
	center := transform.Transformed(c.center)

	// Solve |o + t·d − c|² = r² for the smallest non-negative t.
	m := ray.Origin.Sub(center)
	b := m.Dot(ray.Direction)
	cc := m.Dot(m) - c.radius*c.radius
	if cc > 0 && b > 0 {
		return RaycastResult{}, false
	}
	disc := b*b - cc
	if disc < 0 {
		return RaycastResult{}, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		// origin inside the circle: no entry hit
		return RaycastResult{}, false
	}
	if maxLength > 0 && t > maxLength {
		return RaycastResult{}, false
	}
	point := ray.Origin.Add(ray.Direction.Mul(t))
	return RaycastResult{
		Point:    point,
		Normal:   Normalized(point.Sub(center)),
		Distance: t,
	}, true
}
