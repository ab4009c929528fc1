package geometry

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Segment is a thin line segment between two local points. Segments are
// usually static geometry (floors, walls); their mass treats the segment as
// a thin rod.
type Segment struct {
	p1, p2 mgl64.Vec2
	center mgl64.Vec2
	length float64
	normal mgl64.Vec2
}

// NewSegment creates a segment from two distinct local points.
func NewSegment(p1, p2 mgl64.Vec2) (*Segment, error) {
	if !IsValidVec(p1) || !IsValidVec(p2) {
		return nil, fmt.Errorf("segment: endpoints are not finite: %v, %v", p1, p2)
	}
	d := p2.Sub(p1)
	length := d.Len()
	if length < Epsilon {
		return nil, fmt.Errorf("segment: endpoints coincide at %v", p1)
	}
	return &Segment{
		p1:     p1,
		p2:     p2,
		center: p1.Add(p2).Mul(0.5),
		length: length,
		normal: Normalized(LeftNormal(d)),
	}, nil
}

// Points returns the two endpoints.
func (s *Segment) Points() (mgl64.Vec2, mgl64.Vec2) {
	return s.p1, s.p2
}

// Length returns the segment length.
func (s *Segment) Length() float64 {
	return s.length
}

// Normal returns the left-hand unit normal of the segment.
func (s *Segment) Normal() mgl64.Vec2 {
	return s.normal
}

func (s *Segment) Center() mgl64.Vec2 {
	return s.center
}

func (s *Segment) Radius(center mgl64.Vec2) float64 {
	return math.Max(s.p1.Sub(center).Len(), s.p2.Sub(center).Len())
}

func (s *Segment) Project(axis mgl64.Vec2, transform Transform) Interval {
	d1 := transform.Transformed(s.p1).Dot(axis)
	d2 := transform.Transformed(s.p2).Dot(axis)
	return Interval{Min: math.Min(d1, d2), Max: math.Max(d1, d2)}
}

func (s *Segment) Support(direction mgl64.Vec2) mgl64.Vec2 {
	if s.p1.Dot(direction) >= s.p2.Dot(direction) {
		return s.p1
	}
	return s.p2
}

func (s *Segment) FarthestPoint(direction mgl64.Vec2, transform Transform) mgl64.Vec2 {
	local := transform.InverseTransformedR(direction)
	return transform.Transformed(s.Support(local))
}

// FarthestFeature returns the whole segment as an edge when the direction is
// not aligned with it, otherwise the farthest endpoint as a vertex.
func (s *Segment) FarthestFeature(direction mgl64.Vec2, transform Transform) Feature {
	local := transform.InverseTransformedR(direction)
	d1 := s.p1.Dot(local)
	d2 := s.p2.Dot(local)

	v1 := transform.Transformed(s.p1)
	v2 := transform.Transformed(s.p2)
	if math.Abs(d1-d2) < Epsilon*math.Max(1, s.length) {
		// direction perpendicular to the segment: either endpoint works as
		// the maximum, keep the winding order stable
		return NewEdgeFeature(v1, v2, 0, 1, v2, 1)
	}
	if d1 > d2 {
		return NewVertexFeature(v1, 0)
	}
	return NewVertexFeature(v2, 1)
}

func (s *Segment) CreateAABB(transform Transform) AABB {
	v1 := transform.Transformed(s.p1)
	v2 := transform.Transformed(s.p2)
	return AABB{
		Min: mgl64.Vec2{math.Min(v1.X(), v2.X()), math.Min(v1.Y(), v2.Y())},
		Max: mgl64.Vec2{math.Max(v1.X(), v2.X()), math.Max(v1.Y(), v2.Y())},
	}
}

// CreateMass models the segment as a thin rod: m = ρ·L, I = m·L²/12.
func (s *Segment) CreateMass(density float64) Mass {
	mass := density * s.length
	inertia := mass * s.length * s.length / 12.0
	m, _ := NewMass(s.center, mass, inertia)
	return m
}

func (s *Segment) Raycast(ray Ray, maxLength float64, transform Transform) (RaycastResult, bool) {
	p1 := transform.Transformed(s.p1)
	p2 := transform.Transformed(s.p2)
	e := p2.Sub(p1)

	den := Cross(ray.Direction, e)
	if math.Abs(den) < Epsilon {
		return RaycastResult{}, false
	}
	d := p1.Sub(ray.Origin)
	t := Cross(d, e) / den
	u := Cross(d, ray.Direction) / den
	if t < 0 || u < 0 || u > 1 {
		return RaycastResult{}, false
	}
	if maxLength > 0 && t > maxLength {
		return RaycastResult{}, false
	}
	normal := transform.TransformedR(s.normal)
	if normal.Dot(ray.Direction) > 0 {
		normal = normal.Mul(-1)
	}
	return RaycastResult{
		Point:    ray.Origin.Add(ray.Direction.Mul(t)),
		Normal:   normal,
		Distance: t,
	}, true
}
