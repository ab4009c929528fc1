package geometry

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Polygon is a convex polygon with counter-clockwise winding. Winding is
// normalized at construction; edge normals and the area centroid are
// precomputed.
type Polygon struct {
	vertices []mgl64.Vec2
	normals  []mgl64.Vec2
	center   mgl64.Vec2
}

// NewPolygon creates a convex polygon from the given local vertices.
// Vertices may be wound either way; clockwise input is reversed. Fewer than
// three vertices, duplicate or collinear vertices, and non-convex point sets
// are rejected.
func NewPolygon(vertices ...mgl64.Vec2) (*Polygon, error) {
	n := len(vertices)
	if n < 3 {
		return nil, fmt.Errorf("polygon: need at least 3 vertices, got %d", n)
	}
	for i, v := range vertices {
		if !IsValidVec(v) {
			return nil, fmt.Errorf("polygon: vertex %d is not finite: %v", i, v)
		}
	}

	verts := make([]mgl64.Vec2, n)
	copy(verts, vertices)

	area := signedArea(verts)
	if math.Abs(area) < Epsilon {
		return nil, fmt.Errorf("polygon: zero area (collinear or duplicate vertices)")
	}
	if area < 0 {
		// normalize to CCW
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			verts[i], verts[j] = verts[j], verts[i]
		}
	}

	// convexity and degeneracy: every consecutive edge pair must turn left
	for i := 0; i < n; i++ {
		p0 := verts[i]
		p1 := verts[(i+1)%n]
		p2 := verts[(i+2)%n]
		e1 := p1.Sub(p0)
		e2 := p2.Sub(p1)
		if e1.Len() < Epsilon {
			return nil, fmt.Errorf("polygon: duplicate vertices at index %d", i)
		}
		if Cross(e1, e2) < Epsilon {
			return nil, fmt.Errorf("polygon: not convex at vertex %d", (i+1)%n)
		}
	}

	normals := make([]mgl64.Vec2, n)
	for i := 0; i < n; i++ {
		edge := verts[(i+1)%n].Sub(verts[i])
		normals[i] = Normalized(RightNormal(edge))
	}

	return &Polygon{
		vertices: verts,
		normals:  normals,
		center:   areaCentroid(verts),
	}, nil
}

// NewRectangle creates a width × height rectangle centered at the local
// origin.
func NewRectangle(width, height float64) (*Polygon, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("rectangle: dimensions must be positive, got %v x %v", width, height)
	}
	hw, hh := width*0.5, height*0.5
	return NewPolygon(
		mgl64.Vec2{-hw, -hh},
		mgl64.Vec2{hw, -hh},
		mgl64.Vec2{hw, hh},
		mgl64.Vec2{-hw, hh},
	)
}

// NewTriangle creates a triangle from three points.
func NewTriangle(p1, p2, p3 mgl64.Vec2) (*Polygon, error) {
	return NewPolygon(p1, p2, p3)
}

// Vertices returns the CCW vertex list. Callers must not mutate it.
func (p *Polygon) Vertices() []mgl64.Vec2 {
	return p.vertices
}

// Normals returns the outward edge normals. Normal i belongs to the edge
// from vertex i to vertex i+1.
func (p *Polygon) Normals() []mgl64.Vec2 {
	return p.normals
}

func (p *Polygon) Center() mgl64.Vec2 {
	return p.center
}

func (p *Polygon) Radius(center mgl64.Vec2) float64 {
	r := 0.0
	for _, v := range p.vertices {
		r = math.Max(r, v.Sub(center).Len())
	}
	return r
}

func (p *Polygon) Project(axis mgl64.Vec2, transform Transform) Interval {
	d := transform.Transformed(p.vertices[0]).Dot(axis)
	iv := Interval{Min: d, Max: d}
	for _, v := range p.vertices[1:] {
		d = transform.Transformed(v).Dot(axis)
		iv.Min = math.Min(iv.Min, d)
		iv.Max = math.Max(iv.Max, d)
	}
	return iv
}

func (p *Polygon) Support(direction mgl64.Vec2) mgl64.Vec2 {
	best := 0
	bestDot := p.vertices[0].Dot(direction)
	for i := 1; i < len(p.vertices); i++ {
		if d := p.vertices[i].Dot(direction); d > bestDot {
			bestDot = d
			best = i
		}
	}
	return p.vertices[best]
}

func (p *Polygon) FarthestPoint(direction mgl64.Vec2, transform Transform) mgl64.Vec2 {
	local := transform.InverseTransformedR(direction)
	return transform.Transformed(p.Support(local))
}

// FarthestFeature returns the edge containing the farthest vertex whose
// outward normal is nearest to the direction. Of the two edges sharing the
// farthest vertex, the one whose normal has the larger dot product with the
// direction wins; the farthest vertex is recorded as the edge maximum.
func (p *Polygon) FarthestFeature(direction mgl64.Vec2, transform Transform) Feature {
	local := transform.InverseTransformedR(direction)
	n := len(p.vertices)

	best := 0
	bestDot := p.vertices[0].Dot(local)
	for i := 1; i < n; i++ {
		if d := p.vertices[i].Dot(local); d > bestDot {
			bestDot = d
			best = i
		}
	}

	// edge best-1 -> best  has normal index best-1
	// edge best -> best+1  has normal index best
	prev := (best - 1 + n) % n
	max := transform.Transformed(p.vertices[best])

	if p.normals[prev].Dot(local) >= p.normals[best].Dot(local) {
		v1 := transform.Transformed(p.vertices[prev])
		return NewEdgeFeature(v1, max, prev, best, max, best)
	}
	next := (best + 1) % n
	v2 := transform.Transformed(p.vertices[next])
	return NewEdgeFeature(max, v2, best, next, max, best)
}

func (p *Polygon) CreateAABB(transform Transform) AABB {
	v := transform.Transformed(p.vertices[0])
	box := AABB{Min: v, Max: v}
	for _, lv := range p.vertices[1:] {
		v = transform.Transformed(lv)
		box.Min = mgl64.Vec2{math.Min(box.Min.X(), v.X()), math.Min(box.Min.Y(), v.Y())}
		box.Max = mgl64.Vec2{math.Max(box.Max.X(), v.X()), math.Max(box.Max.Y(), v.Y())}
	}
	return box
}

// CreateMass integrates density over the triangles fanned from the origin.
// Standard polygon mass derivation; inertia is reported about the centroid.
func (p *Polygon) CreateMass(density float64) Mass {
	var area, inertia float64
	var center mgl64.Vec2
	n := len(p.vertices)

	for i := 0; i < n; i++ {
		v1 := p.vertices[i]
		v2 := p.vertices[(i+1)%n]
		cross := Cross(v1, v2)
		triArea := 0.5 * cross
		area += triArea
		center = center.Add(v1.Add(v2).Mul(triArea / 3.0))
		// second moment of the triangle (0, v1, v2) about the origin
		inertia += (0.25 / 3.0) * cross * (v1.Dot(v1) + v1.Dot(v2) + v2.Dot(v2))
	}

	center = center.Mul(1.0 / area)
	mass := density * area
	// shift inertia from the origin to the centroid
	inertia = density*inertia - mass*center.Dot(center)

	m, _ := NewMass(center, mass, inertia)
	return m
}

func (p *Polygon) Raycast(ray Ray, maxLength float64, transform Transform) (RaycastResult, bool) {
	// work in local space
	origin := transform.InverseTransformed(ray.Origin)
	dir := transform.InverseTransformedR(ray.Direction)

	tEnter, tExit := 0.0, math.Inf(1)
	if maxLength > 0 {
		tExit = maxLength
	}
	enterIndex := -1
	n := len(p.vertices)

	// slab test against every edge half-plane
	for i := 0; i < n; i++ {
		normal := p.normals[i]
		num := normal.Dot(p.vertices[i].Sub(origin))
		den := normal.Dot(dir)
		if math.Abs(den) < Epsilon {
			if num < 0 {
				return RaycastResult{}, false
			}
			continue
		}
		t := num / den
		if den < 0 {
			if t > tEnter {
				tEnter = t
				enterIndex = i
			}
		} else if t < tExit {
			tExit = t
		}
		if tEnter > tExit {
			return RaycastResult{}, false
		}
	}

	if enterIndex < 0 {
		// started inside
		return RaycastResult{}, false
	}
	point := origin.Add(dir.Mul(tEnter))
	return RaycastResult{
		Point:    transform.Transformed(point),
		Normal:   transform.TransformedR(p.normals[enterIndex]),
		Distance: tEnter,
	}, true
}

func signedArea(vertices []mgl64.Vec2) float64 {
	area := 0.0
	n := len(vertices)
	for i := 0; i < n; i++ {
		area += Cross(vertices[i], vertices[(i+1)%n])
	}
	return 0.5 * area
}

func areaCentroid(vertices []mgl64.Vec2) mgl64.Vec2 {
	var c mgl64.Vec2
	var area float64
	n := len(vertices)
	for i := 0; i < n; i++ {
		v1 := vertices[i]
		v2 := vertices[(i+1)%n]
		tri := 0.5 * Cross(v1, v2)
		area += tri
		c = c.Add(v1.Add(v2).Mul(tri / 3.0))
	}
	return c.Mul(1.0 / area)
}
