// Package epa implements the Expanding Polytope Algorithm for penetration
// extraction after GJK reports an overlap.
//
// The terminal GJK simplex is grown into a polygon in Minkowski difference
// space: each iteration finds the polygon edge nearest the origin, queries a
// support point along that edge's outward normal, and inserts it. When the
// support stops improving the distance, that edge's normal and distance are
// the minimum translation to separate the shapes.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation
//     on 3D Game Objects" (2001)
package epa

import (
	"fmt"
	"math"
	"sync"

	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxIterations limits polytope expansion. Convergence is typically
	// well under ten iterations for simple shapes.
	MaxIterations = 64

	// ConvergenceTolerance is the minimum distance improvement per
	// expansion; below it the closest edge is accepted as final.
	ConvergenceTolerance = 1e-8

	// maxPolytopeSize bounds the expanding point list.
	maxPolytopeSize = MaxIterations + 3
)

// Penetration is the minimum translation separating two overlapping shapes.
// The normal points from the first shape toward the second; depth is always
// non-negative.
type Penetration struct {
	Normal mgl64.Vec2
	Depth  float64
}

// polytope is the expanding point loop, wound counter-clockwise.
type polytope struct {
	points []mgl64.Vec2
}

var polytopePool = sync.Pool{
	New: func() any {
		return &polytope{points: make([]mgl64.Vec2, 0, maxPolytopeSize)}
	},
}

// Expand computes the penetration for two overlapping shapes from the
// terminal GJK simplex. Degenerate simplices (fewer than three points, or a
// collapsed triangle) are reported as touching contacts with zero depth.
func Expand(shapeA geometry.Convex, tA geometry.Transform, shapeB geometry.Convex, tB geometry.Transform, simplex *gjk.Simplex) (Penetration, error) {
	if simplex.Count < 3 {
		return degeneratePenetration(tA, tB), nil
	}

	poly := polytopePool.Get().(*polytope)
	defer polytopePool.Put(poly)
	poly.points = poly.points[:0]

	// seed with the simplex triangle in CCW order
	a, b, c := simplex.Points[0].Point, simplex.Points[1].Point, simplex.Points[2].Point
	winding := geometry.Cross(b.Sub(a), c.Sub(a))
	if math.Abs(winding) < geometry.Epsilon {
		// collapsed triangle: treat as touching
		return degeneratePenetration(tA, tB), nil
	}
	if winding > 0 {
		poly.points = append(poly.points, a, b, c)
	} else {
		poly.points = append(poly.points, a, c, b)
	}

	for i := 0; i < MaxIterations; i++ {
		index, normal, distance := poly.closestEdge()

		support := gjk.Support(shapeA, tA, shapeB, tB, normal)
		d := support.Point.Dot(normal)

		if d-distance < ConvergenceTolerance || len(poly.points) >= maxPolytopeSize {
			return Penetration{Normal: normal, Depth: d}, nil
		}

		// insert the support between the edge endpoints
		poly.points = append(poly.points, mgl64.Vec2{})
		copy(poly.points[index+2:], poly.points[index+1:])
		poly.points[index+1] = support.Point
	}

	return Penetration{}, fmt.Errorf("epa: no convergence after %d iterations", MaxIterations)
}

// closestEdge returns the polygon edge nearest the origin, its outward
// normal and its distance.
func (p *polytope) closestEdge() (int, mgl64.Vec2, float64) {
	bestIndex := 0
	bestDistance := math.Inf(1)
	var bestNormal mgl64.Vec2

	n := len(p.points)
	for i := 0; i < n; i++ {
		v1 := p.points[i]
		v2 := p.points[(i+1)%n]
		edge := v2.Sub(v1)

		// CCW winding puts the outward normal on the right of the edge
		normal := geometry.Normalized(geometry.RightNormal(edge))
		distance := normal.Dot(v1)

		if distance < 0 {
			// origin numerically outside this edge; flip so the distance
			// stays meaningful
			normal = normal.Mul(-1)
			distance = -distance
		}
		if distance < bestDistance {
			bestDistance = distance
			bestIndex = i
			bestNormal = normal
		}
	}
	return bestIndex, bestNormal, bestDistance
}

// degeneratePenetration builds a zero-depth touching result. The normal is
// estimated from the body centers, falling back to +y when they coincide.
func degeneratePenetration(tA, tB geometry.Transform) Penetration {
	normal := tB.Position.Sub(tA.Position)
	if normal.Dot(normal) < geometry.Epsilon {
		normal = mgl64.Vec2{0, 1}
	}
	return Penetration{Normal: geometry.Normalized(normal), Depth: 0}
}
