// Package gjk implements the Gilbert-Johnson-Keerthi algorithm for convex
// intersection and distance queries in the plane.
//
// GJK decides whether two convex shapes overlap by testing if their
// Minkowski difference contains the origin. A simplex of at most three
// support points is refined toward the origin; in 2D the triangle case is
// terminal. The distance variant walks the simplex edge closest to the
// origin and reports the separation with witness points, which continuous
// collision detection uses for conservative advancement.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the
//     Distance Between Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxIterations caps the refinement loop. Typical convergence is 3-6
	// iterations; hitting the cap indicates a numerical problem and is
	// reported to the caller as a convergence failure.
	MaxIterations = 32

	// DistanceTolerance terminates the distance query when the support in
	// the search direction stops making progress.
	DistanceTolerance = 1e-10
)

// MinkowskiPoint is a support point of the Minkowski difference A − B,
// remembering the contributing world points of both shapes so the distance
// query can reconstruct witness points.
type MinkowskiPoint struct {
	Point    mgl64.Vec2
	SupportA mgl64.Vec2
	SupportB mgl64.Vec2
}

// Simplex holds 1-3 Minkowski difference points. In 2D the progression is
// point, line, triangle; a triangle containing the origin proves overlap.
type Simplex struct {
	Points [3]MinkowskiPoint
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

var simplexPool = sync.Pool{
	New: func() any {
		return &Simplex{}
	},
}

// AcquireSimplex fetches a cleared simplex from the pool.
func AcquireSimplex() *Simplex {
	s := simplexPool.Get().(*Simplex)
	s.Reset()
	return s
}

// ReleaseSimplex returns a simplex to the pool.
func ReleaseSimplex(s *Simplex) {
	simplexPool.Put(s)
}

// Support computes the Minkowski difference support point in the given world
// direction.
func Support(shapeA geometry.Convex, tA geometry.Transform, shapeB geometry.Convex, tB geometry.Transform, direction mgl64.Vec2) MinkowskiPoint {
	a := shapeA.FarthestPoint(direction, tA)
	b := shapeB.FarthestPoint(direction.Mul(-1), tB)
	return MinkowskiPoint{Point: a.Sub(b), SupportA: a, SupportB: b}
}

// Detect reports whether the two shapes overlap. On overlap the simplex is
// the terminal triangle containing the origin, ready to seed EPA. The second
// return value is false when the iteration cap was hit without a decision.
func Detect(shapeA geometry.Convex, tA geometry.Transform, shapeB geometry.Convex, tB geometry.Transform, simplex *Simplex) (bool, bool) {
	// start toward the other shape; a degenerate direction falls back to x
	direction := tB.Transformed(shapeB.Center()).Sub(tA.Transformed(shapeA.Center()))
	if direction.Dot(direction) < geometry.Epsilon {
		direction = mgl64.Vec2{1, 0}
	}

	simplex.Points[0] = Support(shapeA, tA, shapeB, tB, direction)
	simplex.Count = 1
	direction = simplex.Points[0].Point.Mul(-1)

	if direction.Dot(direction) < geometry.Epsilon {
		// first support at the origin: touching
		return true, true
	}

	for i := 0; i < MaxIterations; i++ {
		p := Support(shapeA, tA, shapeB, tB, direction)
		if p.Point.Dot(direction) <= 0 {
			// the new support never crosses the origin: proven disjoint
			return false, true
		}
		simplex.Points[simplex.Count] = p
		simplex.Count++

		if containsOrigin(simplex, &direction) {
			return true, true
		}
	}
	return false, false
}

// containsOrigin refines the simplex toward the origin and reports
// containment. Only the triangle case can return true.
func containsOrigin(simplex *Simplex, direction *mgl64.Vec2) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	}
	return false
}

func line(simplex *Simplex, direction *mgl64.Vec2) bool {
	a := simplex.Points[1]
	b := simplex.Points[0]
	ab := b.Point.Sub(a.Point)
	ao := a.Point.Mul(-1)

	if ab.Dot(ab) < geometry.Epsilon {
		// degenerate segment, keep the newest point
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return ao.Dot(ao) < geometry.Epsilon
	}

	if ab.Dot(ao) <= 0 {
		// Voronoi region of A alone
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return false
	}

	perp := geometry.TripleProduct(ab, ao, ab)
	if perp.Dot(perp) < geometry.Epsilon*geometry.Epsilon {
		// the origin lies on the segment: touching
		return true
	}
	*direction = perp
	return false
}

func triangle(simplex *Simplex, direction *mgl64.Vec2) bool {
	a := simplex.Points[2] // most recent point
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Point.Sub(a.Point)
	ac := c.Point.Sub(a.Point)
	ao := a.Point.Mul(-1)

	abPerp := geometry.TripleProduct(ac, ab, ab)
	acPerp := geometry.TripleProduct(ab, ac, ac)

	if abPerp.Dot(ao) > 0 {
		// outside edge AB, drop C
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = abPerp
		return false
	}
	if acPerp.Dot(ao) > 0 {
		// outside edge AC, drop B
		simplex.Points[0] = c
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = acPerp
		return false
	}
	// inside both edge regions: the triangle contains the origin
	return true
}
