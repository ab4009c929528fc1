package gjk

import (
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Separation is the result of a distance query between two disjoint shapes.
type Separation struct {
	// Distance is the minimum distance between the shapes.
	Distance float64
	// Normal is the unit vector from shape A's closest point toward shape
	// B's closest point.
	Normal mgl64.Vec2
	// PointA and PointB are the closest world points on each shape.
	PointA mgl64.Vec2
	PointB mgl64.Vec2
}

// Distance computes the separation between two convex shapes. The second
// return value is false when the shapes overlap (distance is undefined) or
// the query failed to converge.
//
// The simplex here is always a segment: each iteration replaces the farther
// endpoint with a support toward the origin, and the witness points are
// reconstructed barycentrically from the closest point on the final segment.
func Distance(shapeA geometry.Convex, tA geometry.Transform, shapeB geometry.Convex, tB geometry.Transform) (Separation, bool) {
	direction := tB.Transformed(shapeB.Center()).Sub(tA.Transformed(shapeA.Center()))
	if direction.Dot(direction) < geometry.Epsilon {
		direction = mgl64.Vec2{1, 0}
	}

	a := Support(shapeA, tA, shapeB, tB, direction)
	b := Support(shapeA, tA, shapeB, tB, direction.Mul(-1))

	for i := 0; i < MaxIterations; i++ {
		p := closestToOrigin(a.Point, b.Point)
		if p.Dot(p) < geometry.Epsilon {
			// the origin lies on the segment: shapes touch or overlap
			return Separation{}, false
		}

		direction = p.Mul(-1)
		c := Support(shapeA, tA, shapeB, tB, direction)

		// progress test: if the new support is no closer to the origin along
		// the search direction, the current segment is the closest feature
		dc := c.Point.Dot(geometry.Normalized(direction))
		da := a.Point.Dot(geometry.Normalized(direction))
		if dc-da < DistanceTolerance {
			normal := geometry.Normalized(direction)
			sep := Separation{
				Distance: p.Len(),
				Normal:   normal,
			}
			sep.PointA, sep.PointB = witnessPoints(a, b)
			return sep, true
		}

		// keep the endpoint nearer the origin
		if a.Point.Dot(a.Point) < b.Point.Dot(b.Point) {
			b = c
		} else {
			a = c
		}
	}
	return Separation{}, false
}

// closestToOrigin returns the point on segment ab closest to the origin.
func closestToOrigin(a, b mgl64.Vec2) mgl64.Vec2 {
	ab := b.Sub(a)
	den := ab.Dot(ab)
	if den < geometry.Epsilon {
		return a
	}
	t := geometry.Clamp(-a.Dot(ab)/den, 0, 1)
	return a.Add(ab.Mul(t))
}

// witnessPoints maps the closest point on the Minkowski segment back onto
// the two shapes using the barycentric coordinate of the projection.
func witnessPoints(a, b MinkowskiPoint) (mgl64.Vec2, mgl64.Vec2) {
	ab := b.Point.Sub(a.Point)
	den := ab.Dot(ab)
	if den < geometry.Epsilon {
		return a.SupportA, a.SupportB
	}
	t := geometry.Clamp(-a.Point.Dot(ab)/den, 0, 1)
	pa := a.SupportA.Add(b.SupportA.Sub(a.SupportA).Mul(t))
	pb := a.SupportB.Add(b.SupportB.Sub(a.SupportB).Mul(t))
	return pa, pb
}
