// Package manifold turns a penetration normal into 1-2 contact points by
// clipping the incident feature against the reference feature.
//
// The ids attached to each point identify the clipped feature pair and stay
// stable while two bodies slide against each other, which is what lets the
// contact solver warm-start from the previous step's impulses.
package manifold

import (
	"math"

	"github.com/akmonengine/quill/epa"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// PointIdDistance marks points produced without clipping (vertex contacts,
// circle contacts). Those points never match across steps by feature, so
// they warm-start only through the single-point manifold path.
var PointIdDistance = PointId{RefEdge: geometry.NotIndexed, IncEdge: geometry.NotIndexed, ClipIndex: geometry.NotIndexed}

// PointId identifies a manifold point by the features that produced it:
// reference edge index, incident edge index, which clipped vertex, and
// whether the reference/incident roles were swapped.
type PointId struct {
	RefEdge   int
	IncEdge   int
	ClipIndex int
	Flipped   bool
}

// Point is a single contact point in world coordinates.
type Point struct {
	Id    PointId
	Point mgl64.Vec2
	Depth float64
}

// Manifold is the 1- or 2-point contact surface between two shapes. The
// normal points from the second shape toward the first, the direction the
// solver pushes the first body.
type Manifold struct {
	Points []Point
	Normal mgl64.Vec2
}

// Solve builds the manifold for a penetrating pair. The penetration normal
// points from shape1 toward shape2. Returns false when clipping collapses
// (fewer than two surviving points on an edge/edge pair) or no clipped point
// lies behind the reference face; callers treat that step as no contact.
func Solve(p epa.Penetration, shape1 geometry.Convex, t1 geometry.Transform, shape2 geometry.Convex, t2 geometry.Transform) (Manifold, bool) {
	n := p.Normal

	f1 := shape1.FarthestFeature(n, t1)
	f2 := shape2.FarthestFeature(n.Mul(-1), t2)

	// vertex contact: a single point, no clipping
	if f1.Type == geometry.FeatureVertex {
		return Manifold{
			Normal: n.Mul(-1),
			Points: []Point{{Id: PointIdDistance, Point: f1.Point, Depth: p.Depth}},
		}, true
	}
	if f2.Type == geometry.FeatureVertex {
		return Manifold{
			Normal: n.Mul(-1),
			Points: []Point{{Id: PointIdDistance, Point: f2.Point, Depth: p.Depth}},
		}, true
	}

	// Both features are edges. The edge more perpendicular to the
	// penetration normal becomes the reference edge; swapping the roles is
	// recorded in the ids so they stay comparable across steps.
	ref, inc := f1, f2
	flipped := false
	if math.Abs(f1.Edge().Dot(n)) > math.Abs(f2.Edge().Dot(n)) {
		ref, inc = f2, f1
		flipped = true
	}

	e := geometry.Normalized(ref.Edge())

	// clip the incident edge to the reference edge's extent along e:
	// keep e·v1 <= e·p <= e·v2
	clipped, ok := clip(inc.Vertex1, inc.Vertex2, e, e.Dot(ref.Vertex1))
	if !ok {
		return Manifold{}, false
	}
	clipped, ok = clip(clipped[0], clipped[1], e.Mul(-1), -e.Dot(ref.Vertex2))
	if !ok {
		return Manifold{}, false
	}

	// reference face plane: frontNormal points into the reference shape, so
	// penetrating incident points have positive depth
	refNormal := n
	if flipped {
		refNormal = n.Mul(-1)
	}
	frontNormal := refNormal.Mul(-1)
	frontOffset := frontNormal.Dot(ref.Point)

	m := Manifold{Normal: n.Mul(-1)}
	for i, point := range clipped {
		depth := frontNormal.Dot(point) - frontOffset
		if depth >= 0 {
			m.Points = append(m.Points, Point{
				Id: PointId{
					RefEdge:   ref.Index1,
					IncEdge:   inc.Index1,
					ClipIndex: i,
					Flipped:   flipped,
				},
				Point: point,
				Depth: depth,
			})
		}
	}
	if len(m.Points) == 0 {
		return Manifold{}, false
	}
	return m, true
}

// clip keeps the part of segment v1-v2 on the positive side of the plane
// normal·p >= offset, interpolating a replacement vertex when the segment
// crosses the plane. Returns false when fewer than two points survive.
func clip(v1, v2 mgl64.Vec2, normal mgl64.Vec2, offset float64) ([2]mgl64.Vec2, bool) {
	d1 := normal.Dot(v1) - offset
	d2 := normal.Dot(v2) - offset

	var out [2]mgl64.Vec2
	n := 0
	if d1 >= 0 {
		out[n] = v1
		n++
	}
	if d2 >= 0 {
		out[n] = v2
		n++
	}
	if d1*d2 < 0 {
		// the segment crosses the plane; exactly one endpoint survived
		t := d1 / (d1 - d2)
		out[n] = v1.Add(v2.Sub(v1).Mul(t))
		n++
	}
	return out, n == 2
}
