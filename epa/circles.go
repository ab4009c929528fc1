package epa

import (
	"math"

	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Circles computes circle/circle penetration analytically. Two circles
// colliding dead center produce collinear Minkowski support points, which
// the simplex machinery cannot grow into a triangle, so this pair never
// goes through GJK at all.
func Circles(c1 *geometry.Circle, t1 geometry.Transform, c2 *geometry.Circle, t2 geometry.Transform) (Penetration, bool) {
	p1 := t1.Transformed(c1.Center())
	p2 := t2.Transformed(c2.Center())
	d := p2.Sub(p1)
	r := c1.CircleRadius() + c2.CircleRadius()

	dist2 := d.Dot(d)
	if dist2 >= r*r {
		return Penetration{}, false
	}
	dist := math.Sqrt(dist2)
	if dist < geometry.Epsilon {
		// concentric: any direction separates
		return Penetration{Normal: mgl64.Vec2{0, 1}, Depth: r}, true
	}
	return Penetration{Normal: d.Mul(1.0 / dist), Depth: r - dist}, true
}
