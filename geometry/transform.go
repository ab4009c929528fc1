package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a 2D rotation followed by a translation. The sine and cosine
// of the rotation are cached so transforming points is two multiplies per
// component. Transforms are value types.
type Transform struct {
	Position mgl64.Vec2
	rotation float64
	cost     float64
	sint     float64
}

// NewTransform creates an identity transform.
func NewTransform() Transform {
	return Transform{cost: 1.0}
}

// NewTransformAt creates a transform with the given translation and rotation.
func NewTransformAt(position mgl64.Vec2, rotation float64) Transform {
	return Transform{
		Position: position,
		rotation: rotation,
		cost:     math.Cos(rotation),
		sint:     math.Sin(rotation),
	}
}

// Rotation returns the rotation in radians.
func (t Transform) Rotation() float64 {
	return t.rotation
}

// SetRotation replaces the rotation, keeping the translation.
func (t *Transform) SetRotation(rotation float64) {
	t.rotation = rotation
	t.cost = math.Cos(rotation)
	t.sint = math.Sin(rotation)
}

// Translate moves the transform by the given vector.
func (t *Transform) Translate(v mgl64.Vec2) {
	t.Position = t.Position.Add(v)
}

// Rotate rotates the transform by theta radians about its own origin.
func (t *Transform) Rotate(theta float64) {
	t.SetRotation(t.rotation + theta)
}

// RotateAbout rotates the transform by theta radians about an arbitrary
// world point.
func (t *Transform) RotateAbout(theta float64, point mgl64.Vec2) {
	c, s := math.Cos(theta), math.Sin(theta)
	d := t.Position.Sub(point)
	t.Position = mgl64.Vec2{
		point.X() + d.X()*c - d.Y()*s,
		point.Y() + d.X()*s + d.Y()*c,
	}
	t.SetRotation(t.rotation + theta)
}

// Transformed maps a local point into world space.
func (t Transform) Transformed(p mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		t.cost*p.X() - t.sint*p.Y() + t.Position.X(),
		t.sint*p.X() + t.cost*p.Y() + t.Position.Y(),
	}
}

// TransformedR rotates a local vector into world space without translating.
func (t Transform) TransformedR(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		t.cost*v.X() - t.sint*v.Y(),
		t.sint*v.X() + t.cost*v.Y(),
	}
}

// InverseTransformed maps a world point into local space.
func (t Transform) InverseTransformed(p mgl64.Vec2) mgl64.Vec2 {
	x := p.X() - t.Position.X()
	y := p.Y() - t.Position.Y()
	return mgl64.Vec2{
		t.cost*x + t.sint*y,
		-t.sint*x + t.cost*y,
	}
}

// InverseTransformedR rotates a world vector into local space.
func (t Transform) InverseTransformedR(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		t.cost*v.X() + t.sint*v.Y(),
		-t.sint*v.X() + t.cost*v.Y(),
	}
}

// Lerp interpolates between this transform and end by alpha in [0, 1],
// treating rotation as the shortest angular path. CCD uses this to position
// bodies at a fractional time of impact.
func (t Transform) Lerp(end Transform, alpha float64) Transform {
	dr := end.rotation - t.rotation
	// walk the short way around
	if dr > math.Pi {
		dr -= 2 * math.Pi
	} else if dr < -math.Pi {
		dr += 2 * math.Pi
	}
	p := t.Position.Add(end.Position.Sub(t.Position).Mul(alpha))
	return NewTransformAt(p, t.rotation+dr*alpha)
}
