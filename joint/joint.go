// Package joint implements the bilateral constraints binding two bodies:
// revolute, prismatic, distance, weld, pulley, mouse, angle and friction
// joints. Each joint caches its effective masses in Initialize, applies
// impulses during the velocity iterations, and corrects residual error in
// the position iterations.
package joint

import (
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Joint is the constraint contract the island solver drives.
type Joint interface {
	Id() string
	Body1() *actor.Body
	Body2() *actor.Body

	// IsCollisionAllowed reports whether the joined bodies may also collide.
	IsCollisionAllowed() bool

	IsOnIsland() bool
	SetOnIsland(bool)

	// Initialize caches anchors and effective masses and warm starts.
	Initialize(step constraint.Step)
	// SolveVelocity runs one velocity iteration.
	SolveVelocity(step constraint.Step)
	// SolvePosition runs one position iteration and reports whether the
	// joint considers its position error solved.
	SolvePosition(step constraint.Step) bool

	// ReactionForce returns the force the joint applied, derived from the
	// last step's impulse.
	ReactionForce(invDT float64) mgl64.Vec2
	// ReactionTorque returns the torque the joint applied.
	ReactionTorque(invDT float64) float64
}

// Base carries the attributes shared by every joint.
type Base struct {
	UserData any

	id               string
	body1            *actor.Body
	body2            *actor.Body
	collisionAllowed bool
	onIsland         bool
}

func newBase(body1, body2 *actor.Body) Base {
	return Base{
		id:    uuid.NewString(),
		body1: body1,
		body2: body2,
	}
}

func (b *Base) Id() string {
	return b.id
}

func (b *Base) Body1() *actor.Body {
	return b.body1
}

func (b *Base) Body2() *actor.Body {
	return b.body2
}

func (b *Base) IsCollisionAllowed() bool {
	return b.collisionAllowed
}

// SetCollisionAllowed toggles collision between the joined bodies.
func (b *Base) SetCollisionAllowed(allowed bool) {
	b.collisionAllowed = allowed
}

func (b *Base) IsOnIsland() bool {
	return b.onIsland
}

func (b *Base) SetOnIsland(on bool) {
	b.onIsland = on
}

// applyImpulse applies +impulse to body1 and -impulse to body2 at world
// offsets r1 and r2 from the centers of mass.
func applyImpulse(b1, b2 *actor.Body, r1, r2, impulse mgl64.Vec2) {
	m1 := b1.Mass()
	m2 := b2.Mass()
	b1.SetVelocityDirect(
		b1.Velocity().Add(impulse.Mul(m1.InverseMass)),
		b1.AngularVelocity()+m1.InverseInertia*geometry.Cross(r1, impulse),
	)
	b2.SetVelocityDirect(
		b2.Velocity().Sub(impulse.Mul(m2.InverseMass)),
		b2.AngularVelocity()-m2.InverseInertia*geometry.Cross(r2, impulse),
	)
}

// pointMassMatrix assembles the 2x2 effective mass matrix of a
// point-to-point constraint.
func pointMassMatrix(b1, b2 *actor.Body, r1, r2 mgl64.Vec2) mgl64.Mat2 {
	m1 := b1.Mass()
	m2 := b2.Mass()
	im := m1.InverseMass + m2.InverseMass
	i1 := m1.InverseInertia
	i2 := m2.InverseInertia

	// mgl64 matrices are column major
	return mgl64.Mat2{
		im + i1*r1.Y()*r1.Y() + i2*r2.Y()*r2.Y(),
		-i1*r1.X()*r1.Y() - i2*r2.X()*r2.Y(),
		-i1*r1.X()*r1.Y() - i2*r2.X()*r2.Y(),
		im + i1*r1.X()*r1.X() + i2*r2.X()*r2.X(),
	}
}

// solve22 solves K·x = b for a 2x2 system, returning the zero vector when K
// is singular (both bodies immovable).
func solve22(k mgl64.Mat2, b mgl64.Vec2) mgl64.Vec2 {
	a11, a21, a12, a22 := k[0], k[1], k[2], k[3]
	det := a11*a22 - a12*a21
	if math.Abs(det) < geometry.Epsilon {
		return mgl64.Vec2{}
	}
	inv := 1.0 / det
	return mgl64.Vec2{
		inv * (a22*b.X() - a12*b.Y()),
		inv * (a11*b.Y() - a21*b.X()),
	}
}

// relativeVelocity is the velocity of body1's anchor relative to body2's.
func relativeVelocity(b1, b2 *actor.Body, r1, r2 mgl64.Vec2) mgl64.Vec2 {
	v1 := b1.Velocity().Add(geometry.CrossSV(b1.AngularVelocity(), r1))
	v2 := b2.Velocity().Add(geometry.CrossSV(b2.AngularVelocity(), r2))
	return v1.Sub(v2)
}

// angularMass returns the effective mass of a pure angular constraint.
func angularMass(b1, b2 *actor.Body) float64 {
	k := b1.Mass().InverseInertia + b2.Mass().InverseInertia
	if k < geometry.Epsilon {
		return 0
	}
	return 1.0 / k
}

// translatePositions moves both bodies by an equal and opposite positional
// impulse, rotating about their centers of mass.
func translatePositions(b1, b2 *actor.Body, r1, r2, impulse mgl64.Vec2) {
	m1 := b1.Mass()
	m2 := b2.Mass()
	if b1.IsDynamic() {
		t := b1.Transform()
		t.Translate(impulse.Mul(m1.InverseMass))
		t.RotateAbout(m1.InverseInertia*geometry.Cross(r1, impulse), b1.WorldCenter())
		b1.SetTransform(t)
	}
	if b2.IsDynamic() {
		t := b2.Transform()
		t.Translate(impulse.Mul(-m2.InverseMass))
		t.RotateAbout(-m2.InverseInertia*geometry.Cross(r2, impulse), b2.WorldCenter())
		b2.SetTransform(t)
	}
}

// rotatePositions applies an angular positional impulse.
func rotatePositions(b1, b2 *actor.Body, impulse float64) {
	if b1.IsDynamic() {
		t := b1.Transform()
		t.RotateAbout(b1.Mass().InverseInertia*impulse, b1.WorldCenter())
		b1.SetTransform(t)
	}
	if b2.IsDynamic() {
		t := b2.Transform()
		t.RotateAbout(-b2.Mass().InverseInertia*impulse, b2.WorldCenter())
		b2.SetTransform(t)
	}
}

// LimitState tracks which side of a joint limit is active.
type LimitState int

const (
	LimitInactive LimitState = iota
	LimitAtLower
	LimitAtUpper
	LimitEqual
)
