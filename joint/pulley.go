package joint

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Pulley connects two bodies through an idealized rope over two fixed world
// ground anchors, enforcing length1 + ratio·length2 = constant. A ratio
// other than 1 makes it a block-and-tackle.
type Pulley struct {
	Base

	groundAnchor1 mgl64.Vec2
	groundAnchor2 mgl64.Vec2
	localAnchor1  mgl64.Vec2
	localAnchor2  mgl64.Vec2
	ratio         float64
	totalLength   float64

	// solver cache
	r1, r2  mgl64.Vec2
	u1, u2  mgl64.Vec2
	mass    float64
	impulse float64
}

// NewPulley creates a pulley joint. The total rope length is taken from the
// current pose.
func NewPulley(body1, body2 *actor.Body, groundAnchor1, groundAnchor2, anchor1, anchor2 mgl64.Vec2, ratio float64) (*Pulley, error) {
	if body1 == nil || body2 == nil {
		return nil, fmt.Errorf("pulley: nil body")
	}
	if body1 == body2 {
		return nil, fmt.Errorf("pulley: cannot join a body to itself")
	}
	if ratio <= 0 || math.IsNaN(ratio) {
		return nil, fmt.Errorf("pulley: ratio must be positive, got %v", ratio)
	}
	l1 := anchor1.Sub(groundAnchor1).Len()
	l2 := anchor2.Sub(groundAnchor2).Len()
	return &Pulley{
		Base:          newBase(body1, body2),
		groundAnchor1: groundAnchor1,
		groundAnchor2: groundAnchor2,
		localAnchor1:  body1.GetLocalPoint(anchor1),
		localAnchor2:  body2.GetLocalPoint(anchor2),
		ratio:         ratio,
		totalLength:   l1 + ratio*l2,
	}, nil
}

// Ratio returns the pulley ratio.
func (j *Pulley) Ratio() float64 {
	return j.ratio
}

func (j *Pulley) Initialize(step constraint.Step) {
	p1 := j.body1.GetWorldPoint(j.localAnchor1)
	p2 := j.body2.GetWorldPoint(j.localAnchor2)
	j.r1 = p1.Sub(j.body1.WorldCenter())
	j.r2 = p2.Sub(j.body2.WorldCenter())

	// rope directions from the ground anchors toward the bodies
	j.u1 = geometry.Normalized(p1.Sub(j.groundAnchor1))
	j.u2 = geometry.Normalized(p2.Sub(j.groundAnchor2))

	m1 := j.body1.Mass()
	m2 := j.body2.Mass()
	cr1 := geometry.Cross(j.r1, j.u1)
	cr2 := geometry.Cross(j.r2, j.u2)
	k := m1.InverseMass + m1.InverseInertia*cr1*cr1 +
		j.ratio*j.ratio*(m2.InverseMass+m2.InverseInertia*cr2*cr2)
	j.mass = 0
	if k > geometry.Epsilon {
		j.mass = 1.0 / k
	}

	// warm start: the rope pulls each body toward its ground anchor
	j.applyRopeImpulse(j.impulse)
}

// applyRopeImpulse applies -u1·λ to body1 and -u2·ratio·λ to body2.
func (j *Pulley) applyRopeImpulse(lambda float64) {
	m1 := j.body1.Mass()
	m2 := j.body2.Mass()
	i1 := j.u1.Mul(-lambda)
	i2 := j.u2.Mul(-j.ratio * lambda)
	j.body1.SetVelocityDirect(
		j.body1.Velocity().Add(i1.Mul(m1.InverseMass)),
		j.body1.AngularVelocity()+m1.InverseInertia*geometry.Cross(j.r1, i1),
	)
	j.body2.SetVelocityDirect(
		j.body2.Velocity().Add(i2.Mul(m2.InverseMass)),
		j.body2.AngularVelocity()+m2.InverseInertia*geometry.Cross(j.r2, i2),
	)
}

func (j *Pulley) SolveVelocity(step constraint.Step) {
	if j.mass == 0 {
		return
	}
	v1 := j.body1.Velocity().Add(geometry.CrossSV(j.body1.AngularVelocity(), j.r1))
	v2 := j.body2.Velocity().Add(geometry.CrossSV(j.body2.AngularVelocity(), j.r2))

	// total rope speed; positive means paying out, answered with tension
	cdot := j.u1.Dot(v1) + j.ratio*j.u2.Dot(v2)
	lambda := j.mass * cdot
	j.impulse += lambda
	j.applyRopeImpulse(lambda)
}

func (j *Pulley) SolvePosition(step constraint.Step) bool {
	p1 := j.body1.GetWorldPoint(j.localAnchor1)
	p2 := j.body2.GetWorldPoint(j.localAnchor2)
	u1 := geometry.Normalized(p1.Sub(j.groundAnchor1))
	u2 := geometry.Normalized(p2.Sub(j.groundAnchor2))

	l1 := p1.Sub(j.groundAnchor1).Len()
	l2 := p2.Sub(j.groundAnchor2).Len()
	c := j.totalLength - l1 - j.ratio*l2
	if math.Abs(c) < step.LinearSlop {
		return true
	}

	r1 := p1.Sub(j.body1.WorldCenter())
	r2 := p2.Sub(j.body2.WorldCenter())
	m1 := j.body1.Mass()
	m2 := j.body2.Mass()
	cr1 := geometry.Cross(r1, u1)
	cr2 := geometry.Cross(r2, u2)
	k := m1.InverseMass + m1.InverseInertia*cr1*cr1 +
		j.ratio*j.ratio*(m2.InverseMass+m2.InverseInertia*cr2*cr2)
	if k < geometry.Epsilon {
		return true
	}
	lambda := geometry.Clamp(-c/k, -step.MaxLinearCorrection, step.MaxLinearCorrection)

	i1 := u1.Mul(-lambda)
	i2 := u2.Mul(-j.ratio * lambda)
	if j.body1.IsDynamic() {
		t := j.body1.Transform()
		t.Translate(i1.Mul(m1.InverseMass))
		t.RotateAbout(m1.InverseInertia*geometry.Cross(r1, i1), j.body1.WorldCenter())
		j.body1.SetTransform(t)
	}
	if j.body2.IsDynamic() {
		t := j.body2.Transform()
		t.Translate(i2.Mul(m2.InverseMass))
		t.RotateAbout(m2.InverseInertia*geometry.Cross(r2, i2), j.body2.WorldCenter())
		j.body2.SetTransform(t)
	}
	return false
}

func (j *Pulley) ReactionForce(invDT float64) mgl64.Vec2 {
	return j.u2.Mul(j.ratio * j.impulse * invDT)
}

func (j *Pulley) ReactionTorque(invDT float64) float64 {
	return 0
}
