package joint

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Angle couples the angular velocities of two bodies by a gear-like ratio
// without constraining their positions: ω1 = ratio·ω2, and the relative
// rotation is held at its creation value when the ratio is 1.
type Angle struct {
	Base

	ratio          float64
	referenceAngle float64

	mass    float64
	impulse float64
}

// NewAngle creates an angle joint with the given ratio.
func NewAngle(body1, body2 *actor.Body, ratio float64) (*Angle, error) {
	if body1 == nil || body2 == nil {
		return nil, fmt.Errorf("angle: nil body")
	}
	if body1 == body2 {
		return nil, fmt.Errorf("angle: cannot join a body to itself")
	}
	if ratio == 0 || math.IsNaN(ratio) {
		return nil, fmt.Errorf("angle: ratio must be non-zero, got %v", ratio)
	}
	return &Angle{
		Base:           newBase(body1, body2),
		ratio:          ratio,
		referenceAngle: body1.Transform().Rotation() - ratio*body2.Transform().Rotation(),
	}, nil
}

// Ratio returns the angular velocity ratio.
func (j *Angle) Ratio() float64 {
	return j.ratio
}

func (j *Angle) Initialize(step constraint.Step) {
	k := j.body1.Mass().InverseInertia + j.ratio*j.ratio*j.body2.Mass().InverseInertia
	j.mass = 0
	if k > geometry.Epsilon {
		j.mass = 1.0 / k
	}

	// warm start
	j.applyAngularImpulse(j.impulse)
}

func (j *Angle) applyAngularImpulse(lambda float64) {
	j.body1.SetVelocityDirect(j.body1.Velocity(), j.body1.AngularVelocity()+j.body1.Mass().InverseInertia*lambda)
	j.body2.SetVelocityDirect(j.body2.Velocity(), j.body2.AngularVelocity()-j.body2.Mass().InverseInertia*j.ratio*lambda)
}

func (j *Angle) SolveVelocity(step constraint.Step) {
	if j.mass == 0 {
		return
	}
	cdot := j.body1.AngularVelocity() - j.ratio*j.body2.AngularVelocity()
	lambda := -j.mass * cdot
	j.impulse += lambda
	j.applyAngularImpulse(lambda)
}

func (j *Angle) SolvePosition(step constraint.Step) bool {
	if j.mass == 0 {
		return true
	}
	c := j.body1.Transform().Rotation() - j.ratio*j.body2.Transform().Rotation() - j.referenceAngle
	if math.Abs(c) < step.LinearSlop {
		return true
	}
	impulse := -j.mass * c
	if j.body1.IsDynamic() {
		t := j.body1.Transform()
		t.RotateAbout(j.body1.Mass().InverseInertia*impulse, j.body1.WorldCenter())
		j.body1.SetTransform(t)
	}
	if j.body2.IsDynamic() {
		t := j.body2.Transform()
		t.RotateAbout(-j.body2.Mass().InverseInertia*j.ratio*impulse, j.body2.WorldCenter())
		j.body2.SetTransform(t)
	}
	return false
}

func (j *Angle) ReactionForce(invDT float64) mgl64.Vec2 {
	return mgl64.Vec2{}
}

func (j *Angle) ReactionTorque(invDT float64) float64 {
	return j.impulse * invDT
}
