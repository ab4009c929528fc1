package joint

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// Weld rigidly locks two bodies together: a point-to-point constraint plus
// an angular constraint freezing their relative rotation.
type Weld struct {
	Base

	localAnchor1   mgl64.Vec2
	localAnchor2   mgl64.Vec2
	referenceAngle float64

	// solver cache
	r1, r2     mgl64.Vec2
	k          mgl64.Mat2
	angMass    float64
	impulse    mgl64.Vec2
	angImpulse float64
}

// NewWeld welds two bodies at a world anchor.
func NewWeld(body1, body2 *actor.Body, anchor mgl64.Vec2) (*Weld, error) {
	if body1 == nil || body2 == nil {
		return nil, fmt.Errorf("weld: nil body")
	}
	if body1 == body2 {
		return nil, fmt.Errorf("weld: cannot join a body to itself")
	}
	return &Weld{
		Base:           newBase(body1, body2),
		localAnchor1:   body1.GetLocalPoint(anchor),
		localAnchor2:   body2.GetLocalPoint(anchor),
		referenceAngle: body1.Transform().Rotation() - body2.Transform().Rotation(),
	}, nil
}

func (j *Weld) Initialize(step constraint.Step) {
	j.r1 = j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body1.WorldCenter())
	j.r2 = j.body2.GetWorldPoint(j.localAnchor2).Sub(j.body2.WorldCenter())
	j.k = pointMassMatrix(j.body1, j.body2, j.r1, j.r2)
	j.angMass = angularMass(j.body1, j.body2)

	// warm start
	applyImpulse(j.body1, j.body2, j.r1, j.r2, j.impulse)
	j.body1.SetVelocityDirect(j.body1.Velocity(), j.body1.AngularVelocity()+j.body1.Mass().InverseInertia*j.angImpulse)
	j.body2.SetVelocityDirect(j.body2.Velocity(), j.body2.AngularVelocity()-j.body2.Mass().InverseInertia*j.angImpulse)
}

func (j *Weld) SolveVelocity(step constraint.Step) {
	// angular row first: it converges faster when solved before the point row
	if j.angMass > 0 {
		cdot := j.body1.AngularVelocity() - j.body2.AngularVelocity()
		lambda := -j.angMass * cdot
		j.angImpulse += lambda
		j.body1.SetVelocityDirect(j.body1.Velocity(), j.body1.AngularVelocity()+j.body1.Mass().InverseInertia*lambda)
		j.body2.SetVelocityDirect(j.body2.Velocity(), j.body2.AngularVelocity()-j.body2.Mass().InverseInertia*lambda)
	}

	cdot := relativeVelocity(j.body1, j.body2, j.r1, j.r2)
	impulse := solve22(j.k, cdot.Mul(-1))
	j.impulse = j.impulse.Add(impulse)
	applyImpulse(j.body1, j.body2, j.r1, j.r2, impulse)
}

func (j *Weld) SolvePosition(step constraint.Step) bool {
	angleError := j.body1.Transform().Rotation() - j.body2.Transform().Rotation() - j.referenceAngle
	if j.angMass > 0 {
		rotatePositions(j.body1, j.body2, -j.angMass*angleError)
	}

	r1 := j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body1.WorldCenter())
	r2 := j.body2.GetWorldPoint(j.localAnchor2).Sub(j.body2.WorldCenter())
	c := j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body2.GetWorldPoint(j.localAnchor2))
	k := pointMassMatrix(j.body1, j.body2, r1, r2)
	impulse := solve22(k, c.Mul(-1))
	translatePositions(j.body1, j.body2, r1, r2, impulse)

	return c.Len() < step.LinearSlop && math.Abs(angleError) < step.LinearSlop
}

func (j *Weld) ReactionForce(invDT float64) mgl64.Vec2 {
	return j.impulse.Mul(invDT)
}

func (j *Weld) ReactionTorque(invDT float64) float64 {
	return j.angImpulse * invDT
}
