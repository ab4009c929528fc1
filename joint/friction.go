package joint

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Friction damps all relative motion between two bodies at an anchor,
// applying up to a maximum force and torque. Useful as top-down friction
// when there is no ground contact to provide it.
type Friction struct {
	Base

	localAnchor1 mgl64.Vec2
	localAnchor2 mgl64.Vec2
	maxForce     float64
	maxTorque    float64

	// solver cache
	r1, r2     mgl64.Vec2
	k          mgl64.Mat2
	angMass    float64
	impulse    mgl64.Vec2
	angImpulse float64
}

// NewFriction creates a friction joint at a world anchor.
func NewFriction(body1, body2 *actor.Body, anchor mgl64.Vec2, maxForce, maxTorque float64) (*Friction, error) {
	if body1 == nil || body2 == nil {
		return nil, fmt.Errorf("friction: nil body")
	}
	if body1 == body2 {
		return nil, fmt.Errorf("friction: cannot join a body to itself")
	}
	if maxForce < 0 || maxTorque < 0 || math.IsNaN(maxForce) || math.IsNaN(maxTorque) {
		return nil, fmt.Errorf("friction: max force and torque must be >= 0")
	}
	return &Friction{
		Base:         newBase(body1, body2),
		localAnchor1: body1.GetLocalPoint(anchor),
		localAnchor2: body2.GetLocalPoint(anchor),
		maxForce:     maxForce,
		maxTorque:    maxTorque,
	}, nil
}

func (j *Friction) Initialize(step constraint.Step) {
	j.r1 = j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body1.WorldCenter())
	j.r2 = j.body2.GetWorldPoint(j.localAnchor2).Sub(j.body2.WorldCenter())
	j.k = pointMassMatrix(j.body1, j.body2, j.r1, j.r2)
	j.angMass = angularMass(j.body1, j.body2)

	// warm start
	applyImpulse(j.body1, j.body2, j.r1, j.r2, j.impulse)
	j.body1.SetVelocityDirect(j.body1.Velocity(), j.body1.AngularVelocity()+j.body1.Mass().InverseInertia*j.angImpulse)
	j.body2.SetVelocityDirect(j.body2.Velocity(), j.body2.AngularVelocity()-j.body2.Mass().InverseInertia*j.angImpulse)
}

func (j *Friction) SolveVelocity(step constraint.Step) {
	// angular friction
	if j.angMass > 0 {
		cdot := j.body1.AngularVelocity() - j.body2.AngularVelocity()
		lambda := -j.angMass * cdot
		old := j.angImpulse
		maxImpulse := j.maxTorque * step.DT
		j.angImpulse = geometry.Clamp(old+lambda, -maxImpulse, maxImpulse)
		lambda = j.angImpulse - old
		j.body1.SetVelocityDirect(j.body1.Velocity(), j.body1.AngularVelocity()+j.body1.Mass().InverseInertia*lambda)
		j.body2.SetVelocityDirect(j.body2.Velocity(), j.body2.AngularVelocity()-j.body2.Mass().InverseInertia*lambda)
	}

	// linear friction
	cdot := relativeVelocity(j.body1, j.body2, j.r1, j.r2)
	impulse := solve22(j.k, cdot.Mul(-1))
	old := j.impulse
	j.impulse = j.impulse.Add(impulse)
	maxImpulse := j.maxForce * step.DT
	if j.impulse.Len() > maxImpulse {
		j.impulse = j.impulse.Mul(maxImpulse / j.impulse.Len())
	}
	applyImpulse(j.body1, j.body2, j.r1, j.r2, j.impulse.Sub(old))
}

func (j *Friction) SolvePosition(step constraint.Step) bool {
	// friction has no position target
	return true
}

func (j *Friction) ReactionForce(invDT float64) mgl64.Vec2 {
	return j.impulse.Mul(invDT)
}

func (j *Friction) ReactionTorque(invDT float64) float64 {
	return j.angImpulse * invDT
}
