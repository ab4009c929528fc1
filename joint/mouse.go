package joint

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Mouse drags a single body's anchor point toward a world target through a
// critically tunable soft spring capped at a maximum force. Testbeds use it
// for cursor dragging; body2 is the driven body, body1 an arbitrary ground
// body.
type Mouse struct {
	Base

	localAnchor mgl64.Vec2
	target      mgl64.Vec2
	frequency   float64
	damping     float64
	maxForce    float64

	// solver cache
	r       mgl64.Vec2
	k       mgl64.Mat2
	gamma   float64
	bias    mgl64.Vec2
	impulse mgl64.Vec2
}

// NewMouse creates a mouse joint dragging body2's anchor toward target.
func NewMouse(ground, body *actor.Body, anchor mgl64.Vec2, frequency, damping, maxForce float64) (*Mouse, error) {
	if ground == nil || body == nil {
		return nil, fmt.Errorf("mouse: nil body")
	}
	if frequency <= 0 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("mouse: frequency must be positive, got %v", frequency)
	}
	if damping < 0 || maxForce < 0 {
		return nil, fmt.Errorf("mouse: negative damping or max force")
	}
	return &Mouse{
		Base:        newBase(ground, body),
		localAnchor: body.GetLocalPoint(anchor),
		target:      anchor,
		frequency:   frequency,
		damping:     damping,
		maxForce:    maxForce,
	}, nil
}

// SetTarget moves the drag target and wakes the body.
func (j *Mouse) SetTarget(target mgl64.Vec2) {
	j.target = target
	j.body2.SetAsleep(false)
}

// Target returns the current drag target.
func (j *Mouse) Target() mgl64.Vec2 {
	return j.target
}

func (j *Mouse) Initialize(step constraint.Step) {
	body := j.body2
	m := body.Mass()

	j.r = body.GetWorldPoint(j.localAnchor).Sub(body.WorldCenter())

	// soft constraint coefficients
	omega := 2 * math.Pi * j.frequency
	d := 2 * m.Mass * j.damping * omega
	ks := m.Mass * omega * omega
	j.gamma = step.DT * (d + step.DT*ks)
	if j.gamma > geometry.Epsilon {
		j.gamma = 1.0 / j.gamma
	}
	beta := step.DT * ks * j.gamma

	c := body.GetWorldPoint(j.localAnchor).Sub(j.target)
	j.bias = c.Mul(beta)

	// effective mass with softening on the diagonal
	im := m.InverseMass
	ii := m.InverseInertia
	j.k = mgl64.Mat2{
		im + ii*j.r.Y()*j.r.Y() + j.gamma,
		-ii * j.r.X() * j.r.Y(),
		-ii * j.r.X() * j.r.Y(),
		im + ii*j.r.X()*j.r.X() + j.gamma,
	}

	// warm start
	body.ApplyImpulse(j.impulse, body.GetWorldPoint(j.localAnchor))
}

func (j *Mouse) SolveVelocity(step constraint.Step) {
	body := j.body2
	cdot := body.Velocity().Add(geometry.CrossSV(body.AngularVelocity(), j.r))
	rhs := cdot.Add(j.bias).Add(j.impulse.Mul(j.gamma)).Mul(-1)
	impulse := solve22(j.k, rhs)

	old := j.impulse
	j.impulse = j.impulse.Add(impulse)
	maxImpulse := j.maxForce * step.DT
	if j.impulse.Len() > maxImpulse {
		j.impulse = j.impulse.Mul(maxImpulse / j.impulse.Len())
	}
	impulse = j.impulse.Sub(old)

	m := body.Mass()
	body.SetVelocityDirect(
		body.Velocity().Add(impulse.Mul(m.InverseMass)),
		body.AngularVelocity()+m.InverseInertia*geometry.Cross(j.r, impulse),
	)
}

func (j *Mouse) SolvePosition(step constraint.Step) bool {
	// soft constraint, no position correction
	return true
}

func (j *Mouse) ReactionForce(invDT float64) mgl64.Vec2 {
	return j.impulse.Mul(invDT)
}

func (j *Mouse) ReactionTorque(invDT float64) float64 {
	return 0
}
