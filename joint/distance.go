package joint

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Distance keeps two anchor points at a fixed rest length. Setting a spring
// frequency softens the constraint into a damped spring.
type Distance struct {
	Base

	localAnchor1 mgl64.Vec2
	localAnchor2 mgl64.Vec2
	restLength   float64

	frequency    float64
	dampingRatio float64

	// solver cache
	r1, r2  mgl64.Vec2
	axis    mgl64.Vec2
	mass    float64
	gamma   float64
	bias    float64
	impulse float64
}

// NewDistance creates a distance joint between two world anchor points; the
// rest length is their current separation.
func NewDistance(body1, body2 *actor.Body, anchor1, anchor2 mgl64.Vec2) (*Distance, error) {
	if body1 == nil || body2 == nil {
		return nil, fmt.Errorf("distance: nil body")
	}
	if body1 == body2 {
		return nil, fmt.Errorf("distance: cannot join a body to itself")
	}
	length := anchor2.Sub(anchor1).Len()
	if length < geometry.Epsilon {
		return nil, fmt.Errorf("distance: anchors coincide at %v", anchor1)
	}
	return &Distance{
		Base:         newBase(body1, body2),
		localAnchor1: body1.GetLocalPoint(anchor1),
		localAnchor2: body2.GetLocalPoint(anchor2),
		restLength:   length,
	}, nil
}

// SetRestLength changes the target separation.
func (j *Distance) SetRestLength(length float64) error {
	if length <= 0 || math.IsNaN(length) {
		return fmt.Errorf("distance: rest length must be positive, got %v", length)
	}
	j.restLength = length
	j.body1.SetAsleep(false)
	j.body2.SetAsleep(false)
	return nil
}

// SetSpring softens the joint into a spring with the given natural
// frequency (Hz) and damping ratio.
func (j *Distance) SetSpring(frequency, dampingRatio float64) error {
	if frequency < 0 || dampingRatio < 0 {
		return fmt.Errorf("distance: negative spring parameters %v, %v", frequency, dampingRatio)
	}
	j.frequency = frequency
	j.dampingRatio = dampingRatio
	return nil
}

func (j *Distance) Initialize(step constraint.Step) {
	j.r1 = j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body1.WorldCenter())
	j.r2 = j.body2.GetWorldPoint(j.localAnchor2).Sub(j.body2.WorldCenter())

	d := j.body2.GetWorldPoint(j.localAnchor2).Sub(j.body1.GetWorldPoint(j.localAnchor1))
	length := d.Len()
	if length > geometry.Epsilon {
		j.axis = d.Mul(1.0 / length)
	} else {
		j.axis = mgl64.Vec2{}
	}

	m1 := j.body1.Mass()
	m2 := j.body2.Mass()
	cr1 := geometry.Cross(j.r1, j.axis)
	cr2 := geometry.Cross(j.r2, j.axis)
	invMass := m1.InverseMass + m2.InverseMass + m1.InverseInertia*cr1*cr1 + m2.InverseInertia*cr2*cr2

	j.gamma = 0
	j.bias = 0
	if j.frequency > 0 && invMass > geometry.Epsilon {
		// soft constraint coefficients from frequency and damping ratio
		c := length - j.restLength
		omega := 2 * math.Pi * j.frequency
		dc := 2 * j.dampingRatio / invMass * omega
		ks := omega * omega / invMass
		j.gamma = step.DT * (dc + step.DT*ks)
		if j.gamma > geometry.Epsilon {
			j.gamma = 1.0 / j.gamma
		}
		j.bias = c * step.DT * ks * j.gamma
		invMass += j.gamma
	}

	j.mass = 0
	if invMass > geometry.Epsilon {
		j.mass = 1.0 / invMass
	}

	// warm start: the impulse acts along the axis, pulling 1 toward 2
	applyImpulse(j.body1, j.body2, j.r1, j.r2, j.axis.Mul(j.impulse))
}

func (j *Distance) SolveVelocity(step constraint.Step) {
	// the stretch rate is -cdot: the axis runs 1 -> 2 but the relative
	// velocity is measured 1 relative to 2
	cdot := relativeVelocity(j.body1, j.body2, j.r1, j.r2).Dot(j.axis)
	lambda := j.mass * (-cdot + j.bias - j.gamma*j.impulse)
	j.impulse += lambda
	applyImpulse(j.body1, j.body2, j.r1, j.r2, j.axis.Mul(lambda))
}

func (j *Distance) SolvePosition(step constraint.Step) bool {
	if j.frequency > 0 {
		// springs carry their error in the velocity phase
		return true
	}
	r1 := j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body1.WorldCenter())
	r2 := j.body2.GetWorldPoint(j.localAnchor2).Sub(j.body2.WorldCenter())
	d := j.body2.GetWorldPoint(j.localAnchor2).Sub(j.body1.GetWorldPoint(j.localAnchor1))
	length := d.Len()
	if length < geometry.Epsilon {
		return true
	}
	axis := d.Mul(1.0 / length)
	c := geometry.Clamp(length-j.restLength, -step.MaxLinearCorrection, step.MaxLinearCorrection)

	m1 := j.body1.Mass()
	m2 := j.body2.Mass()
	cr1 := geometry.Cross(r1, axis)
	cr2 := geometry.Cross(r2, axis)
	invMass := m1.InverseMass + m2.InverseMass + m1.InverseInertia*cr1*cr1 + m2.InverseInertia*cr2*cr2
	if invMass < geometry.Epsilon {
		return true
	}
	impulse := axis.Mul(c / invMass)
	translatePositions(j.body1, j.body2, r1, r2, impulse)

	return math.Abs(c) < step.LinearSlop
}

func (j *Distance) ReactionForce(invDT float64) mgl64.Vec2 {
	return j.axis.Mul(j.impulse * invDT)
}

func (j *Distance) ReactionTorque(invDT float64) float64 {
	return 0
}
