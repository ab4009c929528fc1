package joint

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Revolute pins two bodies at a common world anchor, leaving only relative
// rotation free. An optional motor drives the relative angular velocity and
// optional limits clamp the relative angle.
type Revolute struct {
	Base

	localAnchor1 mgl64.Vec2
	localAnchor2 mgl64.Vec2
	// relative angle when the joint was created; limits are measured from it
	referenceAngle float64

	motorEnabled bool
	motorSpeed   float64
	maxTorque    float64

	limitEnabled bool
	lowerLimit   float64
	upperLimit   float64
	limitState   LimitState

	// solver cache
	r1, r2       mgl64.Vec2
	k            mgl64.Mat2
	motorMass    float64
	impulse      mgl64.Vec2
	motorImpulse float64
	limitImpulse float64
}

// NewRevolute creates a revolute joint pinned at a world anchor.
func NewRevolute(body1, body2 *actor.Body, anchor mgl64.Vec2) (*Revolute, error) {
	if body1 == nil || body2 == nil {
		return nil, fmt.Errorf("revolute: nil body")
	}
	if body1 == body2 {
		return nil, fmt.Errorf("revolute: cannot join a body to itself")
	}
	return &Revolute{
		Base:           newBase(body1, body2),
		localAnchor1:   body1.GetLocalPoint(anchor),
		localAnchor2:   body2.GetLocalPoint(anchor),
		referenceAngle: body1.Transform().Rotation() - body2.Transform().Rotation(),
	}, nil
}

// SetMotor configures and enables the motor.
func (j *Revolute) SetMotor(speed, maxTorque float64) error {
	if maxTorque < 0 || math.IsNaN(maxTorque) || math.IsNaN(speed) {
		return fmt.Errorf("revolute: invalid motor parameters speed=%v maxTorque=%v", speed, maxTorque)
	}
	j.motorEnabled = true
	j.motorSpeed = speed
	j.maxTorque = maxTorque
	j.body1.SetAsleep(false)
	j.body2.SetAsleep(false)
	return nil
}

// DisableMotor turns the motor off.
func (j *Revolute) DisableMotor() {
	j.motorEnabled = false
}

// SetLimits enables angle limits relative to the creation pose.
func (j *Revolute) SetLimits(lower, upper float64) error {
	if lower > upper {
		return fmt.Errorf("revolute: lower limit %v above upper %v", lower, upper)
	}
	j.limitEnabled = true
	j.lowerLimit = lower
	j.upperLimit = upper
	j.body1.SetAsleep(false)
	j.body2.SetAsleep(false)
	return nil
}

// DisableLimits turns the limits off.
func (j *Revolute) DisableLimits() {
	j.limitEnabled = false
}

// RelativeAngle returns the joint angle measured from the creation pose.
func (j *Revolute) RelativeAngle() float64 {
	return j.body1.Transform().Rotation() - j.body2.Transform().Rotation() - j.referenceAngle
}

func (j *Revolute) Initialize(step constraint.Step) {
	j.r1 = j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body1.WorldCenter())
	j.r2 = j.body2.GetWorldPoint(j.localAnchor2).Sub(j.body2.WorldCenter())
	j.k = pointMassMatrix(j.body1, j.body2, j.r1, j.r2)
	j.motorMass = angularMass(j.body1, j.body2)

	if j.limitEnabled {
		angle := j.RelativeAngle()
		switch {
		case math.Abs(j.upperLimit-j.lowerLimit) < 2*geometry.Epsilon:
			j.limitState = LimitEqual
		case angle <= j.lowerLimit:
			if j.limitState != LimitAtLower {
				j.limitImpulse = 0
			}
			j.limitState = LimitAtLower
		case angle >= j.upperLimit:
			if j.limitState != LimitAtUpper {
				j.limitImpulse = 0
			}
			j.limitState = LimitAtUpper
		default:
			j.limitState = LimitInactive
			j.limitImpulse = 0
		}
	} else {
		j.limitState = LimitInactive
		j.limitImpulse = 0
	}
	if !j.motorEnabled {
		j.motorImpulse = 0
	}

	// warm start
	applyImpulse(j.body1, j.body2, j.r1, j.r2, j.impulse)
	w := j.motorImpulse + j.limitImpulse
	j.body1.SetVelocityDirect(j.body1.Velocity(), j.body1.AngularVelocity()+j.body1.Mass().InverseInertia*w)
	j.body2.SetVelocityDirect(j.body2.Velocity(), j.body2.AngularVelocity()-j.body2.Mass().InverseInertia*w)
}

func (j *Revolute) SolveVelocity(step constraint.Step) {
	i1 := j.body1.Mass().InverseInertia
	i2 := j.body2.Mass().InverseInertia

	// motor
	if j.motorEnabled && j.limitState != LimitEqual && j.motorMass > 0 {
		cdot := j.body1.AngularVelocity() - j.body2.AngularVelocity() - j.motorSpeed
		lambda := -j.motorMass * cdot
		old := j.motorImpulse
		maxImpulse := j.maxTorque * step.DT
		j.motorImpulse = geometry.Clamp(old+lambda, -maxImpulse, maxImpulse)
		lambda = j.motorImpulse - old
		j.body1.SetVelocityDirect(j.body1.Velocity(), j.body1.AngularVelocity()+i1*lambda)
		j.body2.SetVelocityDirect(j.body2.Velocity(), j.body2.AngularVelocity()-i2*lambda)
	}

	// limit
	if j.limitEnabled && j.limitState != LimitInactive && j.motorMass > 0 {
		cdot := j.body1.AngularVelocity() - j.body2.AngularVelocity()
		lambda := -j.motorMass * cdot
		old := j.limitImpulse
		switch j.limitState {
		case LimitAtLower:
			j.limitImpulse = math.Max(old+lambda, 0)
		case LimitAtUpper:
			j.limitImpulse = math.Min(old+lambda, 0)
		default:
			j.limitImpulse = old + lambda
		}
		lambda = j.limitImpulse - old
		j.body1.SetVelocityDirect(j.body1.Velocity(), j.body1.AngularVelocity()+i1*lambda)
		j.body2.SetVelocityDirect(j.body2.Velocity(), j.body2.AngularVelocity()-i2*lambda)
	}

	// point-to-point
	cdot := relativeVelocity(j.body1, j.body2, j.r1, j.r2)
	impulse := solve22(j.k, cdot.Mul(-1))
	j.impulse = j.impulse.Add(impulse)
	applyImpulse(j.body1, j.body2, j.r1, j.r2, impulse)
}

func (j *Revolute) SolvePosition(step constraint.Step) bool {
	solved := true

	if j.limitEnabled && j.limitState != LimitInactive {
		angle := j.RelativeAngle()
		var c float64
		switch j.limitState {
		case LimitAtLower:
			c = math.Min(angle-j.lowerLimit, 0)
		case LimitAtUpper:
			c = math.Max(angle-j.upperLimit, 0)
		default:
			c = angle - j.lowerLimit
		}
		if math.Abs(c) > step.LinearSlop {
			solved = false
		}
		if j.motorMass > 0 && c != 0 {
			rotatePositions(j.body1, j.body2, -j.motorMass*c)
		}
	}

	r1 := j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body1.WorldCenter())
	r2 := j.body2.GetWorldPoint(j.localAnchor2).Sub(j.body2.WorldCenter())
	c := j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body2.GetWorldPoint(j.localAnchor2))
	if c.Len() > step.LinearSlop {
		solved = false
	}
	k := pointMassMatrix(j.body1, j.body2, r1, r2)
	impulse := solve22(k, c.Mul(-1))
	translatePositions(j.body1, j.body2, r1, r2, impulse)

	return solved
}

func (j *Revolute) ReactionForce(invDT float64) mgl64.Vec2 {
	return j.impulse.Mul(invDT)
}

func (j *Revolute) ReactionTorque(invDT float64) float64 {
	return (j.motorImpulse + j.limitImpulse) * invDT
}
