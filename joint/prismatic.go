package joint

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Prismatic allows translation along a single axis fixed in body2's frame
// and locks both the perpendicular translation and the relative rotation.
// An optional motor drives translation along the axis; optional limits
// clamp it.
type Prismatic struct {
	Base

	localAnchor1 mgl64.Vec2
	localAnchor2 mgl64.Vec2
	// axis and its perpendicular in body2's local frame
	localAxis      mgl64.Vec2
	localPerp      mgl64.Vec2
	referenceAngle float64

	motorEnabled bool
	motorSpeed   float64
	maxForce     float64

	limitEnabled bool
	lowerLimit   float64
	upperLimit   float64
	limitState   LimitState

	// solver cache
	r1, r2       mgl64.Vec2
	axis, perp   mgl64.Vec2
	s1, s2       float64 // moment arms of the axis
	p1, p2       float64 // moment arms of the perpendicular
	perpMass     float64
	angularMass  float64
	axialMass    float64
	perpImpulse  float64
	angImpulse   float64
	motorImpulse float64
	limitImpulse float64
}

// NewPrismatic creates a prismatic joint through a world anchor with a world
// axis. The axis must be non-degenerate.
func NewPrismatic(body1, body2 *actor.Body, anchor, axis mgl64.Vec2) (*Prismatic, error) {
	if body1 == nil || body2 == nil {
		return nil, fmt.Errorf("prismatic: nil body")
	}
	if body1 == body2 {
		return nil, fmt.Errorf("prismatic: cannot join a body to itself")
	}
	if axis.Len() < geometry.Epsilon {
		return nil, fmt.Errorf("prismatic: zero-length axis")
	}
	localAxis := geometry.Normalized(body2.GetLocalVector(axis))
	return &Prismatic{
		Base:           newBase(body1, body2),
		localAnchor1:   body1.GetLocalPoint(anchor),
		localAnchor2:   body2.GetLocalPoint(anchor),
		localAxis:      localAxis,
		localPerp:      geometry.LeftNormal(localAxis),
		referenceAngle: body1.Transform().Rotation() - body2.Transform().Rotation(),
	}, nil
}

// SetMotor configures and enables the linear motor.
func (j *Prismatic) SetMotor(speed, maxForce float64) error {
	if maxForce < 0 || math.IsNaN(maxForce) || math.IsNaN(speed) {
		return fmt.Errorf("prismatic: invalid motor parameters speed=%v maxForce=%v", speed, maxForce)
	}
	j.motorEnabled = true
	j.motorSpeed = speed
	j.maxForce = maxForce
	j.body1.SetAsleep(false)
	j.body2.SetAsleep(false)
	return nil
}

// DisableMotor turns the motor off.
func (j *Prismatic) DisableMotor() {
	j.motorEnabled = false
}

// SetLimits enables translation limits along the axis.
func (j *Prismatic) SetLimits(lower, upper float64) error {
	if lower > upper {
		return fmt.Errorf("prismatic: lower limit %v above upper %v", lower, upper)
	}
	j.limitEnabled = true
	j.lowerLimit = lower
	j.upperLimit = upper
	j.body1.SetAsleep(false)
	j.body2.SetAsleep(false)
	return nil
}

// Translation returns body1's position along the joint axis.
func (j *Prismatic) Translation() float64 {
	d := j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body2.GetWorldPoint(j.localAnchor2))
	return d.Dot(j.body2.GetWorldVector(j.localAxis))
}

func (j *Prismatic) Initialize(step constraint.Step) {
	m1 := j.body1.Mass()
	m2 := j.body2.Mass()

	j.r1 = j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body1.WorldCenter())
	j.r2 = j.body2.GetWorldPoint(j.localAnchor2).Sub(j.body2.WorldCenter())
	d := j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body2.GetWorldPoint(j.localAnchor2))

	j.axis = j.body2.GetWorldVector(j.localAxis)
	j.perp = j.body2.GetWorldVector(j.localPerp)

	// body2 carries the axis, so its moment arm includes the separation d
	j.s1 = geometry.Cross(j.r1, j.axis)
	j.s2 = geometry.Cross(j.r2.Add(d), j.axis)
	j.p1 = geometry.Cross(j.r1, j.perp)
	j.p2 = geometry.Cross(j.r2.Add(d), j.perp)

	kPerp := m1.InverseMass + m2.InverseMass + m1.InverseInertia*j.p1*j.p1 + m2.InverseInertia*j.p2*j.p2
	j.perpMass = 0
	if kPerp > geometry.Epsilon {
		j.perpMass = 1.0 / kPerp
	}
	j.angularMass = angularMass(j.body1, j.body2)
	kAxial := m1.InverseMass + m2.InverseMass + m1.InverseInertia*j.s1*j.s1 + m2.InverseInertia*j.s2*j.s2
	j.axialMass = 0
	if kAxial > geometry.Epsilon {
		j.axialMass = 1.0 / kAxial
	}

	if j.limitEnabled {
		translation := d.Dot(j.axis)
		switch {
		case math.Abs(j.upperLimit-j.lowerLimit) < 2*step.LinearSlop:
			j.limitState = LimitEqual
		case translation <= j.lowerLimit:
			if j.limitState != LimitAtLower {
				j.limitImpulse = 0
			}
			j.limitState = LimitAtLower
		case translation >= j.upperLimit:
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
	impulse := j.perp.Mul(j.perpImpulse).Add(j.axis.Mul(j.motorImpulse + j.limitImpulse))
	j.applyRowImpulse(impulse, j.perpImpulse*j.p1+(j.motorImpulse+j.limitImpulse)*j.s1+j.angImpulse,
		j.perpImpulse*j.p2+(j.motorImpulse+j.limitImpulse)*j.s2+j.angImpulse)
}

// applyRowImpulse applies a linear impulse with explicit angular terms for
// each body, which the axis rows need because their moment arms differ.
func (j *Prismatic) applyRowImpulse(linear mgl64.Vec2, ang1, ang2 float64) {
	m1 := j.body1.Mass()
	m2 := j.body2.Mass()
	j.body1.SetVelocityDirect(
		j.body1.Velocity().Add(linear.Mul(m1.InverseMass)),
		j.body1.AngularVelocity()+m1.InverseInertia*ang1,
	)
	j.body2.SetVelocityDirect(
		j.body2.Velocity().Sub(linear.Mul(m2.InverseMass)),
		j.body2.AngularVelocity()-m2.InverseInertia*ang2,
	)
}

func (j *Prismatic) SolveVelocity(step constraint.Step) {
	v1 := j.body1.Velocity()
	v2 := j.body2.Velocity()
	w1 := j.body1.AngularVelocity()
	w2 := j.body2.AngularVelocity()

	// motor
	if j.motorEnabled && j.limitState != LimitEqual && j.axialMass > 0 {
		cdot := j.axis.Dot(v1.Sub(v2)) + j.s1*w1 - j.s2*w2 - j.motorSpeed
		lambda := -j.axialMass * cdot
		old := j.motorImpulse
		maxImpulse := j.maxForce * step.DT
		j.motorImpulse = geometry.Clamp(old+lambda, -maxImpulse, maxImpulse)
		lambda = j.motorImpulse - old
		j.applyRowImpulse(j.axis.Mul(lambda), lambda*j.s1, lambda*j.s2)
		v1, v2 = j.body1.Velocity(), j.body2.Velocity()
		w1, w2 = j.body1.AngularVelocity(), j.body2.AngularVelocity()
	}

	// limit
	if j.limitEnabled && j.limitState != LimitInactive && j.axialMass > 0 {
		cdot := j.axis.Dot(v1.Sub(v2)) + j.s1*w1 - j.s2*w2
		lambda := -j.axialMass * cdot
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
		j.applyRowImpulse(j.axis.Mul(lambda), lambda*j.s1, lambda*j.s2)
		v1, v2 = j.body1.Velocity(), j.body2.Velocity()
		w1, w2 = j.body1.AngularVelocity(), j.body2.AngularVelocity()
	}

	// perpendicular translation
	if j.perpMass > 0 {
		cdot := j.perp.Dot(v1.Sub(v2)) + j.p1*w1 - j.p2*w2
		lambda := -j.perpMass * cdot
		j.perpImpulse += lambda
		j.applyRowImpulse(j.perp.Mul(lambda), lambda*j.p1, lambda*j.p2)
		w1, w2 = j.body1.AngularVelocity(), j.body2.AngularVelocity()
	}

	// relative rotation
	if j.angularMass > 0 {
		cdot := w1 - w2
		lambda := -j.angularMass * cdot
		j.angImpulse += lambda
		j.applyRowImpulse(mgl64.Vec2{}, lambda, lambda)
	}
}

// applyRowCorrection is the positional counterpart of applyRowImpulse,
// needed because body2's moment arm for the axis rows includes the anchor
// separation d; the shared point-constraint apply would drop it.
func (j *Prismatic) applyRowCorrection(linear mgl64.Vec2, ang1, ang2 float64) {
	m1 := j.body1.Mass()
	m2 := j.body2.Mass()
	if j.body1.IsDynamic() {
		t := j.body1.Transform()
		t.Translate(linear.Mul(m1.InverseMass))
		t.RotateAbout(m1.InverseInertia*ang1, j.body1.WorldCenter())
		j.body1.SetTransform(t)
	}
	if j.body2.IsDynamic() {
		t := j.body2.Transform()
		t.Translate(linear.Mul(-m2.InverseMass))
		t.RotateAbout(-m2.InverseInertia*ang2, j.body2.WorldCenter())
		j.body2.SetTransform(t)
	}
}

func (j *Prismatic) SolvePosition(step constraint.Step) bool {
	solved := true
	m1 := j.body1.Mass()
	m2 := j.body2.Mass()

	// relative rotation error
	angleError := j.body1.Transform().Rotation() - j.body2.Transform().Rotation() - j.referenceAngle
	if math.Abs(angleError) > step.LinearSlop {
		solved = false
	}
	if j.angularMass > 0 {
		rotatePositions(j.body1, j.body2, -j.angularMass*angleError)
	}

	// rebuild the arms at the corrected pose, with body2's arm spanning the
	// anchor separation exactly as in the velocity phase
	r1 := j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body1.WorldCenter())
	r2 := j.body2.GetWorldPoint(j.localAnchor2).Sub(j.body2.WorldCenter())
	d := j.body1.GetWorldPoint(j.localAnchor1).Sub(j.body2.GetWorldPoint(j.localAnchor2))
	perp := j.body2.GetWorldVector(j.localPerp)
	axis := j.body2.GetWorldVector(j.localAxis)
	p1 := geometry.Cross(r1, perp)
	p2 := geometry.Cross(r2.Add(d), perp)
	s1 := geometry.Cross(r1, axis)
	s2 := geometry.Cross(r2.Add(d), axis)

	// perpendicular error
	perpError := perp.Dot(d)
	if math.Abs(perpError) > step.LinearSlop {
		solved = false
	}
	kPerp := m1.InverseMass + m2.InverseMass + m1.InverseInertia*p1*p1 + m2.InverseInertia*p2*p2
	if kPerp > geometry.Epsilon {
		lambda := -perpError / kPerp
		j.applyRowCorrection(perp.Mul(lambda), lambda*p1, lambda*p2)
	}

	// limit error
	if j.limitEnabled && j.limitState != LimitInactive {
		translation := axis.Dot(d)
		var c float64
		switch j.limitState {
		case LimitAtLower:
			c = math.Min(translation-j.lowerLimit, 0)
		case LimitAtUpper:
			c = math.Max(translation-j.upperLimit, 0)
		default:
			c = translation - j.lowerLimit
		}
		if math.Abs(c) > step.LinearSlop {
			solved = false
		}
		kAxial := m1.InverseMass + m2.InverseMass + m1.InverseInertia*s1*s1 + m2.InverseInertia*s2*s2
		if kAxial > geometry.Epsilon {
			lambda := -geometry.Clamp(c, -step.MaxLinearCorrection, step.MaxLinearCorrection) / kAxial
			j.applyRowCorrection(axis.Mul(lambda), lambda*s1, lambda*s2)
		}
	}

	return solved
}

func (j *Prismatic) ReactionForce(invDT float64) mgl64.Vec2 {
	return j.perp.Mul(j.perpImpulse).Add(j.axis.Mul(j.motorImpulse + j.limitImpulse)).Mul(invDT)
}

func (j *Prismatic) ReactionTorque(invDT float64) float64 {
	return j.angImpulse * invDT
}
