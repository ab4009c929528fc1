// Package actor holds the rigid bodies the simulation core moves: fixtures,
// mass state, velocities, accumulated and time-scoped forces, and the
// sleep/active/bullet state bits the world and island builder drive.
package actor

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// state bits
const (
	stateAutoSleep = 1 << iota
	stateAsleep
	stateActive
	stateIsland
	stateBullet
)

// Body is a rigid body: one or more convex fixtures sharing a transform,
// a composite mass, velocities and force accumulators.
//
// A body starts with no fixtures and an uncomputed mass; UpdateMass (or an
// explicit SetMass) must run before the body enters a world. The initial
// transform of each step is kept for continuous collision detection.
type Body struct {
	UserData any

	id        string
	transform geometry.Transform
	// transform at the start of the current step, for CCD sweeps
	transform0 geometry.Transform

	fixtures []*Fixture
	mass     geometry.Mass
	massSet  bool

	velocity        mgl64.Vec2
	angularVelocity float64

	force  mgl64.Vec2
	torque float64
	forces []Force
	// applied torque records
	torques []Torque

	linearDamping  float64
	angularDamping float64
	gravityScale   float64

	// rotation disc radius: max fixture reach from the center of mass
	radius float64

	state     uint8
	sleepTime float64

	// owning world id; empty when detached
	owner string
}

// NewBody creates an empty, active, auto-sleeping body with an identity
// transform.
func NewBody() *Body {
	return &Body{
		id:           uuid.NewString(),
		transform:    geometry.NewTransform(),
		transform0:   geometry.NewTransform(),
		gravityScale: 1.0,
		state:        stateAutoSleep | stateActive,
	}
}

// Id returns the stable body identifier.
func (b *Body) Id() string {
	return b.id
}

// AddFixture attaches a fixture. The mass is not recomputed automatically;
// call UpdateMass when the fixture set is final.
func (b *Body) AddFixture(f *Fixture) error {
	if f == nil {
		return fmt.Errorf("body: nil fixture")
	}
	b.fixtures = append(b.fixtures, f)
	return nil
}

// AddShape is a convenience wrapping the shape in a default fixture.
func (b *Body) AddShape(shape geometry.Convex) (*Fixture, error) {
	f, err := NewFixture(shape)
	if err != nil {
		return nil, err
	}
	b.fixtures = append(b.fixtures, f)
	return f, nil
}

// RemoveFixture detaches a fixture; the caller must also remove its
// broad-phase entry.
func (b *Body) RemoveFixture(f *Fixture) bool {
	for i, fx := range b.fixtures {
		if fx == f {
			b.fixtures = append(b.fixtures[:i], b.fixtures[i+1:]...)
			return true
		}
	}
	return false
}

// Fixtures returns the fixture list. Callers must not mutate it.
func (b *Body) Fixtures() []*Fixture {
	return b.fixtures
}

// UpdateMass composes the fixture masses into the body mass with the given
// type. A body with no fixtures gets an infinite mass at its origin.
func (b *Body) UpdateMass(massType geometry.MassType) {
	if len(b.fixtures) == 0 {
		b.mass = geometry.InfiniteMass(mgl64.Vec2{})
	} else {
		masses := make([]geometry.Mass, len(b.fixtures))
		for i, f := range b.fixtures {
			masses[i] = f.Shape.CreateMass(f.Density())
		}
		b.mass = geometry.CombineMasses(masses).Lock(massType)
	}
	b.massSet = true

	// rotation disc radius from the center of mass
	b.radius = 0
	for _, f := range b.fixtures {
		b.radius = math.Max(b.radius, f.Shape.Radius(b.mass.Center))
	}
}

// SetMass overrides the mass with explicit values.
func (b *Body) SetMass(m geometry.Mass) error {
	if !geometry.IsValidMass(m) {
		return fmt.Errorf("body: mass contains non-finite values")
	}
	b.mass = m
	b.massSet = true
	return nil
}

// Mass returns the composite mass.
func (b *Body) Mass() geometry.Mass {
	return b.mass
}

// HasMass reports whether the mass has been computed. Worlds refuse to step
// bodies in the uncomputed state.
func (b *Body) HasMass() bool {
	return b.massSet
}

// IsDynamic reports whether the body has finite mass.
func (b *Body) IsDynamic() bool {
	return b.mass.Type != geometry.MassInfinite
}

// IsStatic reports whether the body has infinite mass.
func (b *Body) IsStatic() bool {
	return b.mass.Type == geometry.MassInfinite
}

// Transform returns the current transform.
func (b *Body) Transform() geometry.Transform {
	return b.transform
}

// SetTransform teleports the body.
func (b *Body) SetTransform(t geometry.Transform) {
	b.transform = t
}

// InitialTransform returns the transform at the start of the current step.
func (b *Body) InitialTransform() geometry.Transform {
	return b.transform0
}

// CaptureTransform records the step-start transform for CCD.
func (b *Body) CaptureTransform() {
	b.transform0 = b.transform
}

// WorldCenter returns the center of mass in world coordinates.
func (b *Body) WorldCenter() mgl64.Vec2 {
	return b.transform.Transformed(b.mass.Center)
}

// LocalCenter returns the center of mass in local coordinates.
func (b *Body) LocalCenter() mgl64.Vec2 {
	return b.mass.Center
}

// GetWorldPoint maps a local point to world coordinates.
func (b *Body) GetWorldPoint(p mgl64.Vec2) mgl64.Vec2 {
	return b.transform.Transformed(p)
}

// GetLocalPoint maps a world point to local coordinates.
func (b *Body) GetLocalPoint(p mgl64.Vec2) mgl64.Vec2 {
	return b.transform.InverseTransformed(p)
}

// GetWorldVector rotates a local vector to world coordinates.
func (b *Body) GetWorldVector(v mgl64.Vec2) mgl64.Vec2 {
	return b.transform.TransformedR(v)
}

// GetLocalVector rotates a world vector to local coordinates.
func (b *Body) GetLocalVector(v mgl64.Vec2) mgl64.Vec2 {
	return b.transform.InverseTransformedR(v)
}

// Velocity returns the linear velocity of the center of mass.
func (b *Body) Velocity() mgl64.Vec2 {
	return b.velocity
}

// SetVelocity sets the linear velocity and wakes the body.
func (b *Body) SetVelocity(v mgl64.Vec2) {
	b.velocity = v
	b.SetAsleep(false)
}

// AngularVelocity returns the angular velocity in rad/s.
func (b *Body) AngularVelocity() float64 {
	return b.angularVelocity
}

// SetAngularVelocity sets the angular velocity and wakes the body.
func (b *Body) SetAngularVelocity(w float64) {
	b.angularVelocity = w
	b.SetAsleep(false)
}

// SetVelocityDirect sets both velocities without touching the sleep state.
// Constraint solvers use this; user code should go through SetVelocity.
func (b *Body) SetVelocityDirect(v mgl64.Vec2, w float64) {
	b.velocity = v
	b.angularVelocity = w
}

// GetVelocityAtPoint returns the velocity of a world point on the body.
func (b *Body) GetVelocityAtPoint(p mgl64.Vec2) mgl64.Vec2 {
	r := p.Sub(b.WorldCenter())
	return b.velocity.Add(geometry.CrossSV(b.angularVelocity, r))
}

// ApplyForce applies a force at the center of mass for the next step.
func (b *Body) ApplyForce(force mgl64.Vec2) {
	b.forces = append(b.forces, Force{Value: force})
	b.SetAsleep(false)
}

// ApplyForceAt applies a force at a world point for the next step; the
// moment arm contributes torque.
func (b *Body) ApplyForceAt(force, point mgl64.Vec2) {
	b.forces = append(b.forces, Force{Value: force, Point: point, AtPoint: true})
	b.SetAsleep(false)
}

// ApplyForceFor applies a force that persists for the given duration of
// simulated time.
func (b *Body) ApplyForceFor(force mgl64.Vec2, duration float64) {
	b.forces = append(b.forces, Force{Value: force, Remaining: duration})
	b.SetAsleep(false)
}

// ApplyTorque applies a torque for the next step.
func (b *Body) ApplyTorque(torque float64) {
	b.torques = append(b.torques, Torque{Value: torque})
	b.SetAsleep(false)
}

// ApplyTorqueFor applies a torque that persists for the given duration.
func (b *Body) ApplyTorqueFor(torque float64, duration float64) {
	b.torques = append(b.torques, Torque{Value: torque, Remaining: duration})
	b.SetAsleep(false)
}

// ApplyImpulse changes the velocity immediately by impulse at a world point.
func (b *Body) ApplyImpulse(impulse, point mgl64.Vec2) {
	b.velocity = b.velocity.Add(impulse.Mul(b.mass.InverseMass))
	r := point.Sub(b.WorldCenter())
	b.angularVelocity += b.mass.InverseInertia * geometry.Cross(r, impulse)
	b.SetAsleep(false)
}

// AccumulateForces folds the pending force and torque records into the step
// accumulators, retiring completed records in place.
func (b *Body) AccumulateForces(dt float64) {
	b.force = mgl64.Vec2{}
	b.torque = 0

	n := 0
	for i := range b.forces {
		f := &b.forces[i]
		b.force = b.force.Add(f.Value)
		if f.AtPoint {
			r := f.Point.Sub(b.WorldCenter())
			b.torque += geometry.Cross(r, f.Value)
		}
		f.Remaining -= dt
		if !f.IsComplete() {
			b.forces[n] = *f
			n++
		}
	}
	b.forces = b.forces[:n]

	n = 0
	for i := range b.torques {
		t := &b.torques[i]
		b.torque += t.Value
		t.Remaining -= dt
		if !t.IsComplete() {
			b.torques[n] = *t
			n++
		}
	}
	b.torques = b.torques[:n]
}

// Force returns the force accumulated for the current step.
func (b *Body) Force() mgl64.Vec2 {
	return b.force
}

// Torque returns the torque accumulated for the current step.
func (b *Body) Torque() float64 {
	return b.torque
}

// ClearAccumulators zeroes the step accumulators and pending records.
func (b *Body) ClearAccumulators() {
	b.force = mgl64.Vec2{}
	b.torque = 0
	b.forces = b.forces[:0]
	b.torques = b.torques[:0]
}

// IntegrateVelocities advances the velocities by the accumulated forces and
// gravity, then applies the damping factors 1/(1 + dt·d).
func (b *Body) IntegrateVelocities(dt float64, gravity mgl64.Vec2) {
	if !b.IsDynamic() {
		return
	}
	m := b.mass
	if m.InverseMass > 0 {
		accel := gravity.Mul(b.gravityScale).Add(b.force.Mul(m.InverseMass))
		b.velocity = b.velocity.Add(accel.Mul(dt))
	}
	if m.InverseInertia > 0 {
		b.angularVelocity += dt * m.InverseInertia * b.torque
	}
	b.velocity = b.velocity.Mul(1.0 / (1.0 + dt*b.linearDamping))
	b.angularVelocity *= 1.0 / (1.0 + dt*b.angularDamping)
}

// IntegratePositions advances the transform by the current velocities,
// rotating about the center of mass. maxRotation clamps the per-step
// rotation; pass 0 for no clamp.
func (b *Body) IntegratePositions(dt float64, maxRotation float64) {
	if b.IsStatic() {
		return
	}
	b.transform.Translate(b.velocity.Mul(dt))
	dr := b.angularVelocity * dt
	if maxRotation > 0 {
		dr = geometry.Clamp(dr, -maxRotation, maxRotation)
	}
	b.transform.RotateAbout(dr, b.WorldCenter())
}

// LinearDamping returns the linear damping coefficient.
func (b *Body) LinearDamping() float64 {
	return b.linearDamping
}

// SetLinearDamping sets linear damping; zero means none.
func (b *Body) SetLinearDamping(d float64) error {
	if d < 0 || math.IsNaN(d) {
		return fmt.Errorf("body: linear damping must be >= 0, got %v", d)
	}
	b.linearDamping = d
	return nil
}

// AngularDamping returns the angular damping coefficient.
func (b *Body) AngularDamping() float64 {
	return b.angularDamping
}

// SetAngularDamping sets angular damping; zero means none.
func (b *Body) SetAngularDamping(d float64) error {
	if d < 0 || math.IsNaN(d) {
		return fmt.Errorf("body: angular damping must be >= 0, got %v", d)
	}
	b.angularDamping = d
	return nil
}

// GravityScale returns the per-body gravity multiplier.
func (b *Body) GravityScale() float64 {
	return b.gravityScale
}

// SetGravityScale sets the per-body gravity multiplier.
func (b *Body) SetGravityScale(s float64) {
	b.gravityScale = s
}

// RotationDiscRadius returns the maximum reach of any fixture from the
// center of mass, bounding the body's swept extent per step.
func (b *Body) RotationDiscRadius() float64 {
	return b.radius
}

// CreateAABB returns the union of the fixture AABBs under the current
// transform.
func (b *Body) CreateAABB() geometry.AABB {
	return b.CreateAABBAt(b.transform)
}

// CreateAABBAt returns the union of the fixture AABBs under an arbitrary
// transform.
func (b *Body) CreateAABBAt(t geometry.Transform) geometry.AABB {
	if len(b.fixtures) == 0 {
		return geometry.AABB{Min: t.Position, Max: t.Position}
	}
	box := b.fixtures[0].Shape.CreateAABB(t)
	for _, f := range b.fixtures[1:] {
		box = box.Union(f.Shape.CreateAABB(t))
	}
	return box
}

// IsAutoSleep reports whether the body may be put to sleep by the solver.
func (b *Body) IsAutoSleep() bool {
	return b.state&stateAutoSleep != 0
}

// SetAutoSleep toggles automatic sleeping.
func (b *Body) SetAutoSleep(enabled bool) {
	if enabled {
		b.state |= stateAutoSleep
	} else {
		b.state &^= stateAutoSleep
		b.SetAsleep(false)
	}
}

// IsAsleep reports whether the body is sleeping.
func (b *Body) IsAsleep() bool {
	return b.state&stateAsleep != 0
}

// SetAsleep puts the body to sleep or wakes it. Sleeping zeroes the
// velocities and all accumulators.
func (b *Body) SetAsleep(asleep bool) {
	if asleep {
		b.state |= stateAsleep
		b.sleepTime = 0
		b.velocity = mgl64.Vec2{}
		b.angularVelocity = 0
		b.ClearAccumulators()
	} else {
		b.state &^= stateAsleep
		b.sleepTime = 0
	}
}

// SleepTime returns how long the body has been below the sleep thresholds.
func (b *Body) SleepTime() float64 {
	return b.sleepTime
}

// AddSleepTime accumulates rest time and returns the new total.
func (b *Body) AddSleepTime(dt float64) float64 {
	b.sleepTime += dt
	return b.sleepTime
}

// ResetSleepTime clears the rest timer.
func (b *Body) ResetSleepTime() {
	b.sleepTime = 0
}

// IsActive reports whether the body participates in the simulation.
func (b *Body) IsActive() bool {
	return b.state&stateActive != 0
}

// SetActive activates or deactivates the body. Inactive bodies keep their
// state but are excluded from islands and collision.
func (b *Body) SetActive(active bool) {
	if active {
		b.state |= stateActive
	} else {
		b.state &^= stateActive
	}
}

// IsOnIsland reports the island-visited flag.
func (b *Body) IsOnIsland() bool {
	return b.state&stateIsland != 0
}

// SetOnIsland sets the island-visited flag.
func (b *Body) SetOnIsland(on bool) {
	if on {
		b.state |= stateIsland
	} else {
		b.state &^= stateIsland
	}
}

// IsBullet reports whether the body gets continuous collision detection.
func (b *Body) IsBullet() bool {
	return b.state&stateBullet != 0
}

// SetBullet flags the body for continuous collision detection.
func (b *Body) SetBullet(bullet bool) {
	if bullet {
		b.state |= stateBullet
	} else {
		b.state &^= stateBullet
	}
}

// Owner returns the id of the world holding the body, or empty.
func (b *Body) Owner() string {
	return b.owner
}

// SetOwner records the owning world. Adding an owned body to another world
// is a state-invariant violation the world checks before calling this.
func (b *Body) SetOwner(id string) {
	b.owner = id
}

// IsValid reports whether the body state is free of NaN and Inf. The world
// poisons failing bodies inactive rather than letting the values spread.
func (b *Body) IsValid() bool {
	return geometry.IsValidVec(b.transform.Position) &&
		!math.IsNaN(b.transform.Rotation()) && !math.IsInf(b.transform.Rotation(), 0) &&
		geometry.IsValidVec(b.velocity) &&
		!math.IsNaN(b.angularVelocity) && !math.IsInf(b.angularVelocity, 0)
}
