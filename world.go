package quill

import (
	"fmt"
	"log/slog"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/joint"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// defaultCellSize is the broad-phase grid cell size in meters.
const defaultCellSize = 2.0

// World owns the bodies, joints and contacts of one simulation and advances
// them in fixed steps. All methods must be called from a single goroutine;
// a step is synchronous and never blocks internally.
type World struct {
	id string

	bodies []*actor.Body
	joints []joint.Joint

	gravity  mgl64.Vec2
	bounds   *Bounds
	settings Settings

	broadphase     *SpatialGrid
	contactManager *contactManager
	listeners      []*Listener

	stepCount   uint64
	accumulator float64
	// simulated time, used to rate-limit per-pair warnings
	elapsed float64
	// current step dt, visible to the CCD mini-solver
	dt float64

	// true while inside step; add/remove calls made by listeners are
	// buffered until the step completes
	stepping       bool
	pendingAdds    []*actor.Body
	pendingRemoves []*actor.Body
	pendingJoints  []joint.Joint
	pendingUnjoins []joint.Joint
}

// NewWorld creates a world with the given bounds (nil means unbounded) and
// settings.
func NewWorld(bounds *Bounds, settings Settings) (*World, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &World{
		id:             uuid.NewString(),
		gravity:        mgl64.Vec2{0, -9.81},
		bounds:         bounds,
		settings:       settings,
		broadphase:     NewSpatialGrid(defaultCellSize),
		contactManager: newContactManager(),
	}, nil
}

// Settings returns the world tunables.
func (w *World) Settings() Settings {
	return w.settings
}

// Gravity returns the gravity vector.
func (w *World) Gravity() mgl64.Vec2 {
	return w.gravity
}

// SetGravity replaces the gravity vector.
func (w *World) SetGravity(g mgl64.Vec2) {
	w.gravity = g
}

// SetBounds replaces the bounds; nil removes them.
func (w *World) SetBounds(b *Bounds) {
	w.bounds = b
}

// AddListener registers a listener record.
func (w *World) AddListener(l *Listener) {
	w.listeners = append(w.listeners, l)
}

// AddBody adds a body to the world. The body must have a computed mass and
// must not belong to any world. Called during a step (from a listener), the
// add is buffered until the step completes.
func (w *World) AddBody(b *actor.Body) error {
	if b == nil {
		return fmt.Errorf("world: nil body")
	}
	if b.Owner() == w.id {
		return fmt.Errorf("world: body %s already added", b.Id())
	}
	if b.Owner() != "" {
		return fmt.Errorf("world: body %s belongs to another world", b.Id())
	}
	if !b.HasMass() {
		return fmt.Errorf("world: body %s has no computed mass; call UpdateMass first", b.Id())
	}
	if w.stepping {
		w.pendingAdds = append(w.pendingAdds, b)
		return nil
	}
	w.addBodyNow(b)
	return nil
}

func (w *World) addBodyNow(b *actor.Body) {
	b.SetOwner(w.id)
	b.SetOnIsland(false)
	b.CaptureTransform()
	w.bodies = append(w.bodies, b)
	for _, f := range b.Fixtures() {
		w.broadphase.Update(b, f, f.Shape.CreateAABB(b.Transform()))
	}
}

// RemoveBody removes a body, severing its contacts and any joints that
// reference it. Buffered when called during a step.
func (w *World) RemoveBody(b *actor.Body) error {
	if b == nil {
		return fmt.Errorf("world: nil body")
	}
	if b.Owner() != w.id {
		return fmt.Errorf("world: body %s is not in this world", b.Id())
	}
	if w.stepping {
		w.pendingRemoves = append(w.pendingRemoves, b)
		return nil
	}
	w.removeBodyNow(b)
	return nil
}

func (w *World) removeBodyNow(b *actor.Body) {
	for i, body := range w.bodies {
		if body == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	// joints referencing the body die with it
	kept := w.joints[:0]
	for _, j := range w.joints {
		if j.Body1() == b || j.Body2() == b {
			continue
		}
		kept = append(kept, j)
	}
	w.joints = kept

	w.contactManager.removeBody(w, b)
	for _, f := range b.Fixtures() {
		w.broadphase.Remove(f)
	}
	b.SetOwner("")
	w.notifyDestroyed(b)
}

// AddJoint adds a joint. Both bodies must already be in this world.
func (w *World) AddJoint(j joint.Joint) error {
	if j == nil {
		return fmt.Errorf("world: nil joint")
	}
	if j.Body1().Owner() != w.id || j.Body2().Owner() != w.id {
		return fmt.Errorf("world: joint %s references a body outside this world", j.Id())
	}
	if w.stepping {
		w.pendingJoints = append(w.pendingJoints, j)
		return nil
	}
	w.joints = append(w.joints, j)
	return nil
}

// RemoveJoint removes a joint.
func (w *World) RemoveJoint(j joint.Joint) error {
	if j == nil {
		return fmt.Errorf("world: nil joint")
	}
	if w.stepping {
		w.pendingUnjoins = append(w.pendingUnjoins, j)
		return nil
	}
	for i, jj := range w.joints {
		if jj == j {
			w.joints = append(w.joints[:i], w.joints[i+1:]...)
			// the joint may have been holding its bodies in place
			j.Body1().SetAsleep(false)
			j.Body2().SetAsleep(false)
			return nil
		}
	}
	return fmt.Errorf("world: joint %s is not in this world", j.Id())
}

// BodyCount returns the number of bodies.
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// JointCount returns the number of joints.
func (w *World) JointCount() int {
	return len(w.joints)
}

// ContactCount returns the number of persistent contact constraints.
func (w *World) ContactCount() int {
	return len(w.contactManager.contacts)
}

// Bodies iterates over the bodies.
func (w *World) Bodies(fn func(*actor.Body) bool) {
	for _, b := range w.bodies {
		if !fn(b) {
			return
		}
	}
}

// Joints iterates over the joints.
func (w *World) Joints(fn func(joint.Joint) bool) {
	for _, j := range w.joints {
		if !fn(j) {
			return
		}
	}
}

// Contacts iterates over the persistent contact constraints.
func (w *World) Contacts(fn func(*constraint.ContactConstraint) bool) {
	for _, c := range w.contactManager.contacts {
		if !fn(c) {
			return
		}
	}
}

// IsInContact reports whether the two bodies share a touching contact.
func (w *World) IsInContact(b1, b2 *actor.Body) bool {
	for _, c := range w.contactManager.contacts {
		if !c.IsTouching() {
			continue
		}
		if (c.BodyA == b1 && c.BodyB == b2) || (c.BodyA == b2 && c.BodyB == b1) {
			return true
		}
	}
	return false
}

// GetJoinedBodies returns the bodies joined to b.
func (w *World) GetJoinedBodies(b *actor.Body) []*actor.Body {
	var out []*actor.Body
	for _, j := range w.joints {
		switch b {
		case j.Body1():
			out = append(out, j.Body2())
		case j.Body2():
			out = append(out, j.Body1())
		}
	}
	return out
}

// jointedWithoutCollision reports whether a joint binding the two bodies
// disallows their collision.
func (w *World) jointedWithoutCollision(b1, b2 *actor.Body) bool {
	for _, j := range w.joints {
		if j.IsCollisionAllowed() {
			continue
		}
		if (j.Body1() == b1 && j.Body2() == b2) || (j.Body1() == b2 && j.Body2() == b1) {
			return true
		}
	}
	return false
}

// Wake wakes a body explicitly.
func (w *World) Wake(b *actor.Body) {
	w.wake(b)
}

func (w *World) wake(b *actor.Body) {
	if b.IsAsleep() {
		b.SetAsleep(false)
		w.notifyWake(b)
	}
}

// Update advances the accumulator by wall-clock elapsed seconds and runs as
// many fixed steps as it covers.
func (w *World) Update(elapsed float64) {
	w.accumulator += elapsed
	dt := 1.0 / w.settings.StepFrequency
	for w.accumulator >= dt {
		w.Step(dt)
		w.accumulator -= dt
	}
}

// StepCount returns the number of completed steps.
func (w *World) StepCount() uint64 {
	return w.stepCount
}

func (w *World) solverStep(dt float64) constraint.Step {
	return constraint.Step{
		DT:                   dt,
		InvDT:                1.0 / dt,
		Baumgarte:            w.settings.Baumgarte,
		LinearSlop:           w.settings.LinearSlop,
		MaxLinearCorrection:  w.settings.MaxLinearCorrection,
		RestitutionThreshold: w.settings.RestitutionThreshold,
	}
}

// Step advances the simulation by one fixed time step.
func (w *World) Step(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("world: step dt must be positive, got %v", dt)
	}
	for _, b := range w.bodies {
		if !b.HasMass() {
			return fmt.Errorf("world: body %s has no computed mass", b.Id())
		}
	}

	w.stepping = true
	w.dt = dt
	w.notifyPreStep(dt)

	// forces applied before this step act on this step
	for _, b := range w.bodies {
		if !b.IsDynamic() || b.IsAsleep() || !b.IsActive() {
			continue
		}
		b.CaptureTransform()
		b.AccumulateForces(dt)
		b.IntegrateVelocities(dt, w.gravity)
	}

	// collision pipeline
	for _, b := range w.bodies {
		if !b.IsActive() {
			continue
		}
		for _, f := range b.Fixtures() {
			w.broadphase.Update(b, f, f.Shape.CreateAABB(b.Transform()))
		}
	}
	pairs := w.broadphase.Detect()
	w.contactManager.updateContacts(w, pairs)

	// islands
	step := w.solverStep(dt)
	for _, isl := range w.buildIslands() {
		isl.solve(w, step)
		for _, c := range isl.contacts {
			w.notifyPostSolve(c)
		}
	}

	w.solveCCD(dt)
	w.checkBounds()
	w.poisonInvalidBodies()

	w.stepCount++
	w.elapsed += dt
	w.notifyPostStep(dt)
	w.stepping = false
	w.applyPending()
	return nil
}

// checkBounds deactivates bodies that left the world bounds entirely.
func (w *World) checkBounds() {
	if w.bounds == nil {
		return
	}
	for _, b := range w.bodies {
		if !b.IsActive() || b.IsStatic() {
			continue
		}
		if w.bounds.IsOutside(b) {
			b.SetActive(false)
			w.notifyOutOfBounds(b)
		}
	}
}

// poisonInvalidBodies catches NaN or Inf in body state: the body is zeroed
// and deactivated so the corruption cannot spread through contacts.
func (w *World) poisonInvalidBodies() {
	for _, b := range w.bodies {
		if !b.IsActive() || b.IsValid() {
			continue
		}
		slog.Warn("body state is not finite, deactivating", "body", b.Id())
		b.SetVelocityDirect(mgl64.Vec2{}, 0)
		b.ClearAccumulators()
		b.SetActive(false)
		b.SetTransform(b.InitialTransform())
		w.notifySolverFailure(b, nil)
	}
}

// applyPending applies body/joint mutations buffered during the step.
func (w *World) applyPending() {
	for _, b := range w.pendingAdds {
		w.addBodyNow(b)
	}
	w.pendingAdds = w.pendingAdds[:0]
	for _, b := range w.pendingRemoves {
		w.removeBodyNow(b)
	}
	w.pendingRemoves = w.pendingRemoves[:0]
	for _, j := range w.pendingJoints {
		w.joints = append(w.joints, j)
	}
	w.pendingJoints = w.pendingJoints[:0]
	for _, j := range w.pendingUnjoins {
		_ = w.RemoveJoint(j)
	}
	w.pendingUnjoins = w.pendingUnjoins[:0]
}
