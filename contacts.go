package quill

import (
	"log/slog"
	"unsafe"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/epa"
	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/gjk"
	"github.com/akmonengine/quill/manifold"
)

// contactKey identifies a fixture pair in pointer order.
type contactKey struct {
	fixtureA *actor.Fixture
	fixtureB *actor.Fixture
}

func uintptrLess(a, b *actor.Fixture) bool {
	return uintptr(unsafe.Pointer(a)) < uintptr(unsafe.Pointer(b))
}

func makeContactKey(a, b *actor.Fixture) contactKey {
	if uintptrLess(b, a) {
		a, b = b, a
	}
	return contactKey{fixtureA: a, fixtureB: b}
}

// contactManager owns the persistent contact constraints. At most one
// constraint exists per fixture pair; constraints live as long as the broad
// phase keeps reporting the pair, inheriting warm-start impulses through
// manifold point ids.
type contactManager struct {
	contacts map[contactKey]*constraint.ContactConstraint

	// last simulated time a convergence warning was logged per pair, to
	// keep the log at one line per pair per second
	warned map[contactKey]float64
}

func newContactManager() *contactManager {
	return &contactManager{
		contacts: make(map[contactKey]*constraint.ContactConstraint),
		warned:   make(map[contactKey]float64),
	}
}

// updateContacts runs narrow phase and manifold generation over the broad
// phase pairs and reconciles the persistent constraint set, firing
// begin/persist/end through the world's listeners.
func (cm *contactManager) updateContacts(w *World, pairs []FixturePair) {
	current := make(map[contactKey]bool, len(pairs))

	for _, pair := range pairs {
		// canonical orientation: the broad phase reports pairs in hash
		// order, but a persistent constraint's manifold must keep the same
		// shape1/shape2 roles every step or its normal would flip
		if uintptrLess(pair.Fixture2, pair.Fixture1) {
			pair.Body1, pair.Body2 = pair.Body2, pair.Body1
			pair.Fixture1, pair.Fixture2 = pair.Fixture2, pair.Fixture1
		}

		// a joint binding the two bodies suppresses their collision unless
		// it explicitly allows it; a revolute pinning two overlapping boxes
		// must not have the contact solver fighting the joint
		if w.jointedWithoutCollision(pair.Body1, pair.Body2) {
			continue
		}

		if !w.filterBroadphase(pair.Body1, pair.Fixture1, pair.Body2, pair.Fixture2) {
			continue
		}
		if !w.filterNarrowphase(pair.Body1, pair.Fixture1, pair.Body2, pair.Fixture2) {
			continue
		}

		t1 := pair.Body1.Transform()
		t2 := pair.Body2.Transform()
		s1 := pair.Fixture1.Shape
		s2 := pair.Fixture2.Shape

		pen, hit := cm.narrowPhase(w, pair, s1, t1, s2, t2)
		if !hit {
			continue
		}

		m, ok := manifold.Solve(pen, s1, t1, s2, t2)
		if !ok {
			continue
		}
		if !w.filterManifold(pair.Body1, pair.Fixture1, pair.Body2, pair.Fixture2, m) {
			continue
		}

		key := makeContactKey(pair.Fixture1, pair.Fixture2)
		current[key] = true

		if c, ok := cm.contacts[key]; ok {
			c.SetManifold(m)
			// sensor/sensor pairs only report begin and end; a persisting
			// contact also never wakes anyone, or nothing would ever sleep
			// while resting on the floor
			if !(pair.Fixture1.IsSensor() && pair.Fixture2.IsSensor()) {
				w.notifyContactPersist(c)
			}
		} else {
			c := constraint.NewContactConstraint(pair.Body1, pair.Fixture1, pair.Body2, pair.Fixture2, m)
			cm.contacts[key] = c
			cm.touch(w, c)
			w.notifyContactBegin(c)
		}
	}

	// constraints whose pair is gone have ended; pairs skipped because both
	// bodies sleep keep their constraint (and its warm-start cache) alive
	for key, c := range cm.contacts {
		if current[key] {
			continue
		}
		if c.BodyA.IsAsleep() && c.BodyB.IsAsleep() {
			continue
		}
		delete(cm.contacts, key)
		delete(cm.warned, key)
		cm.touch(w, c)
		w.notifyContactEnd(c)
	}
}

// narrowPhase decides intersection and extracts the penetration for one
// candidate pair. Circle/circle pairs are solved analytically: dead-center
// collisions produce collinear Minkowski points the simplex cannot grow
// into a triangle. Everything else goes through GJK and EPA; convergence
// failures are reported and the pair treated as non-colliding this step.
func (cm *contactManager) narrowPhase(w *World, pair FixturePair, s1 geometry.Convex, t1 geometry.Transform, s2 geometry.Convex, t2 geometry.Transform) (epa.Penetration, bool) {
	if c1, ok1 := s1.(*geometry.Circle); ok1 {
		if c2, ok2 := s2.(*geometry.Circle); ok2 {
			return epa.Circles(c1, t1, c2, t2)
		}
	}

	simplex := gjk.AcquireSimplex()
	defer gjk.ReleaseSimplex(simplex)

	overlapping, converged := gjk.Detect(s1, t1, s2, t2, simplex)
	if !converged {
		cm.warnPair(w, pair, "gjk")
		return epa.Penetration{}, false
	}
	if !overlapping {
		return epa.Penetration{}, false
	}

	pen, err := epa.Expand(s1, t1, s2, t2, simplex)
	if err != nil {
		cm.warnPair(w, pair, "epa")
		return epa.Penetration{}, false
	}
	return pen, true
}

// touch wakes both bodies of a contact whose state changed.
func (cm *contactManager) touch(w *World, c *constraint.ContactConstraint) {
	if c.BodyA.IsDynamic() && c.BodyA.IsAsleep() {
		w.wake(c.BodyA)
	}
	if c.BodyB.IsDynamic() && c.BodyB.IsAsleep() {
		w.wake(c.BodyB)
	}
}

// warnPair reports a narrow-phase convergence failure, at most once per
// pair per second of simulated time. The pair is treated as non-colliding
// for the step.
func (cm *contactManager) warnPair(w *World, pair FixturePair, stage string) {
	key := makeContactKey(pair.Fixture1, pair.Fixture2)
	if last, ok := cm.warned[key]; ok && w.elapsed-last < 1.0 {
		return
	}
	cm.warned[key] = w.elapsed
	slog.Warn("narrow phase did not converge, pair skipped",
		"stage", stage,
		"body1", pair.Body1.Id(),
		"body2", pair.Body2.Id(),
	)
	w.notifySolverFailure(pair.Body1, pair.Body2)
}

// removeBody drops every constraint referencing the body, firing end events.
func (cm *contactManager) removeBody(w *World, body *actor.Body) {
	for key, c := range cm.contacts {
		if c.BodyA == body || c.BodyB == body {
			delete(cm.contacts, key)
			delete(cm.warned, key)
			w.notifyContactEnd(c)
		}
	}
}

// clearIslandFlags resets the island marker on every constraint.
func (cm *contactManager) clearIslandFlags() {
	for _, c := range cm.contacts {
		c.SetOnIsland(false)
	}
}
