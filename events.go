package quill

import (
	"log/slog"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/manifold"
)

// Listener is a record of optional callbacks; register only the ones you
// care about. Boolean callbacks act as filters: returning false drops the
// pair (or disables the contact) for the current step.
//
// Callbacks run inline on the stepping goroutine. They may read and mutate
// body state but must not add or remove bodies or joints; those calls are
// buffered and applied when the step completes. A panicking listener is
// recovered and logged, never allowed to corrupt the solver.
type Listener struct {
	// collision pipeline filters
	OnBroadphase  func(body1 *actor.Body, fixture1 *actor.Fixture, body2 *actor.Body, fixture2 *actor.Fixture) bool
	OnNarrowphase func(body1 *actor.Body, fixture1 *actor.Fixture, body2 *actor.Body, fixture2 *actor.Fixture) bool
	OnManifold    func(body1 *actor.Body, fixture1 *actor.Fixture, body2 *actor.Body, fixture2 *actor.Fixture, m manifold.Manifold) bool

	// contact lifecycle
	OnContactBegin   func(c *constraint.ContactConstraint)
	OnContactPersist func(c *constraint.ContactConstraint)
	OnContactEnd     func(c *constraint.ContactConstraint)
	OnPreSolve       func(c *constraint.ContactConstraint) bool
	OnPostSolve      func(c *constraint.ContactConstraint)

	// step boundaries
	OnPreStep  func(dt float64)
	OnPostStep func(dt float64)

	// body state
	OnOutOfBounds func(body *actor.Body)
	OnSleep       func(body *actor.Body)
	OnWake        func(body *actor.Body)
	OnDestroyed   func(body *actor.Body)

	// OnSolverFailure reports a pair the narrow phase gave up on, or a body
	// poisoned by non-finite state. The simulation continues without it.
	OnSolverFailure func(body1, body2 *actor.Body)
}

// guard runs a listener callback, recovering panics so a misbehaving
// listener cannot corrupt the solver mid-step.
func guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("listener panicked", "panic", r)
		}
	}()
	fn()
}

// guardBool is guard for filter callbacks; a panicking filter keeps the
// pair.
func guardBool(fn func() bool) (keep bool) {
	keep = true
	defer func() {
		if r := recover(); r != nil {
			slog.Error("listener panicked", "panic", r)
		}
	}()
	keep = fn()
	return
}

func (w *World) notifyPreStep(dt float64) {
	for _, l := range w.listeners {
		if l.OnPreStep != nil {
			guard(func() { l.OnPreStep(dt) })
		}
	}
}

func (w *World) notifyPostStep(dt float64) {
	for _, l := range w.listeners {
		if l.OnPostStep != nil {
			guard(func() { l.OnPostStep(dt) })
		}
	}
}

func (w *World) notifyContactBegin(c *constraint.ContactConstraint) {
	for _, l := range w.listeners {
		if l.OnContactBegin != nil {
			guard(func() { l.OnContactBegin(c) })
		}
	}
}

func (w *World) notifyContactPersist(c *constraint.ContactConstraint) {
	for _, l := range w.listeners {
		if l.OnContactPersist != nil {
			guard(func() { l.OnContactPersist(c) })
		}
	}
}

func (w *World) notifyContactEnd(c *constraint.ContactConstraint) {
	for _, l := range w.listeners {
		if l.OnContactEnd != nil {
			guard(func() { l.OnContactEnd(c) })
		}
	}
}

func (w *World) notifyPostSolve(c *constraint.ContactConstraint) {
	for _, l := range w.listeners {
		if l.OnPostSolve != nil {
			guard(func() { l.OnPostSolve(c) })
		}
	}
}

func (w *World) notifyOutOfBounds(b *actor.Body) {
	for _, l := range w.listeners {
		if l.OnOutOfBounds != nil {
			guard(func() { l.OnOutOfBounds(b) })
		}
	}
}

func (w *World) notifySleep(b *actor.Body) {
	for _, l := range w.listeners {
		if l.OnSleep != nil {
			guard(func() { l.OnSleep(b) })
		}
	}
}

func (w *World) notifyWake(b *actor.Body) {
	for _, l := range w.listeners {
		if l.OnWake != nil {
			guard(func() { l.OnWake(b) })
		}
	}
}

func (w *World) notifyDestroyed(b *actor.Body) {
	for _, l := range w.listeners {
		if l.OnDestroyed != nil {
			guard(func() { l.OnDestroyed(b) })
		}
	}
}

func (w *World) notifySolverFailure(b1, b2 *actor.Body) {
	for _, l := range w.listeners {
		if l.OnSolverFailure != nil {
			guard(func() { l.OnSolverFailure(b1, b2) })
		}
	}
}

func (w *World) filterBroadphase(b1 *actor.Body, f1 *actor.Fixture, b2 *actor.Body, f2 *actor.Fixture) bool {
	for _, l := range w.listeners {
		if l.OnBroadphase != nil && !guardBool(func() bool { return l.OnBroadphase(b1, f1, b2, f2) }) {
			return false
		}
	}
	return true
}

func (w *World) filterNarrowphase(b1 *actor.Body, f1 *actor.Fixture, b2 *actor.Body, f2 *actor.Fixture) bool {
	for _, l := range w.listeners {
		if l.OnNarrowphase != nil && !guardBool(func() bool { return l.OnNarrowphase(b1, f1, b2, f2) }) {
			return false
		}
	}
	return true
}

func (w *World) filterManifold(b1 *actor.Body, f1 *actor.Fixture, b2 *actor.Body, f2 *actor.Fixture, m manifold.Manifold) bool {
	for _, l := range w.listeners {
		if l.OnManifold != nil && !guardBool(func() bool { return l.OnManifold(b1, f1, b2, f2, m) }) {
			return false
		}
	}
	return true
}

func (w *World) filterPreSolve(c *constraint.ContactConstraint) bool {
	for _, l := range w.listeners {
		if l.OnPreSolve != nil && !guardBool(func() bool { return l.OnPreSolve(c) }) {
			return false
		}
	}
	return true
}
