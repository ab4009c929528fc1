package quill

import (
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/epa"
	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/gjk"
	"github.com/akmonengine/quill/manifold"

	"github.com/akmonengine/quill/constraint"
)

// toiTouchTolerance is the separation at which conservative advancement
// considers the shapes touching.
const toiTouchTolerance = 1e-4

// toiTarget is the separation conservative advancement aims for, so the
// impact pose stays just short of touching and still has a distance normal.
const toiTarget = 0.5 * toiTouchTolerance

// solveCCD runs continuous collision detection after the discrete step.
// For every bullet body (or all dynamic bodies in CCDAll mode) whose swept
// AABB reaches another body, a conservative-advancement search finds the
// earliest time of impact along the step; the bodies are rolled back to it,
// the contact resolved, and the remainder of the step replayed.
func (w *World) solveCCD(dt float64) {
	if w.settings.CCD == CCDNone {
		return
	}

	for _, body := range w.bodies {
		if !body.IsDynamic() || !body.IsActive() || body.IsAsleep() {
			continue
		}
		if w.settings.CCD == CCDBullets && !body.IsBullet() {
			continue
		}

		for sub := 0; sub < w.settings.MaxSubSteps; sub++ {
			if !w.ccdSubStep(body, dt) {
				break
			}
		}
	}
}

// ccdSubStep performs one rollback-and-replay pass for a body. Returns true
// when an impact was found and resolved, meaning another pass may be
// needed.
func (w *World) ccdSubStep(body *actor.Body, dt float64) bool {
	// swept extent of the whole step, inflated by the rotation disc
	swept := body.CreateAABBAt(body.InitialTransform()).
		Union(body.CreateAABB()).
		Expanded(body.RotationDiscRadius())

	bestT := 1.0
	var bestOther *actor.Body
	var bestFixture, bestOtherFixture *actor.Fixture

	for _, other := range w.bodies {
		if other == body || !other.IsActive() {
			continue
		}
		// both moving bullets are handled when the other body's turn comes
		otherSwept := other.CreateAABBAt(other.InitialTransform()).
			Union(other.CreateAABB()).
			Expanded(other.RotationDiscRadius())
		if !swept.Overlaps(otherSwept) {
			continue
		}
		if w.jointedWithoutCollision(body, other) {
			continue
		}

		for _, f1 := range body.Fixtures() {
			for _, f2 := range other.Fixtures() {
				if f1.IsSensor() || f2.IsSensor() || !f1.Filter.Allows(f2.Filter) {
					continue
				}
				if t, ok := w.timeOfImpact(body, f1, other, f2); ok && t < bestT {
					bestT = t
					bestOther = other
					bestFixture = f1
					bestOtherFixture = f2
				}
			}
		}
	}

	if bestOther == nil || bestT >= 1.0 {
		return false
	}

	// roll both bodies back to the impact time
	body.SetTransform(body.InitialTransform().Lerp(body.Transform(), bestT))
	if bestOther.IsDynamic() {
		bestOther.SetTransform(bestOther.InitialTransform().Lerp(bestOther.Transform(), bestT))
	}

	// resolve the impact with a mini velocity solve, then replay the rest
	// of the step from the impact pose
	w.resolveImpact(body, bestFixture, bestOther, bestOtherFixture)

	remaining := (1.0 - bestT) * dt
	body.CaptureTransform()
	body.IntegratePositions(remaining, w.settings.MaxRotation)
	if bestOther.IsDynamic() && !bestOther.IsAsleep() {
		bestOther.CaptureTransform()
		bestOther.IntegratePositions(remaining, w.settings.MaxRotation)
	}
	return true
}

// timeOfImpact runs conservative advancement on one fixture pair over the
// step's motion. Returns the earliest fraction t in [0, 1) at which the
// fixtures come within toiTouchTolerance of each other, stopping about
// toiTarget short of contact.
func (w *World) timeOfImpact(body1 *actor.Body, f1 *actor.Fixture, body2 *actor.Body, f2 *actor.Fixture) (float64, bool) {
	// bound on how much the separation can close over the whole step, in
	// meters: relative translation plus the rotational sweep of both discs
	motion := body1.Transform().Position.Sub(body1.InitialTransform().Position).
		Sub(body2.Transform().Position.Sub(body2.InitialTransform().Position)).Len() +
		math.Abs(body1.Transform().Rotation()-body1.InitialTransform().Rotation())*body1.RotationDiscRadius() +
		math.Abs(body2.Transform().Rotation()-body2.InitialTransform().Rotation())*body2.RotationDiscRadius()
	if motion < geometry.Epsilon {
		return 0, false
	}

	t := 0.0
	for i := 0; i < w.settings.MaxTOIIterations; i++ {
		t1 := body1.InitialTransform().Lerp(body1.Transform(), t)
		t2 := body2.InitialTransform().Lerp(body2.Transform(), t)

		sep, ok := gjk.Distance(f1.Shape, t1, f2.Shape, t2)
		if !ok {
			// already overlapping at this time
			if t == 0 {
				// started the step overlapping: the discrete solver owns it
				return 0, false
			}
			return t, true
		}
		if sep.Distance < toiTouchTolerance {
			return t, true
		}

		t += (sep.Distance - toiTarget) / motion
		if t >= 1.0 {
			return 0, false
		}
	}
	// advancement did not converge; treat the pair as missing this step
	return 0, false
}

// resolveImpact generates a contact at the rolled-back pose and runs a
// small velocity-only solve so the replayed motion no longer approaches.
func (w *World) resolveImpact(body1 *actor.Body, f1 *actor.Fixture, body2 *actor.Body, f2 *actor.Fixture) {
	t1 := body1.Transform()
	t2 := body2.Transform()

	simplex := gjk.AcquireSimplex()
	defer gjk.ReleaseSimplex(simplex)

	var m manifold.Manifold
	if overlapping, converged := gjk.Detect(f1.Shape, t1, f2.Shape, t2, simplex); overlapping && converged {
		pen, err := epa.Expand(f1.Shape, t1, f2.Shape, t2, simplex)
		if err != nil {
			return
		}
		var ok bool
		m, ok = manifold.Solve(pen, f1.Shape, t1, f2.Shape, t2)
		if !ok {
			return
		}
	} else {
		// the bodies stopped just short of touching: synthesize a contact
		// from the separation witness points
		sep, ok := gjk.Distance(f1.Shape, t1, f2.Shape, t2)
		if !ok {
			return
		}
		m = manifold.Manifold{
			Normal: sep.Normal.Mul(-1),
			Points: []manifold.Point{{
				Id:    manifold.PointIdDistance,
				Point: sep.PointA.Add(sep.PointB).Mul(0.5),
			}},
		}
	}

	c := constraint.NewContactConstraint(body1, f1, body2, f2, m)
	step := w.solverStep(w.dt)
	c.Initialize(step)
	for i := 0; i < w.settings.VelocityIterations; i++ {
		c.SolveVelocity()
	}
}
