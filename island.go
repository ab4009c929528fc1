package quill

import (
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/joint"
)

// island is a connected component of awake dynamic bodies joined by
// touching contacts or joints. Islands are solved independently; a static
// body can border several islands but never bridges them.
type island struct {
	bodies   []*actor.Body
	contacts []*constraint.ContactConstraint
	joints   []joint.Joint
}

// positionEpsilon stops the position iterations early once every contact's
// worst penetration is below slop and every joint reports solved.
const positionEpsilon = 0.005

// buildIslands partitions the world into islands with a stack-based DFS
// over the adjacency derived from the persistent contacts and joints.
func (w *World) buildIslands() []*island {
	for _, b := range w.bodies {
		b.SetOnIsland(false)
	}
	w.contactManager.clearIslandFlags()
	for _, j := range w.joints {
		j.SetOnIsland(false)
	}

	// world-side adjacency; bodies hold no references to their constraints
	contactsOf := make(map[*actor.Body][]*constraint.ContactConstraint)
	for _, c := range w.contactManager.contacts {
		contactsOf[c.BodyA] = append(contactsOf[c.BodyA], c)
		contactsOf[c.BodyB] = append(contactsOf[c.BodyB], c)
	}
	jointsOf := make(map[*actor.Body][]joint.Joint)
	for _, j := range w.joints {
		jointsOf[j.Body1()] = append(jointsOf[j.Body1()], j)
		jointsOf[j.Body2()] = append(jointsOf[j.Body2()], j)
	}

	var islands []*island
	var stack []*actor.Body

	for _, seed := range w.bodies {
		if seed.IsOnIsland() || seed.IsAsleep() || !seed.IsActive() || !seed.IsDynamic() {
			continue
		}

		isl := &island{}
		stack = append(stack[:0], seed)
		seed.SetOnIsland(true)

		for len(stack) > 0 {
			body := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			isl.bodies = append(isl.bodies, body)

			// a static body joins the island but contributes no edges
			if body.IsStatic() {
				continue
			}

			for _, c := range contactsOf[body] {
				if c.IsOnIsland() || !c.Enabled || c.Sensor || !c.IsTouching() {
					continue
				}
				c.SetOnIsland(true)
				isl.contacts = append(isl.contacts, c)

				other := c.BodyA
				if other == body {
					other = c.BodyB
				}
				if !other.IsOnIsland() && other.IsActive() {
					other.SetOnIsland(true)
					stack = append(stack, other)
				}
			}

			for _, j := range jointsOf[body] {
				if j.IsOnIsland() {
					continue
				}
				j.SetOnIsland(true)
				isl.joints = append(isl.joints, j)

				other := j.Body1()
				if other == body {
					other = j.Body2()
				}
				if !other.IsOnIsland() && other.IsActive() {
					other.SetOnIsland(true)
					stack = append(stack, other)
				}
			}
		}

		// free the static members for the next island; any sleeping member
		// pulled in through an edge wakes, since the island's impulses flow
		// through it. The world's integration pass skipped it while it was
		// asleep, so it catches up here before the island is solved.
		for _, b := range isl.bodies {
			if b.IsStatic() {
				b.SetOnIsland(false)
			} else if b.IsAsleep() {
				w.wake(b)
				b.CaptureTransform()
				b.AccumulateForces(w.dt)
				b.IntegrateVelocities(w.dt, w.gravity)
			}
		}

		islands = append(islands, isl)
	}
	return islands
}

// solve runs the sequential-impulse pipeline on one island: constraint
// initialization and warm starting, velocity iterations, position
// integration, position iterations with early-out, and the sleep update.
// Velocities were already integrated by the world.
func (isl *island) solve(w *World, step constraint.Step) {
	active := isl.contacts[:0]
	for _, c := range isl.contacts {
		if w.filterPreSolve(c) {
			active = append(active, c)
		}
	}
	isl.contacts = active

	for _, c := range isl.contacts {
		c.Initialize(step)
	}
	for _, j := range isl.joints {
		j.Initialize(step)
	}

	for i := 0; i < w.settings.VelocityIterations; i++ {
		for _, j := range isl.joints {
			j.SolveVelocity(step)
		}
		for _, c := range isl.contacts {
			c.SolveVelocity()
		}
	}

	for _, b := range isl.bodies {
		b.IntegratePositions(step.DT, w.settings.MaxRotation)
	}

	for i := 0; i < w.settings.PositionIterations; i++ {
		worst := 0.0
		jointsSolved := true
		for _, c := range isl.contacts {
			worst = math.Max(worst, c.SolvePosition(step))
		}
		for _, j := range isl.joints {
			if !j.SolvePosition(step) {
				jointsSolved = false
			}
		}
		if worst < positionEpsilon && jointsSolved {
			break
		}
	}

	isl.updateSleep(w, step.DT)
}

// updateSleep puts the whole island to sleep once every dynamic member has
// rested below the velocity thresholds for the sleep time. A single fast
// body keeps the island awake.
func (isl *island) updateSleep(w *World, dt float64) {
	minSleep := math.Inf(1)
	for _, b := range isl.bodies {
		if !b.IsDynamic() {
			continue
		}
		if !b.IsAutoSleep() ||
			b.Velocity().Len() > w.settings.SleepLinearVelocity ||
			math.Abs(b.AngularVelocity()) > w.settings.SleepAngularVelocity {
			b.ResetSleepTime()
			minSleep = 0
		} else {
			minSleep = math.Min(minSleep, b.AddSleepTime(dt))
		}
	}

	if minSleep >= w.settings.SleepTime {
		for _, b := range isl.bodies {
			if b.IsDynamic() && !b.IsAsleep() {
				b.SetAsleep(true)
				w.notifySleep(b)
			}
		}
	}
}
