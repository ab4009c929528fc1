// Package constraint implements the sequential-impulse contact constraint:
// warm-started normal and friction impulses in the velocity phase, and
// split pseudo-impulses with Baumgarte feedback in the position phase.
package constraint

import (
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

// Step carries the per-step solver parameters shared by contact and joint
// constraints.
type Step struct {
	DT    float64
	InvDT float64

	Baumgarte            float64
	LinearSlop           float64
	MaxLinearCorrection  float64
	RestitutionThreshold float64
}

// SolverPoint is the per-contact-point solver state. The accumulated
// impulses survive across steps through id matching and seed the next
// step's iterations.
type SolverPoint struct {
	Id manifold.PointId

	// anchors in each body's local frame, for the position phase
	LocalA mgl64.Vec2
	LocalB mgl64.Vec2

	// world offsets from the centers of mass, fixed for the velocity phase
	RA mgl64.Vec2
	RB mgl64.Vec2

	Depth float64

	MassN        float64
	MassT        float64
	VelocityBias float64

	AccumulatedN float64
	AccumulatedT float64
}

// ContactConstraint couples one fixture pair through a 1- or 2-point
// manifold. The normal points from body B toward body A.
type ContactConstraint struct {
	BodyA    *actor.Body
	BodyB    *actor.Body
	FixtureA *actor.Fixture
	FixtureB *actor.Fixture

	Normal  mgl64.Vec2
	Tangent mgl64.Vec2
	Points  []SolverPoint

	Friction    float64
	Restitution float64

	Sensor  bool
	Enabled bool

	onIsland bool
}

// NewContactConstraint builds a constraint from a fresh manifold. Friction
// mixes geometrically, restitution takes the maximum.
func NewContactConstraint(bodyA *actor.Body, fixtureA *actor.Fixture, bodyB *actor.Body, fixtureB *actor.Fixture, m manifold.Manifold) *ContactConstraint {
	c := &ContactConstraint{
		BodyA:       bodyA,
		BodyB:       bodyB,
		FixtureA:    fixtureA,
		FixtureB:    fixtureB,
		Friction:    math.Sqrt(fixtureA.Friction() * fixtureB.Friction()),
		Restitution: math.Max(fixtureA.Restitution(), fixtureB.Restitution()),
		Sensor:      fixtureA.IsSensor() || fixtureB.IsSensor(),
		Enabled:     true,
	}
	c.SetManifold(m)
	return c
}

// SetManifold replaces the manifold, inheriting accumulated impulses from
// the previous points whose ids match. Non-matching points start cold.
func (c *ContactConstraint) SetManifold(m manifold.Manifold) {
	old := c.Points
	c.Normal = m.Normal
	c.Tangent = geometry.RightNormal(m.Normal)
	c.Points = make([]SolverPoint, len(m.Points))
	for i, mp := range m.Points {
		p := SolverPoint{
			Id:     mp.Id,
			Depth:  mp.Depth,
			LocalA: c.BodyA.GetLocalPoint(mp.Point),
			LocalB: c.BodyB.GetLocalPoint(mp.Point),
			RA:     mp.Point.Sub(c.BodyA.WorldCenter()),
			RB:     mp.Point.Sub(c.BodyB.WorldCenter()),
		}
		for _, op := range old {
			if op.Id == mp.Id {
				p.AccumulatedN = op.AccumulatedN
				p.AccumulatedT = op.AccumulatedT
				break
			}
		}
		c.Points[i] = p
	}
}

// IsTouching reports whether the constraint currently has manifold points.
func (c *ContactConstraint) IsTouching() bool {
	return len(c.Points) > 0
}

// IsOnIsland reports the island-visited flag.
func (c *ContactConstraint) IsOnIsland() bool {
	return c.onIsland
}

// SetOnIsland sets the island-visited flag.
func (c *ContactConstraint) SetOnIsland(on bool) {
	c.onIsland = on
}

// Initialize computes effective masses and restitution bias, then warm
// starts by re-applying the accumulated impulses.
func (c *ContactConstraint) Initialize(step Step) {
	ma := c.BodyA.Mass()
	mb := c.BodyB.Mass()
	n := c.Normal
	t := c.Tangent

	for i := range c.Points {
		p := &c.Points[i]

		ran := geometry.Cross(p.RA, n)
		rbn := geometry.Cross(p.RB, n)
		kn := ma.InverseMass + mb.InverseMass + ma.InverseInertia*ran*ran + mb.InverseInertia*rbn*rbn

		rat := geometry.Cross(p.RA, t)
		rbt := geometry.Cross(p.RB, t)
		kt := ma.InverseMass + mb.InverseMass + ma.InverseInertia*rat*rat + mb.InverseInertia*rbt*rbt

		p.MassN = 0
		if kn > geometry.Epsilon {
			p.MassN = 1.0 / kn
		}
		p.MassT = 0
		if kt > geometry.Epsilon {
			p.MassT = 1.0 / kt
		}

		// restitution bias from the approach speed
		vn := c.relativeVelocity(p).Dot(n)
		p.VelocityBias = 0
		if vn < -step.RestitutionThreshold {
			p.VelocityBias = -c.Restitution * vn
		}

		// warm start
		impulse := n.Mul(p.AccumulatedN).Add(t.Mul(p.AccumulatedT))
		c.applyImpulse(p, impulse)
	}
}

// SolveVelocity runs one Gauss-Seidel pass over the points: friction first,
// clamped by the current normal impulse, then the non-penetration impulse.
// When the normal pass shrinks the accumulated normal impulse, the friction
// impulse is pulled back inside the new cone.
func (c *ContactConstraint) SolveVelocity() {
	n := c.Normal
	t := c.Tangent

	for i := range c.Points {
		p := &c.Points[i]

		// tangential
		vt := c.relativeVelocity(p).Dot(t)
		lambda := p.MassT * -vt
		maxFriction := c.Friction * p.AccumulatedN
		old := p.AccumulatedT
		p.AccumulatedT = geometry.Clamp(old+lambda, -maxFriction, maxFriction)
		c.applyImpulse(p, t.Mul(p.AccumulatedT-old))

		// normal
		vn := c.relativeVelocity(p).Dot(n)
		lambda = p.MassN * (-vn + p.VelocityBias)
		old = p.AccumulatedN
		p.AccumulatedN = math.Max(old+lambda, 0)
		c.applyImpulse(p, n.Mul(p.AccumulatedN-old))

		maxFriction = c.Friction * p.AccumulatedN
		if clamped := geometry.Clamp(p.AccumulatedT, -maxFriction, maxFriction); clamped != p.AccumulatedT {
			c.applyImpulse(p, t.Mul(clamped-p.AccumulatedT))
			p.AccumulatedT = clamped
		}
	}
}

// SolvePosition applies split pseudo-impulses against the remaining
// penetration at the current transforms. Returns the largest penetration
// seen, which the island uses for its early-out.
func (c *ContactConstraint) SolvePosition(step Step) float64 {
	ma := c.BodyA.Mass()
	mb := c.BodyB.Mass()
	n := c.Normal
	worst := 0.0

	for i := range c.Points {
		p := &c.Points[i]

		pa := c.BodyA.GetWorldPoint(p.LocalA)
		pb := c.BodyB.GetWorldPoint(p.LocalB)

		// the bodies separated the anchors along n by however much the
		// position iterations moved them; what is left is the penetration
		depth := p.Depth - pa.Sub(pb).Dot(n)
		worst = math.Max(worst, depth)

		correction := geometry.Clamp(step.Baumgarte*(depth-step.LinearSlop), 0, step.MaxLinearCorrection)
		if correction <= 0 {
			continue
		}

		ra := pa.Sub(c.BodyA.WorldCenter())
		rb := pb.Sub(c.BodyB.WorldCenter())
		ran := geometry.Cross(ra, n)
		rbn := geometry.Cross(rb, n)
		k := ma.InverseMass + mb.InverseMass + ma.InverseInertia*ran*ran + mb.InverseInertia*rbn*rbn
		if k < geometry.Epsilon {
			continue
		}
		impulse := n.Mul(correction / k)

		if c.BodyA.IsDynamic() {
			ta := c.BodyA.Transform()
			ta.Translate(impulse.Mul(ma.InverseMass))
			ta.RotateAbout(ma.InverseInertia*geometry.Cross(ra, impulse), c.BodyA.WorldCenter())
			c.BodyA.SetTransform(ta)
		}
		if c.BodyB.IsDynamic() {
			tb := c.BodyB.Transform()
			tb.Translate(impulse.Mul(-mb.InverseMass))
			tb.RotateAbout(-mb.InverseInertia*geometry.Cross(rb, impulse), c.BodyB.WorldCenter())
			c.BodyB.SetTransform(tb)
		}
	}
	return worst
}

// relativeVelocity is the velocity of A's contact point relative to B's.
func (c *ContactConstraint) relativeVelocity(p *SolverPoint) mgl64.Vec2 {
	va := c.BodyA.Velocity().Add(geometry.CrossSV(c.BodyA.AngularVelocity(), p.RA))
	vb := c.BodyB.Velocity().Add(geometry.CrossSV(c.BodyB.AngularVelocity(), p.RB))
	return va.Sub(vb)
}

// applyImpulse applies +impulse to body A and -impulse to body B at the
// contact point.
func (c *ContactConstraint) applyImpulse(p *SolverPoint, impulse mgl64.Vec2) {
	ma := c.BodyA.Mass()
	mb := c.BodyB.Mass()

	c.BodyA.SetVelocityDirect(
		c.BodyA.Velocity().Add(impulse.Mul(ma.InverseMass)),
		c.BodyA.AngularVelocity()+ma.InverseInertia*geometry.Cross(p.RA, impulse),
	)
	c.BodyB.SetVelocityDirect(
		c.BodyB.Velocity().Sub(impulse.Mul(mb.InverseMass)),
		c.BodyB.AngularVelocity()-mb.InverseInertia*geometry.Cross(p.RB, impulse),
	)
}
