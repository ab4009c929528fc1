package constraint

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

func defaultStep() Step {
	return Step{
		DT:                   1.0 / 60.0,
		InvDT:                60.0,
		Baumgarte:            0.2,
		LinearSlop:           0.005,
		MaxLinearCorrection:  0.2,
		RestitutionThreshold: 1.0,
	}
}

// boxOnFloor builds a unit box resting 2 cm into a static floor with a
// hand-made two-point manifold, the solver's most common configuration.
func boxOnFloor(t *testing.T, friction, restitution float64) (*ContactConstraint, *actor.Body) {
	t.Helper()

	boxShape, _ := geometry.NewRectangle(1, 1)
	box := actor.NewBody()
	bf, _ := box.AddShape(boxShape)
	_ = bf.SetFriction(friction)
	_ = bf.SetRestitution(restitution)
	box.UpdateMass(geometry.MassNormal)
	box.SetTransform(geometry.NewTransformAt(mgl64.Vec2{0, 0.48}, 0))

	floorShape, _ := geometry.NewRectangle(10, 1)
	floor := actor.NewBody()
	ff, _ := floor.AddShape(floorShape)
	_ = ff.SetFriction(friction)
	_ = ff.SetRestitution(restitution)
	floor.UpdateMass(geometry.MassInfinite)
	floor.SetTransform(geometry.NewTransformAt(mgl64.Vec2{0, -0.5}, 0))

	m := manifold.Manifold{
		Normal: mgl64.Vec2{0, 1},
		Points: []manifold.Point{
			{Id: manifold.PointId{RefEdge: 0, IncEdge: 2, ClipIndex: 0}, Point: mgl64.Vec2{-0.5, 0}, Depth: 0.02},
			{Id: manifold.PointId{RefEdge: 0, IncEdge: 2, ClipIndex: 1}, Point: mgl64.Vec2{0.5, 0}, Depth: 0.02},
		},
	}
	return NewContactConstraint(box, bf, floor, ff, m), box
}

func TestContactStopsApproach(t *testing.T) {
	c, box := boxOnFloor(t, 0, 0)
	box.SetVelocity(mgl64.Vec2{0, -2})

	step := defaultStep()
	c.Initialize(step)
	for i := 0; i < 10; i++ {
		c.SolveVelocity()
	}

	if box.Velocity().Y() < -1e-6 {
		t.Errorf("box still approaching after solve: v.y=%v", box.Velocity().Y())
	}
	for _, p := range c.Points {
		if p.AccumulatedN < 0 {
			t.Errorf("normal impulse must stay non-negative, got %v", p.AccumulatedN)
		}
	}
}

func TestContactFrictionCone(t *testing.T) {
	c, box := boxOnFloor(t, 0.5, 0)
	box.SetVelocity(mgl64.Vec2{3, -2})

	step := defaultStep()
	c.Initialize(step)
	for i := 0; i < 10; i++ {
		c.SolveVelocity()
	}

	for i, p := range c.Points {
		if p.AccumulatedN < 0 {
			t.Errorf("point %d: negative normal impulse %v", i, p.AccumulatedN)
		}
		if math.Abs(p.AccumulatedT) > c.Friction*p.AccumulatedN+1e-9 {
			t.Errorf("point %d: friction impulse %v outside the cone (max %v)",
				i, p.AccumulatedT, c.Friction*p.AccumulatedN)
		}
	}
}

func TestContactRestitutionBounce(t *testing.T) {
	c, box := boxOnFloor(t, 0, 1.0)
	box.SetVelocity(mgl64.Vec2{0, -3})

	step := defaultStep()
	c.Initialize(step)
	for i := 0; i < 10; i++ {
		c.SolveVelocity()
	}

	// restitution 1 reflects the approach speed
	if math.Abs(box.Velocity().Y()-3.0) > 1e-3 {
		t.Errorf("expected reflected velocity +3, got %v", box.Velocity().Y())
	}
}

func TestContactBelowThresholdNoBounce(t *testing.T) {
	c, box := boxOnFloor(t, 0, 1.0)
	// approach below the restitution threshold of 1
	box.SetVelocity(mgl64.Vec2{0, -0.5})

	step := defaultStep()
	c.Initialize(step)
	for i := 0; i < 10; i++ {
		c.SolveVelocity()
	}

	if box.Velocity().Y() > 1e-3 {
		t.Errorf("expected no bounce below the threshold, got v.y=%v", box.Velocity().Y())
	}
}

func TestContactWarmStartInheritance(t *testing.T) {
	c, _ := boxOnFloor(t, 0.3, 0)
	c.Points[0].AccumulatedN = 1.5
	c.Points[0].AccumulatedT = 0.2
	c.Points[1].AccumulatedN = 0.7

	// same ids persist, a new id appears
	m := manifold.Manifold{
		Normal: mgl64.Vec2{0, 1},
		Points: []manifold.Point{
			{Id: manifold.PointId{RefEdge: 0, IncEdge: 2, ClipIndex: 0}, Point: mgl64.Vec2{-0.4, 0}, Depth: 0.01},
			{Id: manifold.PointId{RefEdge: 0, IncEdge: 2, ClipIndex: 1, Flipped: true}, Point: mgl64.Vec2{0.6, 0}, Depth: 0.01},
		},
	}
	c.SetManifold(m)

	if c.Points[0].AccumulatedN != 1.5 || c.Points[0].AccumulatedT != 0.2 {
		t.Errorf("matching id must inherit impulses, got %+v", c.Points[0])
	}
	if c.Points[1].AccumulatedN != 0 {
		t.Errorf("new id must start cold, got %v", c.Points[1].AccumulatedN)
	}
}

func TestContactPositionCorrection(t *testing.T) {
	c, box := boxOnFloor(t, 0, 0)
	before := box.Transform().Position.Y()

	step := defaultStep()
	for i := 0; i < 5; i++ {
		c.SolvePosition(step)
	}

	after := box.Transform().Position.Y()
	if after <= before {
		t.Errorf("position correction must push the box out: %v -> %v", before, after)
	}
	// correction never overshoots the penetration
	if after > before+0.02 {
		t.Errorf("correction overshot: %v -> %v", before, after)
	}
}

func TestContactInfiniteMassUnmoved(t *testing.T) {
	c, box := boxOnFloor(t, 0, 0)
	box.SetVelocity(mgl64.Vec2{0, -2})
	floor := c.BodyB
	floorPos := floor.Transform().Position

	step := defaultStep()
	c.Initialize(step)
	for i := 0; i < 10; i++ {
		c.SolveVelocity()
	}
	c.SolvePosition(step)

	if floor.Velocity().Len() != 0 || floor.AngularVelocity() != 0 {
		t.Error("infinite mass body acquired velocity")
	}
	if floor.Transform().Position.Sub(floorPos).Len() != 0 {
		t.Error("infinite mass body moved")
	}
}
