package actor

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

func dynamicBox(t *testing.T, w, h float64) *Body {
	t.Helper()
	shape, err := geometry.NewRectangle(w, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := NewBody()
	if _, err := b.AddShape(shape); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.UpdateMass(geometry.MassNormal)
	return b
}

func TestBodyMass(t *testing.T) {
	t.Run("unit box at density 1", func(t *testing.T) {
		b := dynamicBox(t, 1, 1)
		if math.Abs(b.Mass().Mass-1.0) > 1e-9 {
			t.Errorf("expected mass 1, got %v", b.Mass().Mass)
		}
		if !b.IsDynamic() {
			t.Error("expected a dynamic body")
		}
	})

	t.Run("mass not computed until requested", func(t *testing.T) {
		b := NewBody()
		if b.HasMass() {
			t.Error("fresh body must not have a computed mass")
		}
	})

	t.Run("infinite lock", func(t *testing.T) {
		b := dynamicBox(t, 1, 1)
		b.UpdateMass(geometry.MassInfinite)
		if !b.IsStatic() {
			t.Error("expected a static body")
		}
		if b.Mass().InverseMass != 0 || b.Mass().InverseInertia != 0 {
			t.Error("infinite mass must have zero inverses")
		}
	})

	t.Run("rotation disc radius", func(t *testing.T) {
		b := dynamicBox(t, 2, 2)
		want := math.Sqrt2
		if math.Abs(b.RotationDiscRadius()-want) > 1e-9 {
			t.Errorf("expected radius %v, got %v", want, b.RotationDiscRadius())
		}
	})
}

func TestBodyForces(t *testing.T) {
	t.Run("one-shot force retires after a step", func(t *testing.T) {
		b := dynamicBox(t, 1, 1)
		b.ApplyForce(mgl64.Vec2{10, 0})

		b.AccumulateForces(1.0 / 60.0)
		if b.Force().X() != 10 {
			t.Errorf("expected accumulated force 10, got %v", b.Force())
		}

		b.AccumulateForces(1.0 / 60.0)
		if b.Force().X() != 0 {
			t.Errorf("expected the force to retire, got %v", b.Force())
		}
	})

	t.Run("timed force persists for its duration", func(t *testing.T) {
		b := dynamicBox(t, 1, 1)
		b.ApplyForceFor(mgl64.Vec2{10, 0}, 0.049)

		dt := 1.0 / 60.0
		steps := 0
		for {
			b.AccumulateForces(dt)
			if b.Force().X() == 0 {
				break
			}
			steps++
			if steps > 10 {
				t.Fatal("timed force never retired")
			}
		}
		// 0.049 s at 60 Hz covers 3 accumulations
		if steps != 3 {
			t.Errorf("expected 3 active steps, got %d", steps)
		}
	})

	t.Run("force at a point produces torque", func(t *testing.T) {
		b := dynamicBox(t, 1, 1)
		b.ApplyForceAt(mgl64.Vec2{0, 10}, mgl64.Vec2{1, 0})
		b.AccumulateForces(1.0 / 60.0)
		if math.Abs(b.Torque()-10.0) > 1e-9 {
			t.Errorf("expected torque 10, got %v", b.Torque())
		}
	})

	t.Run("infinite mass ignores integration", func(t *testing.T) {
		b := dynamicBox(t, 1, 1)
		b.UpdateMass(geometry.MassInfinite)
		b.ApplyForce(mgl64.Vec2{100, 0})
		b.ApplyTorque(50)
		b.AccumulateForces(1.0 / 60.0)
		b.IntegrateVelocities(1.0/60.0, mgl64.Vec2{0, -9.81})

		if b.Velocity().Len() != 0 || b.AngularVelocity() != 0 {
			t.Errorf("infinite mass must not move: v=%v w=%v", b.Velocity(), b.AngularVelocity())
		}
	})
}

func TestBodyIntegration(t *testing.T) {
	t.Run("gravity accelerates", func(t *testing.T) {
		b := dynamicBox(t, 1, 1)
		dt := 1.0 / 60.0
		b.IntegrateVelocities(dt, mgl64.Vec2{0, -9.81})
		if math.Abs(b.Velocity().Y()+9.81*dt) > 1e-12 {
			t.Errorf("expected v.y %v, got %v", -9.81*dt, b.Velocity().Y())
		}
	})

	t.Run("gravity scale", func(t *testing.T) {
		b := dynamicBox(t, 1, 1)
		b.SetGravityScale(0)
		b.IntegrateVelocities(1.0/60.0, mgl64.Vec2{0, -9.81})
		if b.Velocity().Len() != 0 {
			t.Errorf("expected zero velocity with gravity scale 0, got %v", b.Velocity())
		}
	})

	t.Run("damping slows", func(t *testing.T) {
		b := dynamicBox(t, 1, 1)
		if err := b.SetLinearDamping(1.0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b.SetVelocity(mgl64.Vec2{10, 0})
		dt := 1.0 / 60.0
		b.IntegrateVelocities(dt, mgl64.Vec2{})
		want := 10.0 / (1.0 + dt)
		if math.Abs(b.Velocity().X()-want) > 1e-12 {
			t.Errorf("expected %v, got %v", want, b.Velocity().X())
		}
	})

	t.Run("negative damping rejected, zero accepted", func(t *testing.T) {
		b := dynamicBox(t, 1, 1)
		if err := b.SetLinearDamping(-0.1); err == nil {
			t.Error("expected error for negative damping")
		}
		if err := b.SetAngularDamping(0); err != nil {
			t.Errorf("zero damping must be accepted: %v", err)
		}
	})
}

func TestBodySleepState(t *testing.T) {
	b := dynamicBox(t, 1, 1)
	b.SetVelocity(mgl64.Vec2{5, 0})
	b.ApplyTorque(1)

	b.SetAsleep(true)
	if !b.IsAsleep() {
		t.Fatal("expected asleep")
	}
	if b.Velocity().Len() != 0 || b.AngularVelocity() != 0 {
		t.Error("sleep must zero the velocities")
	}
	b.AccumulateForces(1.0 / 60.0)
	if b.Force().Len() != 0 || b.Torque() != 0 {
		t.Error("sleep must clear the accumulators")
	}

	// applying a force wakes
	b.ApplyForce(mgl64.Vec2{1, 0})
	if b.IsAsleep() {
		t.Error("applying a force must wake the body")
	}
}

func TestBodyWorldLocalRoundTrip(t *testing.T) {
	b := dynamicBox(t, 1, 1)
	b.SetTransform(geometry.NewTransformAt(mgl64.Vec2{5, -3}, 1.2))

	p := mgl64.Vec2{2.5, 7.1}
	back := b.GetWorldPoint(b.GetLocalPoint(p))
	if back.Sub(p).Len() > 1e-9 {
		t.Errorf("round trip failed: %v -> %v", p, back)
	}
}

func TestFixtureValidation(t *testing.T) {
	shape, _ := geometry.NewCircle(1)
	f, err := NewFixture(shape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.SetDensity(0); err == nil {
		t.Error("expected error for zero density")
	}
	if err := f.SetFriction(1.5); err == nil {
		t.Error("expected error for friction above 1")
	}
	if err := f.SetRestitution(-0.1); err == nil {
		t.Error("expected error for negative restitution")
	}
	if _, err := NewFixture(nil); err == nil {
		t.Error("expected error for nil shape")
	}
}

func TestFilter(t *testing.T) {
	a := Filter{Category: 1, Mask: 2}
	b := Filter{Category: 2, Mask: 1}
	c := Filter{Category: 4, Mask: 4}

	if !a.Allows(b) {
		t.Error("expected a and b to collide")
	}
	if a.Allows(c) {
		t.Error("expected a and c not to collide")
	}

	t.Run("group override", func(t *testing.T) {
		g1 := Filter{Category: 1, Mask: 0, Group: 3}
		g2 := Filter{Category: 2, Mask: 0, Group: 3}
		if !g1.Allows(g2) {
			t.Error("positive group must force collision")
		}
		n1 := Filter{Category: 1, Mask: ^uint64(0), Group: -3}
		n2 := Filter{Category: 2, Mask: ^uint64(0), Group: -3}
		if n1.Allows(n2) {
			t.Error("negative group must suppress collision")
		}
	})
}
