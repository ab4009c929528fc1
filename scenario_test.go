package quill

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/joint"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRevolute(t *testing.T, b1, b2 *actor.Body) joint.Joint {
	t.Helper()
	j, err := joint.NewRevolute(b1, b2, b1.WorldCenter())
	require.NoError(t, err)
	return j
}

func stepN(t *testing.T, w *World, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, w.Step(dt))
	}
}

// A unit box dropped from height settles on the floor and falls asleep.
func TestScenarioDroppingBox(t *testing.T) {
	bounds, err := NewBounds(mgl64.Vec2{0, 10}, 40, 40)
	require.NoError(t, err)
	w, err := NewWorld(bounds, DefaultSettings())
	require.NoError(t, err)

	// floor top surface at y = 0
	addBox(t, w, 0, -0.5, 20, 1, geometry.MassInfinite)
	box := addBox(t, w, 0, 10, 1, 1, geometry.MassNormal)

	stepN(t, w, 120)

	assert.InDelta(t, 0.5, box.Transform().Position.Y(), 0.06,
		"box must rest with its center half a side above the floor")
	assert.Less(t, box.Velocity().Len(), w.Settings().SleepLinearVelocity*2,
		"box must be at rest")

	// asleep within 300 further steps
	asleepAt := -1
	for i := 0; i < 300; i++ {
		require.NoError(t, w.Step(dt))
		if box.IsAsleep() {
			asleepAt = i
			break
		}
	}
	assert.GreaterOrEqual(t, asleepAt, 0, "box must fall asleep")
	assert.Zero(t, box.Velocity().Len())
}

// A column of stacked boxes stays put and goes to sleep.
func TestScenarioStackedBoxes(t *testing.T) {
	w := newTestWorld(t)
	addBox(t, w, 0, -0.5, 40, 1, geometry.MassInfinite)

	boxes := make([]*actor.Body, 0, 10)
	for i := 0; i < 10; i++ {
		boxes = append(boxes, addBox(t, w, 0, 0.5+float64(i), 1, 1, geometry.MassNormal))
	}

	stepN(t, w, 600)

	asleep := 0
	for i, b := range boxes {
		drift := math.Abs(b.Transform().Position.X())
		assert.Less(t, drift, 0.05, "box %d drifted laterally by %v", i, drift)
		if b.IsAsleep() {
			asleep++
		}
	}
	assert.GreaterOrEqual(t, asleep, 8, "the stack must be mostly asleep")

	// stacked in order, roughly one unit apart
	for i := 1; i < len(boxes); i++ {
		dy := boxes[i].Transform().Position.Y() - boxes[i-1].Transform().Position.Y()
		assert.InDelta(t, 1.0, dy, 0.1, "box %d spacing", i)
	}
}

// A motorized revolute joint reaches its target speed and turns a full
// revolution in the expected time.
func TestScenarioRevoluteMotor(t *testing.T) {
	w := newTestWorld(t)
	w.SetGravity(mgl64.Vec2{0, 0})

	ground := addBox(t, w, 0, 0, 1, 1, geometry.MassInfinite)
	wheel := addBox(t, w, 0, 0, 1, 1, geometry.MassNormal)

	j, err := joint.NewRevolute(ground, wheel, mgl64.Vec2{0, 0})
	require.NoError(t, err)
	require.NoError(t, j.SetMotor(math.Pi, 100))
	require.NoError(t, w.AddJoint(j))

	stepN(t, w, 120) // 2 seconds

	assert.InDelta(t, 2*math.Pi, math.Abs(j.RelativeAngle()), 0.05,
		"one full relative revolution in two seconds at pi rad/s")
}

// A fast circle tunnels through a thin wall without CCD and is stopped by
// it with CCD.
func TestScenarioBulletWall(t *testing.T) {
	buildScene := func(t *testing.T, mode CCDMode, bullet bool) (*World, *actor.Body) {
		settings := DefaultSettings()
		settings.CCD = mode
		w, err := NewWorld(nil, settings)
		require.NoError(t, err)
		w.SetGravity(mgl64.Vec2{0, 0})

		addBox(t, w, 0, 0, 0.05, 4, geometry.MassInfinite) // thin wall
		c := addCircle(t, w, -5, 0, 0.1, geometry.MassNormal)
		c.SetBullet(bullet)
		c.SetVelocity(mgl64.Vec2{500, 0})
		return w, c
	}

	t.Run("tunnels without CCD", func(t *testing.T) {
		w, c := buildScene(t, CCDNone, false)
		stepN(t, w, 5)
		assert.Greater(t, c.Transform().Position.X(), 0.0,
			"discrete stepping at 500 m/s must pass a 5 cm wall")
	})

	t.Run("stopped with CCD", func(t *testing.T) {
		w, c := buildScene(t, CCDBullets, true)
		for i := 0; i < 30; i++ {
			require.NoError(t, w.Step(dt))
			require.LessOrEqual(t, c.Transform().Position.X(), 0.0,
				"bullet crossed the wall at step %d", i)
		}
	})
}

// Restitution 1, no friction, no gravity: kinetic energy does not grow.
func TestScenarioEnergyConservation(t *testing.T) {
	w := newTestWorld(t)
	w.SetGravity(mgl64.Vec2{0, 0})

	mk := func(x, vx float64) *actor.Body {
		b := addCircle(t, w, x, 0, 0.5, geometry.MassNormal)
		b.Fixtures()[0].SetRestitution(1.0)
		b.Fixtures()[0].SetFriction(0)
		b.SetVelocity(mgl64.Vec2{vx, 0})
		b.SetAutoSleep(false)
		return b
	}
	a := mk(-3, 5)
	b := mk(3, -5)

	energy := func() float64 {
		e := 0.0
		for _, body := range []*actor.Body{a, b} {
			m := body.Mass()
			e += 0.5*m.Mass*body.Velocity().Dot(body.Velocity()) +
				0.5*m.Inertia*body.AngularVelocity()*body.AngularVelocity()
		}
		return e
	}

	initial := energy()
	for i := 0; i < 120; i++ {
		require.NoError(t, w.Step(dt))
		require.LessOrEqual(t, energy(), initial*(1.0+1e-6),
			"energy grew at step %d", i)
	}

	// the head-on collision actually happened and reversed the motion
	assert.Positive(t, b.Velocity().X())
	assert.Negative(t, a.Velocity().X())
}

// Islands are independent: two separated piles, waking one leaves the
// other asleep.
func TestScenarioIslandIsolation(t *testing.T) {
	w := newTestWorld(t)
	addBox(t, w, 0, -0.5, 100, 1, geometry.MassInfinite)

	left := addBox(t, w, -10, 0.45, 1, 1, geometry.MassNormal)
	right := addBox(t, w, 10, 0.45, 1, 1, geometry.MassNormal)

	// let both settle and sleep
	for i := 0; i < 600 && !(left.IsAsleep() && right.IsAsleep()); i++ {
		require.NoError(t, w.Step(dt))
	}
	require.True(t, left.IsAsleep())
	require.True(t, right.IsAsleep())

	// waking the left pile must not disturb the right one
	left.ApplyForce(mgl64.Vec2{50, 0})
	stepN(t, w, 10)

	assert.False(t, left.IsAsleep())
	assert.True(t, right.IsAsleep(), "separate islands must not wake each other")
}
