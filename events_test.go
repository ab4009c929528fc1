package quill

import (
	"testing"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/constraint"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventRecorder struct {
	begins, persists, ends int
	preSteps, postSteps    int
	postSolves             int
}

func (r *eventRecorder) listener() *Listener {
	return &Listener{
		OnContactBegin:   func(*constraint.ContactConstraint) { r.begins++ },
		OnContactPersist: func(*constraint.ContactConstraint) { r.persists++ },
		OnContactEnd:     func(*constraint.ContactConstraint) { r.ends++ },
		OnPreStep:        func(float64) { r.preSteps++ },
		OnPostStep:       func(float64) { r.postSteps++ },
		OnPostSolve:      func(*constraint.ContactConstraint) { r.postSolves++ },
	}
}

func TestContactLifecycleEvents(t *testing.T) {
	w := newTestWorld(t)
	w.SetGravity(mgl64.Vec2{0, 0})
	rec := &eventRecorder{}
	w.AddListener(rec.listener())

	addBox(t, w, 0, 0, 2, 2, geometry.MassInfinite)
	mover := addBox(t, w, 5, 0, 2, 2, geometry.MassNormal)
	mover.SetVelocity(mgl64.Vec2{-4, 0})
	mover.SetAutoSleep(false)

	// approach until contact begins
	for i := 0; i < 120 && rec.begins == 0; i++ {
		require.NoError(t, w.Step(dt))
	}
	require.Equal(t, 1, rec.begins, "contact must begin")

	// the solver pushes the box back out; persist may fire while touching
	mover.SetVelocity(mgl64.Vec2{4, 0})
	for i := 0; i < 120 && rec.ends == 0; i++ {
		require.NoError(t, w.Step(dt))
	}
	assert.Equal(t, 1, rec.ends, "contact must end on separation")
	assert.Equal(t, rec.preSteps, rec.postSteps)
	assert.Positive(t, rec.postSolves, "post-solve must fire for solved contacts")
}

func TestSensorDetectsWithoutResolving(t *testing.T) {
	w := newTestWorld(t)
	w.SetGravity(mgl64.Vec2{0, 0})
	rec := &eventRecorder{}
	w.AddListener(rec.listener())

	zone := addBox(t, w, 0, 0, 4, 4, geometry.MassInfinite)
	zone.Fixtures()[0].SetSensor(true)

	mover := addCircle(t, w, -6, 0, 0.5, geometry.MassNormal)
	mover.SetVelocity(mgl64.Vec2{5, 0})
	mover.SetAutoSleep(false)

	for i := 0; i < 180; i++ {
		require.NoError(t, w.Step(dt))
	}

	assert.Positive(t, rec.begins, "sensor overlap must report begin")
	assert.Positive(t, rec.ends, "sensor overlap must report end")
	// the sensor never deflected the body
	assert.InDelta(t, 5.0, mover.Velocity().X(), 1e-9)
	assert.InDelta(t, 0.0, mover.Velocity().Y(), 1e-9)
	assert.Greater(t, mover.Transform().Position.X(), 2.5, "body must pass through the sensor")
}

func TestSensorPairFiresNoPersist(t *testing.T) {
	w := newTestWorld(t)
	w.SetGravity(mgl64.Vec2{0, 0})
	rec := &eventRecorder{}
	w.AddListener(rec.listener())

	a := addBox(t, w, 0, 0, 2, 2, geometry.MassInfinite)
	a.Fixtures()[0].SetSensor(true)
	b := addBox(t, w, 0.5, 0, 2, 2, geometry.MassNormal)
	b.Fixtures()[0].SetSensor(true)
	b.SetAutoSleep(false)

	for i := 0; i < 10; i++ {
		require.NoError(t, w.Step(dt))
	}

	assert.Equal(t, 1, rec.begins)
	assert.Zero(t, rec.persists, "sensor/sensor pairs never persist")
}

func TestPreSolveDisablesContact(t *testing.T) {
	w := newTestWorld(t)
	w.AddListener(&Listener{
		OnPreSolve: func(*constraint.ContactConstraint) bool { return false },
	})

	addBox(t, w, 0, -0.5, 20, 1, geometry.MassInfinite)
	box := addBox(t, w, 0, 5, 1, 1, geometry.MassNormal)

	// with every contact vetoed the box falls through the floor
	for i := 0; i < 180; i++ {
		require.NoError(t, w.Step(dt))
	}
	assert.Less(t, box.Transform().Position.Y(), -2.0)
}

func TestPanickingListenerDoesNotBreakStep(t *testing.T) {
	w := newTestWorld(t)
	w.AddListener(&Listener{
		OnPreStep:      func(float64) { panic("listener bug") },
		OnContactBegin: func(*constraint.ContactConstraint) { panic("listener bug") },
	})

	addBox(t, w, 0, -0.5, 20, 1, geometry.MassInfinite)
	box := addBox(t, w, 0, 2, 1, 1, geometry.MassNormal)

	for i := 0; i < 240; i++ {
		require.NoError(t, w.Step(dt))
	}
	// the simulation kept going: the box landed normally
	assert.InDelta(t, 0.5, box.Transform().Position.Y(), 0.06)
}

func TestSleepWakeEvents(t *testing.T) {
	w := newTestWorld(t)
	var slept, woke int
	w.AddListener(&Listener{
		OnSleep: func(*actor.Body) { slept++ },
		OnWake:  func(*actor.Body) { woke++ },
	})

	addBox(t, w, 0, -0.5, 20, 1, geometry.MassInfinite)
	box := addBox(t, w, 0, 0.45, 1, 1, geometry.MassNormal)

	for i := 0; i < 300 && !box.IsAsleep(); i++ {
		require.NoError(t, w.Step(dt))
	}
	require.True(t, box.IsAsleep())
	assert.Equal(t, 1, slept)

	w.Wake(box)
	assert.False(t, box.IsAsleep())
	assert.Equal(t, 1, woke)
}
