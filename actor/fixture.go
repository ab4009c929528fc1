package actor

import (
	"fmt"
	"math"

	"github.com/akmonengine/quill/geometry"
)

// Fixture binds a convex shape to a body with its surface material, density
// and collision filter. A sensor fixture is detected and reported but never
// resolved.
type Fixture struct {
	Shape       geometry.Convex
	Filter      Filter
	UserData    any
	density     float64
	friction    float64
	restitution float64
	sensor      bool
}

// NewFixture creates a fixture with density 1, friction 0.2 and no
// restitution.
func NewFixture(shape geometry.Convex) (*Fixture, error) {
	if shape == nil {
		return nil, fmt.Errorf("fixture: nil shape")
	}
	return &Fixture{
		Shape:       shape,
		Filter:      DefaultFilter(),
		density:     1.0,
		friction:    0.2,
		restitution: 0.0,
	}, nil
}

// Density returns the fixture density.
func (f *Fixture) Density() float64 {
	return f.density
}

// SetDensity sets the density. Must be positive.
func (f *Fixture) SetDensity(density float64) error {
	if density <= 0 || math.IsNaN(density) {
		return fmt.Errorf("fixture: density must be positive, got %v", density)
	}
	f.density = density
	return nil
}

// Friction returns the friction coefficient.
func (f *Fixture) Friction() float64 {
	return f.friction
}

// SetFriction sets the friction coefficient in [0, 1].
func (f *Fixture) SetFriction(friction float64) error {
	if friction < 0 || friction > 1 || math.IsNaN(friction) {
		return fmt.Errorf("fixture: friction must be in [0, 1], got %v", friction)
	}
	f.friction = friction
	return nil
}

// Restitution returns the restitution coefficient.
func (f *Fixture) Restitution() float64 {
	return f.restitution
}

// SetRestitution sets the restitution coefficient in [0, 1].
func (f *Fixture) SetRestitution(restitution float64) error {
	if restitution < 0 || restitution > 1 || math.IsNaN(restitution) {
		return fmt.Errorf("fixture: restitution must be in [0, 1], got %v", restitution)
	}
	f.restitution = restitution
	return nil
}

// IsSensor reports whether the fixture only generates events.
func (f *Fixture) IsSensor() bool {
	return f.sensor
}

// SetSensor toggles sensor behavior.
func (f *Fixture) SetSensor(sensor bool) {
	f.sensor = sensor
}
