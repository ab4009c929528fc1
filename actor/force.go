package actor

import "github.com/go-gl/mathgl/mgl64"

// Force is a time-scoped force record. Remaining decreases as steps consume
// it; a record with Remaining <= 0 after a step is retired in place. A zero
// Remaining at creation means "this step only".
type Force struct {
	Value     mgl64.Vec2
	Point     mgl64.Vec2
	AtPoint   bool
	Remaining float64
}

// Torque is the angular counterpart of Force.
type Torque struct {
	Value     float64
	Remaining float64
}

// IsComplete reports whether the record has been fully applied.
func (f Force) IsComplete() bool {
	return f.Remaining <= 0
}

// IsComplete reports whether the record has been fully applied.
func (t Torque) IsComplete() bool {
	return t.Remaining <= 0
}
