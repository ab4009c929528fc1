package geometry

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MassType classifies how a body responds to forces.
type MassType int

const (
	// MassNormal bodies translate and rotate under impulses.
	MassNormal MassType = iota
	// MassInfinite bodies never move (static geometry).
	MassInfinite
	// MassFixedLinear bodies rotate but do not translate.
	MassFixedLinear
	// MassFixedAngular bodies translate but do not rotate.
	MassFixedAngular
)

// Mass holds the mass, rotational inertia and local center of a body or
// fixture. InverseMass and InverseInertia are cached because the solver only
// ever multiplies by them; both are zero for the locked degrees of freedom.
type Mass struct {
	Type           MassType
	Center         mgl64.Vec2
	Mass           float64
	Inertia        float64
	InverseMass    float64
	InverseInertia float64
}

// NewMass creates a normal mass from explicit values. A zero mass and
// inertia collapse to an infinite mass.
func NewMass(center mgl64.Vec2, mass, inertia float64) (Mass, error) {
	if mass < 0 {
		return Mass{}, fmt.Errorf("mass: negative mass %v", mass)
	}
	if inertia < 0 {
		return Mass{}, fmt.Errorf("mass: negative inertia %v", inertia)
	}
	m := Mass{Center: center, Mass: mass, Inertia: inertia}
	switch {
	case mass == 0 && inertia == 0:
		m.Type = MassInfinite
	case mass == 0:
		m.Type = MassFixedLinear
		m.InverseInertia = 1.0 / inertia
	case inertia == 0:
		m.Type = MassFixedAngular
		m.InverseMass = 1.0 / mass
	default:
		m.Type = MassNormal
		m.InverseMass = 1.0 / mass
		m.InverseInertia = 1.0 / inertia
	}
	return m, nil
}

// InfiniteMass creates an immovable mass centered at the given point.
func InfiniteMass(center mgl64.Vec2) Mass {
	return Mass{Type: MassInfinite, Center: center}
}

// IsInfinite reports whether the mass resists all motion.
func (m Mass) IsInfinite() bool {
	return m.Type == MassInfinite
}

// Lock converts the mass to the requested type, zeroing the corresponding
// inverse terms. Used when the caller pins a degree of freedom after the
// fixtures decided the raw values.
func (m Mass) Lock(t MassType) Mass {
	out := m
	out.Type = t
	switch t {
	case MassInfinite:
		out.InverseMass = 0
		out.InverseInertia = 0
	case MassFixedLinear:
		out.InverseMass = 0
	case MassFixedAngular:
		out.InverseInertia = 0
	case MassNormal:
		if m.Mass > 0 {
			out.InverseMass = 1.0 / m.Mass
		}
		if m.Inertia > 0 {
			out.InverseInertia = 1.0 / m.Inertia
		}
	}
	return out
}

// CombineMasses composes per-fixture masses into one body mass.
//
// The combined center is the mass-weighted centroid; the combined inertia
// applies the parallel axis theorem: I = Σ (Iᵢ + mᵢ·|cᵢ − c|²). If every
// input is infinite the result is infinite, centered at the average of the
// input centers.
func CombineMasses(masses []Mass) Mass {
	if len(masses) == 0 {
		return InfiniteMass(mgl64.Vec2{})
	}

	var center mgl64.Vec2
	var mass, inertia float64
	infinite := true

	for _, m := range masses {
		if !m.IsInfinite() {
			infinite = false
		}
		mass += m.Mass
		center = center.Add(m.Center.Mul(m.Mass))
	}

	if infinite || mass < Epsilon {
		avg := mgl64.Vec2{}
		for _, m := range masses {
			avg = avg.Add(m.Center)
		}
		return InfiniteMass(avg.Mul(1.0 / float64(len(masses))))
	}

	center = center.Mul(1.0 / mass)
	for _, m := range masses {
		d := m.Center.Sub(center)
		inertia += m.Inertia + m.Mass*d.Dot(d)
	}

	out, _ := NewMass(center, mass, inertia)
	return out
}

// IsValidMass reports whether the mass contains only finite values.
func IsValidMass(m Mass) bool {
	return !math.IsNaN(m.Mass) && !math.IsNaN(m.Inertia) && IsValidVec(m.Center)
}
