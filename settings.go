// Package quill is a real-time 2D impulse-based rigid body dynamics
// simulator for convex shapes. A World advances bodies under forces and
// resolves contacts and joints with a warm-started sequential-impulse
// solver over independently solved islands, with continuous collision
// detection for fast bodies.
package quill

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// CCDMode selects which bodies get continuous collision detection.
type CCDMode int

const (
	// CCDBullets runs time-of-impact checks for bodies flagged bullet.
	CCDBullets CCDMode = iota
	// CCDAll runs time-of-impact checks for every dynamic body.
	CCDAll
	// CCDNone disables continuous collision detection.
	CCDNone
)

// Settings are the world tunables. The zero value is not usable; start from
// DefaultSettings. The yaml tags let an embedding engine keep these in its
// config file.
type Settings struct {
	// StepFrequency is the fixed step rate in Hz used by Update.
	StepFrequency float64 `yaml:"step_frequency"`

	VelocityIterations int `yaml:"velocity_iterations"`
	PositionIterations int `yaml:"position_iterations"`

	// Baumgarte scales position error feedback per position iteration.
	Baumgarte           float64 `yaml:"baumgarte"`
	LinearSlop          float64 `yaml:"linear_slop"`
	MaxLinearCorrection float64 `yaml:"max_linear_correction"`

	// RestitutionThreshold is the minimum approach speed for bounce.
	RestitutionThreshold float64 `yaml:"restitution_threshold"`

	// MaxRotation clamps per-step rotation in radians; 0 disables the clamp.
	MaxRotation float64 `yaml:"max_rotation"`

	SleepLinearVelocity  float64 `yaml:"sleep_linear_velocity"`
	SleepAngularVelocity float64 `yaml:"sleep_angular_velocity"`
	SleepTime            float64 `yaml:"sleep_time"`

	CCD CCDMode `yaml:"ccd"`

	// MaxTOIIterations caps the conservative advancement loop per pair.
	MaxTOIIterations int `yaml:"max_toi_iterations"`
	// MaxSubSteps caps CCD sub-steps per body per frame.
	MaxSubSteps int `yaml:"max_sub_steps"`
}

// DefaultSettings returns the standard tunables: 60 Hz, 10 velocity and 5
// position iterations, Baumgarte 0.2, slop 5 mm.
func DefaultSettings() Settings {
	return Settings{
		StepFrequency:        60.0,
		VelocityIterations:   10,
		PositionIterations:   5,
		Baumgarte:            0.2,
		LinearSlop:           0.005,
		MaxLinearCorrection:  0.2,
		RestitutionThreshold: 1.0,
		MaxRotation:          0.5 * math.Pi,
		SleepLinearVelocity:  0.01,
		SleepAngularVelocity: 2.0 * math.Pi / 180.0,
		SleepTime:            0.5,
		CCD:                  CCDBullets,
		MaxTOIIterations:     20,
		MaxSubSteps:          8,
	}
}

// ParseSettings decodes settings from yaml, filling omitted fields with the
// defaults.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings the solver cannot run with.
func (s Settings) Validate() error {
	if s.StepFrequency <= 0 || math.IsNaN(s.StepFrequency) {
		return fmt.Errorf("settings: step frequency must be positive, got %v", s.StepFrequency)
	}
	if s.VelocityIterations < 1 {
		return fmt.Errorf("settings: need at least 1 velocity iteration, got %d", s.VelocityIterations)
	}
	if s.PositionIterations < 1 {
		return fmt.Errorf("settings: need at least 1 position iteration, got %d", s.PositionIterations)
	}
	if s.Baumgarte < 0 || s.Baumgarte > 1 {
		return fmt.Errorf("settings: baumgarte must be in [0, 1], got %v", s.Baumgarte)
	}
	if s.LinearSlop < 0 || s.SleepTime < 0 {
		return fmt.Errorf("settings: negative slop or sleep time")
	}
	return nil
}
