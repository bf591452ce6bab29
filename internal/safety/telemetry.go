package safety

import (
	"math/rand/v2"

	"GuardianLink/internal/models"
)

// Reading is one telemetry sample. Nil fields are unavailable.
type Reading struct {
	Latitude  *float64
	Longitude *float64
	Battery   *int
	Motion    models.Motion
}

// Telemetry samples the device sensors.
type Telemetry interface {
	Read(shareLocation bool) Reading
}

const (
	MockLatitude  = 34.0522
	MockLongitude = -118.2437
	MockBattery   = 88
)

// MockTelemetry reports a fixed location and battery level and a random
// motion state.
type MockTelemetry struct {
	// Moving overrides the coin flip when set.
	Moving func() bool
}

func (m MockTelemetry) Read(shareLocation bool) Reading {
	moving := rand.IntN(2) == 1
	if m.Moving != nil {
		moving = m.Moving()
	}
	r := Reading{Motion: models.MotionStill}
	if moving {
		r.Motion = models.MotionMoving
	}
	battery := MockBattery
	r.Battery = &battery
	if shareLocation {
		lat, lng := MockLatitude, MockLongitude
		r.Latitude, r.Longitude = &lat, &lng
	}
	return r
}
