package radar

import (
	"math"

	"whisper-load.klederson.com/internal/config"
)

// Trail lights the stretch of orbit the selected source has just covered.
type Trail struct {
	Angle float64 // Source angle in radians [0, 2π)
}

// NewTrail creates a trail with its head at angle.
func NewTrail(angle float64) *Trail {
	return &Trail{Angle: NormalizeAngle(angle)}
}

// Follow moves the trail head to a source's (possibly unwrapped) angle.
func (t *Trail) Follow(angle float64) {
	t.Angle = NormalizeAngle(angle)
}

// Degrees returns the trail head angle in degrees.
func (t *Trail) Degrees() float64 {
	return t.Angle * 180 / math.Pi
}

// Intensity returns the glow intensity [0, 1] for a given cell angle.
// Sources move counter-clockwise, so the trail extends TrailDeg clockwise
// of the head. Returns 0 outside the trail or on a nil trail.
func (t *Trail) Intensity(cellAngle float64) float64 {
	if t == nil {
		return 0
	}
	diff := NormalizeAngle(t.Angle - cellAngle)

	trailRad := config.TrailDeg * math.Pi / 180.0
	if diff > trailRad {
		return 0
	}

	// Linear falloff: 1.0 at the head, 0.0 at the tail
	return 1.0 - diff/trailRad
}
