// Package orbit moves objects around a fixed origin as time passes.
package orbit

import (
	"math"
	"time"

	"github.com/playperu/planetquest/internal/geo"
)

// Motion is the angular state of one moving object.
type Motion struct {
	angle float64
}

// Angle returns the current bearing in degrees, always in [0, 360).
func (m *Motion) Angle() float64 { return m.angle }

// Advance moves the object by speed degrees per elapsed millisecond.
func (m *Motion) Advance(speed float64, elapsed time.Duration) {
	if speed == 0 || elapsed <= 0 {
		return
	}
	ms := float64(elapsed) / float64(time.Millisecond)
	m.angle = wrap(m.angle + speed*ms)
}

// Position returns the live coordinate of an object orbiting origin at
// distance meters.
func (m *Motion) Position(origin geo.Coordinate, distance float64) geo.Coordinate {
	return geo.Offset(origin, distance, m.angle)
}

func wrap(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -tiny + 360 rounds to 360 in floating point.
	if deg >= 360 {
		deg = 0
	}
	return deg
}
