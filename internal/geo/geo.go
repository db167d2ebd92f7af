// Package geo places points around an observer on the Earth's surface.
//
// Offsets use an equirectangular approximation that is only accurate for
// distances that are small relative to the Earth's radius (tens of km) and
// away from the poles, where cos(latitude) tends to zero.
package geo

import "math"

// EarthRadius is the WGS 84 equatorial radius in meters. Offset and Distance
// share it so that placing an object and measuring it back agree.
const EarthRadius = 6378137.0

// MaxRingSegments caps the number of points returned by Ring.
const MaxRingSegments = 360

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Offset returns the coordinate distance meters away from origin along
// bearing, measured in degrees clockwise from north.
func Offset(origin Coordinate, distance, bearing float64) Coordinate {
	b := radians(bearing)
	dLat := distance * math.Cos(b) / EarthRadius
	dLon := distance * math.Sin(b) / (EarthRadius * math.Cos(radians(origin.Latitude)))
	return Coordinate{
		Latitude:  origin.Latitude + degrees(dLat),
		Longitude: origin.Longitude + degrees(dLon),
	}
}

// Distance returns the great-circle distance between a and b in meters
// using the haversine formula.
func Distance(a, b Coordinate) float64 {
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)
	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(radians(a.Latitude))*math.Cos(radians(b.Latitude))*math.Pow(math.Sin(dLon/2), 2)
	return EarthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Ring returns evenly spaced points on the circle of the given radius around
// origin, starting at bearing 0. A non-positive segments value picks a count
// proportional to the radius, between 1 and MaxRingSegments.
func Ring(origin Coordinate, distance float64, segments int) []Coordinate {
	if segments <= 0 {
		// Clamp before converting: large radii overflow int.
		n := math.Round(20 + distance*20)
		if !(n < MaxRingSegments) {
			n = MaxRingSegments
		}
		segments = max(int(n), 1)
	}
	segments = min(segments, MaxRingSegments)

	points := make([]Coordinate, segments)
	for i := range points {
		points[i] = Offset(origin, distance, 360/float64(segments)*float64(i))
	}
	return points
}
