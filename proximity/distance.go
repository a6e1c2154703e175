package proximity

import (
	"math"

	"geocell/geohash"
)

const earthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters between a and b.
func Haversine(a, b geohash.Coord) float64 {
	dLat := toRad(b.Y - a.Y)
	dLon := toRad(b.X - a.X)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Y))*math.Cos(toRad(b.Y))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
