// Package geo holds the great-circle math shared by ranking and animation.
package geo

import (
	"math"

	"facility-route-service/internal/domain"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between a and b in kilometers.
// The error against an ellipsoid model is negligible at city scale.
func DistanceKm(a, b domain.Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push h a hair above 1 for antipodal points.
	h = math.Min(1, h)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// DistanceMeters is DistanceKm scaled to meters.
func DistanceMeters(a, b domain.Coordinate) float64 {
	return DistanceKm(a, b) * 1000
}

// PathLengthsMeters returns the cumulative length at each vertex of path,
// starting with 0.
func PathLengthsMeters(path []domain.Coordinate) []float64 {
	if len(path) == 0 {
		return nil
	}

	out := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		out[i] = out[i-1] + DistanceMeters(path[i-1], path[i])
	}
	return out
}

// Interpolate returns the point a fraction t of the way from a to b.
// Linear in degrees, which is indistinguishable from the great circle over
// one route segment.
func Interpolate(a, b domain.Coordinate, t float64) domain.Coordinate {
	return domain.Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lon: a.Lon + (b.Lon-a.Lon)*t,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
