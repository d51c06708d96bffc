// Package geomath holds the great-circle point math for route distances.
package geomath

import "math"

// EarthRadiusKm is the mean spherical Earth radius used for all
// great-circle distances.
const EarthRadiusKm = 6371.0

type Coordinate struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinate is inside the WGS-84 degree ranges.
// Callers must reject invalid coordinates before any distance math.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// DistanceKm returns the haversine distance between a and b in kilometers.
func DistanceKm(a, b Coordinate) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat + math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*sinLng*sinLng
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathKm sums the consecutive legs of a polyline. Fewer than two points is 0.
func PathKm(points []Coordinate) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += DistanceKm(points[i-1], points[i])
	}
	return total
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
