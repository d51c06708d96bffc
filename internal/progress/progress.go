// Package progress derives a package's lifecycle status and a 0–100%
// route-completion metric from its declared endpoints and movement trail.
// Everything here is a pure function of persisted data: the same inputs
// always yield the same report.
package progress

import (
	"github.com/openparcel/parceltrack/internal/geomath"
	"github.com/openparcel/parceltrack/internal/models"
)

// DeliveredRadiusKm is the proximity threshold around the destination:
// a position within this radius flips the package to delivered.
const DeliveredRadiusKm = 5.0

type Report struct {
	// Known is false when the route cannot be established (start or
	// destination did not geocode, or the route has zero length). The
	// presentation layer hides the progress indicator instead of
	// showing a misleading 0%.
	Known      bool    `json:"known"`
	Percent    float64 `json:"percent"`
	TotalKm    float64 `json:"total_km"`
	TraveledKm float64 `json:"traveled_km"`
}

type Engine struct {
	radiusKm float64
}

// New builds an engine with the given delivered radius; zero or negative
// means the default 5 km.
func New(radiusKm float64) *Engine {
	if radiusKm <= 0 {
		radiusKm = DeliveredRadiusKm
	}
	return &Engine{radiusKm: radiusKm}
}

// NextStatus applies the automatic transition rule for a new position.
// Within the delivered radius of the destination the package is
// delivered; otherwise it moves to in_transit unless this is its
// first-ever position. A nil destination (not geocodable) can never
// produce delivered.
func (e *Engine) NextStatus(pos geomath.Coordinate, dest *geomath.Coordinate, firstPosition bool) string {
	if dest != nil && geomath.DistanceKm(pos, *dest) <= e.radiusKm {
		return models.PackageStatusDelivered
	}
	if firstPosition {
		return models.PackageStatusCreated
	}
	return models.PackageStatusInTransit
}

// Compute derives the completion report from the declared endpoints and
// the chronological trail. The full route is start, the trail points,
// then destination; the traveled part stops before the destination.
func (e *Engine) Compute(start, dest *geomath.Coordinate, trail []geomath.Coordinate) Report {
	if start == nil || dest == nil {
		return Report{}
	}

	routeFull := make([]geomath.Coordinate, 0, len(trail)+2)
	routeFull = append(routeFull, *start)
	routeFull = append(routeFull, trail...)
	routeFull = append(routeFull, *dest)

	traveled := routeFull[:len(routeFull)-1]

	totalKm := geomath.PathKm(routeFull)
	if totalKm <= 0 {
		return Report{}
	}
	traveledKm := geomath.PathKm(traveled)

	percent := traveledKm / totalKm * 100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	// Arrived: latest trail point inside the delivered radius.
	if len(trail) > 0 && geomath.DistanceKm(trail[len(trail)-1], *dest) <= e.radiusKm {
		percent = 100
	}

	return Report{Known: true, Percent: percent, TotalKm: totalKm, TraveledKm: traveledKm}
}
