// Package geo estimates road distance between two points.
//
// Straight-line distance uses the Haversine formula on WGS-84 coordinates and
// is scaled by a fixed road factor to approximate real road travel. No routing
// engine is consulted.
package geo

import (
	"math"

	"github.com/villagetaxi/farequote/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// EarthRadiusMiles is the Earth radius used by the published fare calculator.
	EarthRadiusMiles = 3959.0

	// DefaultRoadFactor scales straight-line distance to road distance.
	DefaultRoadFactor = 1.40
)

// ─── Distance ───────────────────────────────────────────────

// HaversineMiles returns the great-circle distance between two points in miles.
//
// Complexity: O(1)
func HaversineMiles(a, b model.GeoCoordinate) float64 {
	dLat := degToRad(b.Latitude - a.Latitude)
	dLon := degToRad(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Latitude))*math.Cos(degToRad(b.Latitude))*sinLon*sinLon

	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// RoadMiles returns the straight-line distance scaled by DefaultRoadFactor.
func RoadMiles(a, b model.GeoCoordinate) float64 {
	return HaversineMiles(a, b) * DefaultRoadFactor
}

// ─── Estimator ──────────────────────────────────────────────

// Estimator converts two coordinates into a road-equivalent distance.
type Estimator struct {
	RoadFactor float64
}

// NewEstimator returns an estimator using factor, or DefaultRoadFactor when
// factor is not positive.
func NewEstimator(factor float64) Estimator {
	if factor <= 0 {
		factor = DefaultRoadFactor
	}
	return Estimator{RoadFactor: factor}
}

// Estimate returns the road-equivalent distance in miles.
func (e Estimator) Estimate(a, b model.GeoCoordinate) float64 {
	factor := e.RoadFactor
	if factor <= 0 {
		factor = DefaultRoadFactor
	}
	return HaversineMiles(a, b) * factor
}

// ─── Helpers ────────────────────────────────────────────────

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
