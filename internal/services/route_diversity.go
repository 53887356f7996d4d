package services

import (
	"math"

	"github.com/kigaliroutes/traffic-backend/internal/config"
	"github.com/kigaliroutes/traffic-backend/internal/models"
	"github.com/kigaliroutes/traffic-backend/pkg/geo"
)

// waypointFractions are the positions along the straight start-end line
// where via-points are placed.
var waypointFractions = []float64{0.33, 0.67}

// RouteDiversity generates waypoint-biased routing requests. Routing
// backends tend to return near-duplicate alternatives; forcing a via-point
// off to either side of the direct line yields geometrically distinct
// candidates.
type RouteDiversity struct {
	offsetDegrees float64
	distinctKm    float64
}

// NewRouteDiversity creates a new route diversity generator.
func NewRouteDiversity(cfg config.RoutingConfig) *RouteDiversity {
	offset := cfg.WaypointOffsetDegrees
	if offset <= 0 {
		offset = 0.015 // roughly 1.5km
	}
	distinct := cfg.DistinctRouteKm
	if distinct <= 0 {
		distinct = 0.5
	}
	return &RouteDiversity{
		offsetDegrees: offset,
		distinctKm:    distinct,
	}
}

// IntermediateWaypoints returns four via-points for the start-end pair: at
// one third and two thirds of the straight line, offset to both sides along
// the unit perpendicular. Returns nil for a degenerate pair (start == end).
func (d *RouteDiversity) IntermediateWaypoints(start, end geo.LatLng) []geo.LatLng {
	dLat := end.Lat - start.Lat
	dLng := end.Lng - start.Lng

	length := math.Sqrt(dLat*dLat + dLng*dLng)
	if length == 0 {
		return nil
	}

	// Unit perpendicular to the start-end vector, in degree space.
	perpLat := -dLng / length
	perpLng := dLat / length

	waypoints := make([]geo.LatLng, 0, 2*len(waypointFractions))
	for _, t := range waypointFractions {
		base := geo.LatLng{
			Lat: start.Lat + t*dLat,
			Lng: start.Lng + t*dLng,
		}
		waypoints = append(waypoints,
			geo.LatLng{Lat: base.Lat + d.offsetDegrees*perpLat, Lng: base.Lng + d.offsetDegrees*perpLng},
			geo.LatLng{Lat: base.Lat - d.offsetDegrees*perpLat, Lng: base.Lng - d.offsetDegrees*perpLng},
		)
	}
	return waypoints
}

// IsDistinctRoute reports whether a candidate route's total distance differs
// from every already-collected route by at least the distinctness threshold.
// Near-duplicates from the waypoint-biased requests are rejected with it.
func (d *RouteDiversity) IsDistinctRoute(candidate models.Route, accepted []models.Route) bool {
	for _, route := range accepted {
		if math.Abs(candidate.DistanceKm-route.DistanceKm) < d.distinctKm {
			return false
		}
	}
	return true
}
