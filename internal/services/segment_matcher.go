package services

import (
	"github.com/kigaliroutes/traffic-backend/internal/config"
	"github.com/kigaliroutes/traffic-backend/internal/models"
)

// Matcher tier names, also used in annotation logging.
const (
	TierCoordinate = "coordinate"
	TierRoadID     = "road_id"
	TierStreetName = "street_name"
	TierNone       = "none"
)

// matchStrategy is one tier of the segment matching policy.
type matchStrategy struct {
	name  string
	match func(segment models.RoadSegment) []models.TrafficReport
}

// SegmentMatcher selects the reports applicable to a route segment using an
// ordered list of strategies: coordinate proximity, then road id, then fuzzy
// street name. Coordinates are ground truth, so later tiers are only
// consulted when earlier ones yield nothing; merging tiers would invite
// false positives from coincidental name collisions.
type SegmentMatcher struct {
	store           *ReportStore
	proximityRadius float64
	strategies      []matchStrategy
}

// NewSegmentMatcher creates a new segment matcher reading from the store.
func NewSegmentMatcher(store *ReportStore, cfg config.MatchingConfig) *SegmentMatcher {
	radius := cfg.ProximityRadiusMeters
	if radius <= 0 {
		radius = 200
	}

	m := &SegmentMatcher{
		store:           store,
		proximityRadius: radius,
	}
	m.strategies = []matchStrategy{
		{name: TierCoordinate, match: m.matchByCoordinates},
		{name: TierRoadID, match: m.matchByRoadID},
		{name: TierStreetName, match: m.matchByStreetName},
	}
	return m
}

// MatchReports returns the reports applicable to the segment and the name of
// the tier that produced them. An empty result with TierNone means the
// segment is clear; that is a normal outcome, not an error.
func (m *SegmentMatcher) MatchReports(segment models.RoadSegment) ([]models.TrafficReport, string) {
	for _, strategy := range m.strategies {
		if matched := strategy.match(segment); len(matched) > 0 {
			return matched, strategy.name
		}
	}
	return nil, TierNone
}

// matchByCoordinates unions proximity matches around every geometry point,
// deduplicated by report id.
func (m *SegmentMatcher) matchByCoordinates(segment models.RoadSegment) []models.TrafficReport {
	if len(segment.Geometry) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var matched []models.TrafficReport
	for _, point := range segment.Geometry {
		for _, report := range m.store.ReportsNearLocation(point.Lat, point.Lng, m.proximityRadius) {
			if seen[report.ID] {
				continue
			}
			seen[report.ID] = true
			matched = append(matched, report)
		}
	}
	return matched
}

func (m *SegmentMatcher) matchByRoadID(segment models.RoadSegment) []models.TrafficReport {
	return m.store.ReportsForRoad(segment.RoadID)
}

func (m *SegmentMatcher) matchByStreetName(segment models.RoadSegment) []models.TrafficReport {
	return m.store.ReportsByStreetName(segment.RoadName)
}
