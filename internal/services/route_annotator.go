package services

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kigaliroutes/traffic-backend/internal/config"
	"github.com/kigaliroutes/traffic-backend/internal/models"
)

// RouteAnnotator overlays the report pool onto candidate routes. It owns no
// state of its own: each call is a pure pass over its inputs that produces
// new annotated structures, so no locking is needed beyond the store's own.
type RouteAnnotator struct {
	matcher    *SegmentMatcher
	historical *HistoricalInferencer
	logger     *logrus.Logger
	liveWindow time.Duration
}

// NewRouteAnnotator creates a new route annotator.
func NewRouteAnnotator(matcher *SegmentMatcher, historical *HistoricalInferencer, logger *logrus.Logger, cfg config.MatchingConfig) *RouteAnnotator {
	window := cfg.LiveReportWindow
	if window <= 0 {
		window = models.LiveReportWindow
	}
	return &RouteAnnotator{
		matcher:    matcher,
		historical: historical,
		logger:     logger,
		liveWindow: window,
	}
}

// AnnotateRoute matches reports against every segment of the route and
// aggregates a route-level severity summary. The input route is not mutated.
func (a *RouteAnnotator) AnnotateRoute(route models.Route, now time.Time) models.AnnotatedRoute {
	annotated := models.AnnotatedRoute{
		ID:           route.ID,
		Name:         route.Name,
		ETAMinutes:   route.ETAMinutes,
		DistanceKm:   route.DistanceKm,
		Geometry:     route.Geometry,
		RoadSegments: make([]models.AnnotatedSegment, 0, len(route.RoadSegments)),
	}

	seenAll := make(map[string]bool)
	seenRecent := make(map[string]bool)
	var allMatched, allRecent []models.TrafficReport

	for _, segment := range route.RoadSegments {
		annotatedSegment := a.annotateSegment(segment, now)
		annotated.RoadSegments = append(annotated.RoadSegments, annotatedSegment)

		if annotatedSegment.ReportCount > 0 {
			annotated.HasFlaggedRoads = true
		}

		summary := annotatedSegment.ReportSummary
		if summary.Heavy > 0 {
			annotated.TrafficSummary.Heavy++
		}
		if summary.Medium > 0 {
			annotated.TrafficSummary.Medium++
		}
		if summary.Light > 0 {
			annotated.TrafficSummary.Light++
		}
		if summary.Blocked > 0 {
			annotated.TrafficSummary.Blocked++
		}

		// A report matched by several segments counts once at route level.
		for _, report := range annotatedSegment.Reports {
			if !seenAll[report.ID] {
				seenAll[report.ID] = true
				allMatched = append(allMatched, report)
			}
		}
		for _, report := range annotatedSegment.RecentReports {
			if !seenRecent[report.ID] {
				seenRecent[report.ID] = true
				allRecent = append(allRecent, report)
			}
		}
	}

	annotated.ReportSummary = models.Summarize(allMatched)
	annotated.RecentReportSummary = models.Summarize(allRecent)

	return annotated
}

// AnnotateRoutes annotates all candidate routes and orders them for the
// caller: routes without flagged roads first, then ascending ETA.
func (a *RouteAnnotator) AnnotateRoutes(routes []models.Route, now time.Time) []models.AnnotatedRoute {
	annotated := make([]models.AnnotatedRoute, 0, len(routes))
	for _, route := range routes {
		annotated = append(annotated, a.AnnotateRoute(route, now))
	}
	SortAnnotatedRoutes(annotated)
	return annotated
}

// annotateSegment applies the matcher tiers to one segment and, when no live
// evidence exists, falls back to historical inference.
func (a *RouteAnnotator) annotateSegment(segment models.RoadSegment, now time.Time) models.AnnotatedSegment {
	matched, tier := a.matcher.MatchReports(segment)

	var recent []models.TrafficReport
	for _, report := range matched {
		if now.Sub(report.Timestamp) <= a.liveWindow {
			recent = append(recent, report)
		}
	}

	annotated := models.AnnotatedSegment{
		RoadSegment:         segment,
		Reports:             matched,
		RecentReports:       recent,
		ReportCount:         len(matched),
		RecentReportCount:   len(recent),
		ReportSummary:       models.Summarize(matched),
		RecentReportSummary: models.Summarize(recent),
		HasLiveData:         len(recent) > 0,
		MatchTier:           tier,
	}

	if len(recent) == 0 {
		pattern := a.historical.InferPattern(segment.RoadID, segment.RoadName, now.Weekday(), now.Hour())
		if pattern != nil {
			annotated.HistoricalPattern = pattern
			annotated.HistoricalMessage = a.historical.PatternMessage(pattern, now)
		}
	}

	if len(matched) > 0 {
		a.logger.WithFields(logrus.Fields{
			"road_id":   segment.RoadID,
			"road_name": segment.RoadName,
			"tier":      tier,
			"matched":   len(matched),
			"recent":    len(recent),
		}).Debug("Matched reports to segment")
	}

	return annotated
}

// SortAnnotatedRoutes orders routes for presentation: clear routes before
// flagged ones, ascending ETA within each group. Stable so the backend's
// original ordering breaks remaining ties.
func SortAnnotatedRoutes(routes []models.AnnotatedRoute) {
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].HasFlaggedRoads != routes[j].HasFlaggedRoads {
			return !routes[i].HasFlaggedRoads
		}
		return routes[i].ETAMinutes < routes[j].ETAMinutes
	})
}
