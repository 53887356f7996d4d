package models

import (
	"github.com/kigaliroutes/traffic-backend/pkg/geo"
)

// RoadSegment is one contiguous piece of a generated route. It is owned by
// the routing backend and read-only to this service. Geometry may arrive as
// explicit points or as an encoded polyline string; handlers decode the
// latter before matching.
type RoadSegment struct {
	RoadID          string       `json:"roadId,omitempty"`
	RoadName        string       `json:"roadName,omitempty"`
	Distance        string       `json:"distance,omitempty"`
	Geometry        []geo.LatLng `json:"geometry,omitempty"`
	EncodedGeometry string       `json:"encodedGeometry,omitempty"`
}

// Route is a candidate route produced by the routing backend.
type Route struct {
	ID           string        `json:"id"`
	Name         string        `json:"name,omitempty"`
	ETAMinutes   float64       `json:"eta_minutes"`
	DistanceKm   float64       `json:"distance_km"`
	RoadSegments []RoadSegment `json:"roadSegments"`
	Geometry     []geo.LatLng  `json:"geometry,omitempty"`
}

// AnnotatedSegment is a road segment with its matched traffic evidence.
// Produced fresh by the annotator; the input segment is never mutated.
type AnnotatedSegment struct {
	RoadSegment
	Reports             []TrafficReport    `json:"reports"`
	RecentReports       []TrafficReport    `json:"recentReports"`
	ReportCount         int                `json:"reportCount"`
	RecentReportCount   int                `json:"recentReportCount"`
	ReportSummary       ReportSummary      `json:"reportSummary"`
	RecentReportSummary ReportSummary      `json:"recentReportSummary"`
	HistoricalPattern   *HistoricalPattern `json:"historicalPattern,omitempty"`
	HistoricalMessage   string             `json:"historicalMessage,omitempty"`
	HasLiveData         bool               `json:"hasLiveData"`
	MatchTier           string             `json:"-"`
}

// TrafficSummary counts route segments (not individual reports) carrying at
// least one report of each severity.
type TrafficSummary struct {
	Heavy   int `json:"heavy"`
	Medium  int `json:"medium"`
	Light   int `json:"light"`
	Blocked int `json:"blocked"`
}

// AnnotatedRoute is a candidate route augmented with per-segment matches and
// a route-level severity summary.
type AnnotatedRoute struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name,omitempty"`
	ETAMinutes          float64            `json:"eta_minutes"`
	DistanceKm          float64            `json:"distance_km"`
	Geometry            []geo.LatLng       `json:"geometry,omitempty"`
	RoadSegments        []AnnotatedSegment `json:"roadSegments"`
	ReportSummary       ReportSummary      `json:"reportSummary"`
	RecentReportSummary ReportSummary      `json:"recentReportSummary"`
	HasFlaggedRoads     bool               `json:"hasFlaggedRoads"`
	TrafficSummary      TrafficSummary     `json:"trafficSummary"`
}

// AnnotateRoutesRequest is the payload for annotating candidate routes.
type AnnotateRoutesRequest struct {
	Routes []Route `json:"routes" binding:"required"`
}

// WaypointsRequest is the payload for generating diversity waypoints.
type WaypointsRequest struct {
	Start geo.LatLng `json:"start" binding:"required"`
	End   geo.LatLng `json:"end" binding:"required"`
}

// Validate validates the waypoint request endpoints.
func (r *WaypointsRequest) Validate() error {
	if !geo.ValidCoordinate(r.Start.Lat, r.Start.Lng) || !geo.ValidCoordinate(r.End.Lat, r.End.Lng) {
		return ErrInvalidInput("coordinates out of range: latitude [-90, 90], longitude [-180, 180]")
	}
	if r.Start == r.End {
		return ErrInvalidInput("start and end cannot be the same point")
	}
	return nil
}
