package models

import (
	"strings"
	"time"

	"github.com/kigaliroutes/traffic-backend/pkg/geo"
)

// ReportType classifies the traffic condition a report describes.
type ReportType string

const (
	ReportLight    ReportType = "light"
	ReportMedium   ReportType = "medium"
	ReportHeavy    ReportType = "heavy"
	ReportBlocked  ReportType = "blocked"
	ReportAccident ReportType = "accident"
)

// LiveReportWindow is how long a report counts as live evidence. Older
// reports only contribute to historical patterns.
const LiveReportWindow = 10 * time.Minute

// KnownReportType reports whether t is one of the supported report types.
// Unknown types can appear when the persistence layer holds legacy records;
// they are tolerated everywhere and simply ignored by tallies.
func KnownReportType(t ReportType) bool {
	switch t {
	case ReportLight, ReportMedium, ReportHeavy, ReportBlocked, ReportAccident:
		return true
	}
	return false
}

// TrafficReport is a crowd-submitted point report of a traffic condition.
// Reports are immutable once created; liveness is derived from Timestamp,
// never stored.
type TrafficReport struct {
	ID        string     `json:"id" db:"id"`
	RoadID    string     `json:"roadId,omitempty" db:"road_id"`
	RoadName  string     `json:"roadName" db:"road_name"`
	Type      ReportType `json:"reportType" db:"report_type"`
	UserID    string     `json:"userId,omitempty" db:"user_id"`
	Lat       *float64   `json:"lat,omitempty" db:"lat"`
	Lng       *float64   `json:"lng,omitempty" db:"lng"`
	Timestamp time.Time  `json:"timestamp" db:"created_at"`
}

// HasLocation reports whether the report carries usable coordinates.
// Reports without them can still match by road id or street name.
func (r *TrafficReport) HasLocation() bool {
	return r.Lat != nil && r.Lng != nil && geo.ValidCoordinate(*r.Lat, *r.Lng)
}

// IsLive reports whether the report is recent enough to count as live
// evidence at the given evaluation time.
func (r *TrafficReport) IsLive(now time.Time) bool {
	return now.Sub(r.Timestamp) <= LiveReportWindow
}

// ReportSummary tallies reports by type. Missing types stay at zero.
type ReportSummary struct {
	Light    int `json:"light"`
	Medium   int `json:"medium"`
	Heavy    int `json:"heavy"`
	Blocked  int `json:"blocked"`
	Accident int `json:"accident"`
}

// CountFor returns the tally for a single report type.
func (s ReportSummary) CountFor(t ReportType) int {
	switch t {
	case ReportLight:
		return s.Light
	case ReportMedium:
		return s.Medium
	case ReportHeavy:
		return s.Heavy
	case ReportBlocked:
		return s.Blocked
	case ReportAccident:
		return s.Accident
	}
	return 0
}

// Summarize tallies reports by type. Unknown types are ignored so legacy
// records in the store never break a summary.
func Summarize(reports []TrafficReport) ReportSummary {
	var summary ReportSummary
	for _, report := range reports {
		switch report.Type {
		case ReportLight:
			summary.Light++
		case ReportMedium:
			summary.Medium++
		case ReportHeavy:
			summary.Heavy++
		case ReportBlocked:
			summary.Blocked++
		case ReportAccident:
			summary.Accident++
		}
	}
	return summary
}

// FlaggedRoad groups the reports submitted against one road bucket.
type FlaggedRoad struct {
	RoadID   string          `json:"roadId"`
	RoadName string          `json:"roadName"`
	Reports  []TrafficReport `json:"reports"`
}

// HistoricalPattern is the dominant historical traffic condition inferred
// for a road at a day-of-week/time bucket. Derived on demand, never persisted.
type HistoricalPattern struct {
	Type           ReportType `json:"type"`
	Count          int        `json:"count"`
	TotalReports   int        `json:"totalReports"`
	Confidence     float64    `json:"confidence"`
	LastReportDate time.Time  `json:"lastReportDate"`
}

// SubmitReportRequest is the payload for submitting a traffic report.
type SubmitReportRequest struct {
	RoadID   string     `json:"roadId,omitempty"`
	RoadName string     `json:"roadName" binding:"required"`
	Type     ReportType `json:"reportType" binding:"required"`
	UserID   string     `json:"userId,omitempty"`
	Lat      *float64   `json:"lat,omitempty"`
	Lng      *float64   `json:"lng,omitempty"`
}

// Validate validates the report submission.
func (r *SubmitReportRequest) Validate() error {
	if strings.TrimSpace(r.RoadName) == "" {
		return ErrInvalidInput("road name is required")
	}
	if !KnownReportType(r.Type) {
		return ErrInvalidInput("report type must be one of light, medium, heavy, blocked, accident")
	}
	// Coordinates are optional, but a half-supplied or out-of-range pair is
	// rejected here so invalid values never reach distance calculations.
	if (r.Lat == nil) != (r.Lng == nil) {
		return ErrInvalidInput("lat and lng must be provided together")
	}
	if r.Lat != nil && !geo.ValidCoordinate(*r.Lat, *r.Lng) {
		return ErrInvalidInput("coordinates out of range: latitude [-90, 90], longitude [-180, 180]")
	}
	return nil
}

// Report builds the TrafficReport to be stored from this request.
func (r *SubmitReportRequest) Report() TrafficReport {
	return TrafficReport{
		RoadID:   strings.TrimSpace(r.RoadID),
		RoadName: strings.TrimSpace(r.RoadName),
		Type:     r.Type,
		UserID:   r.UserID,
		Lat:      r.Lat,
		Lng:      r.Lng,
	}
}

// ErrInvalidInput creates a validation error
func ErrInvalidInput(message string) error {
	return &ValidationError{Message: message}
}

// ValidationError represents a validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
