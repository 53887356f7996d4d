package services

import (
	"fmt"
	"time"

	"github.com/kigaliroutes/traffic-backend/internal/models"
)

// historicalPriority is the fixed order used to pick the dominant type of a
// historical window. Blocked and heavy dominate even when outnumbered by
// light reports: the product surfaces the worst plausible condition rather
// than a majority vote. Accident is checked last; changing this order
// changes product behavior, so it stays as-is.
var historicalPriority = []models.ReportType{
	models.ReportBlocked,
	models.ReportHeavy,
	models.ReportMedium,
	models.ReportLight,
	models.ReportAccident,
}

// HistoricalInferencer derives the dominant historical traffic condition for
// a road at a day-of-week/time bucket when no live reports exist.
type HistoricalInferencer struct {
	store *ReportStore
}

// NewHistoricalInferencer creates a new historical pattern inferencer.
func NewHistoricalInferencer(store *ReportStore) *HistoricalInferencer {
	return &HistoricalInferencer{store: store}
}

// InferPattern computes the dominant historical traffic type for the given
// road and time bucket, or nil when no past reports fall in the window.
// Road-id matching is tried first, then the street-name fuzzy rule.
func (h *HistoricalInferencer) InferPattern(roadID, roadName string, dayOfWeek time.Weekday, hourOfDay int) *models.HistoricalPattern {
	matched := h.store.HistoricalReports(roadID, dayOfWeek, hourOfDay)
	if len(matched) == 0 && roadName != "" {
		matched = h.store.HistoricalReportsByStreetName(roadName, dayOfWeek, hourOfDay)
	}
	if len(matched) == 0 {
		return nil
	}

	summary := models.Summarize(matched)

	var dominant models.ReportType
	for _, reportType := range historicalPriority {
		if summary.CountFor(reportType) > 0 {
			dominant = reportType
			break
		}
	}
	if dominant == "" {
		// Window held only records with unknown types; nothing to report.
		return nil
	}

	lastReport := matched[0].Timestamp
	for _, report := range matched[1:] {
		if report.Timestamp.After(lastReport) {
			lastReport = report.Timestamp
		}
	}

	count := summary.CountFor(dominant)
	return &models.HistoricalPattern{
		Type:           dominant,
		Count:          count,
		TotalReports:   len(matched),
		Confidence:     float64(count) / float64(len(matched)),
		LastReportDate: lastReport,
	}
}

// PatternMessage renders a historical pattern as the human-readable sentence
// shown on segments without live data.
func (h *HistoricalInferencer) PatternMessage(pattern *models.HistoricalPattern, now time.Time) string {
	if pattern == nil {
		return ""
	}

	reports := "reports"
	if pattern.Count == 1 {
		reports = "report"
	}

	weeksAgo := int(now.Sub(pattern.LastReportDate).Hours() / (24 * 7))
	suffix := ""
	if weeksAgo == 1 {
		suffix = ", 1 week ago"
	} else if weeksAgo > 1 {
		suffix = fmt.Sprintf(", %d weeks ago", weeksAgo)
	}

	return fmt.Sprintf("No live reports. Last %s at this time: %s traffic (%d %s%s)",
		pattern.LastReportDate.Weekday(), pattern.Type, pattern.Count, reports, suffix)
}
