package services

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kigaliroutes/traffic-backend/internal/config"
	"github.com/kigaliroutes/traffic-backend/internal/models"
	"github.com/kigaliroutes/traffic-backend/pkg/geo"
)

// ReportPersister is the durability collaborator for the report store. The
// store owns the in-memory collection; the persister only survives restarts.
type ReportPersister interface {
	InsertReport(report *models.TrafficReport) error
	ListReports() ([]models.TrafficReport, error)
}

// ReportStore owns the traffic report collection. The collection is an
// append-only slice guarded by a RWMutex: AddReport takes the write lock,
// every lookup takes the read lock and returns fresh result slices, so
// concurrent readers never observe a partially-constructed report.
type ReportStore struct {
	mu      sync.RWMutex
	reports []models.TrafficReport

	repo                ReportPersister
	logger              *logrus.Logger
	historicalTolerance time.Duration
}

// NewReportStore creates a new report store. repo may be nil for a purely
// in-memory store (tests, or running without a database).
func NewReportStore(repo ReportPersister, logger *logrus.Logger, cfg config.MatchingConfig) *ReportStore {
	tolerance := cfg.HistoricalTolerance
	if tolerance <= 0 {
		tolerance = 30 * time.Minute
	}
	return &ReportStore{
		repo:                repo,
		logger:              logger,
		historicalTolerance: tolerance,
	}
}

// Load hydrates the in-memory collection from the persistence layer.
func (s *ReportStore) Load() error {
	if s.repo == nil {
		return nil
	}

	reports, err := s.repo.ListReports()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.reports = reports
	s.mu.Unlock()

	s.logger.WithField("count", len(reports)).Info("Loaded traffic reports from database")
	return nil
}

// AddReport assigns an id and timestamp if absent, appends the report to the
// collection, then persists it. The append always succeeds; a persistence
// failure is returned alongside the stored report so callers can decide how
// loudly to complain, but matching already sees the new report.
func (s *ReportStore) AddReport(report models.TrafficReport) (models.TrafficReport, error) {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now()
	}

	s.mu.Lock()
	s.reports = append(s.reports, report)
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.InsertReport(&report); err != nil {
			s.logger.WithError(err).WithField("report_id", report.ID).Error("Failed to persist traffic report")
			return report, err
		}
	}

	return report, nil
}

// All returns a copy of the full report collection.
func (s *ReportStore) All() []models.TrafficReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.TrafficReport, len(s.reports))
	copy(out, s.reports)
	return out
}

// Size returns the number of reports in the collection.
func (s *ReportStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// ReportByID returns the report with the given id, or false when absent.
func (s *ReportStore) ReportByID(id string) (models.TrafficReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, report := range s.reports {
		if report.ID == id {
			return report, true
		}
	}
	return models.TrafficReport{}, false
}

// ReportsForRoad returns reports whose road id matches exactly.
func (s *ReportStore) ReportsForRoad(roadID string) []models.TrafficReport {
	if roadID == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.TrafficReport
	for _, report := range s.reports {
		if report.RoadID == roadID {
			matched = append(matched, report)
		}
	}
	return matched
}

// ReportsByStreetName returns reports whose road name loosely matches the
// given name. Road labels in the source map data are inconsistently
// formatted, so the match is intentionally loose: case-insensitive
// containment either way, or an identical leading road code ("KN 5" vs
// "KN5 Rd").
func (s *ReportStore) ReportsByStreetName(name string) []models.TrafficReport {
	if strings.TrimSpace(name) == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.TrafficReport
	for _, report := range s.reports {
		if streetNamesMatch(report.RoadName, name) {
			matched = append(matched, report)
		}
	}
	return matched
}

// ReportsNearLocation returns reports within radiusMeters of the given point.
// Reports without usable coordinates are skipped.
func (s *ReportStore) ReportsNearLocation(lat, lng, radiusMeters float64) []models.TrafficReport {
	if !geo.ValidCoordinate(lat, lng) {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.TrafficReport
	for _, report := range s.reports {
		if !report.HasLocation() {
			continue
		}
		if geo.Distance(lat, lng, *report.Lat, *report.Lng) <= radiusMeters {
			matched = append(matched, report)
		}
	}
	return matched
}

// HistoricalReports returns reports from the same day-of-week whose
// minute-of-day falls within the store's tolerance of hourOfDay. When roadID
// is given, reports match by road id or by containment against the road name.
func (s *ReportStore) HistoricalReports(roadID string, dayOfWeek time.Weekday, hourOfDay int) []models.TrafficReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.TrafficReport
	for _, report := range s.reports {
		if !s.inTimeWindow(report.Timestamp, dayOfWeek, hourOfDay) {
			continue
		}
		if roadID != "" && report.RoadID != roadID && !containsEitherWay(report.RoadName, roadID) {
			continue
		}
		matched = append(matched, report)
	}
	return matched
}

// HistoricalReportsByStreetName is the street-name sibling of
// HistoricalReports, used when no road id match exists.
func (s *ReportStore) HistoricalReportsByStreetName(name string, dayOfWeek time.Weekday, hourOfDay int) []models.TrafficReport {
	if strings.TrimSpace(name) == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.TrafficReport
	for _, report := range s.reports {
		if !s.inTimeWindow(report.Timestamp, dayOfWeek, hourOfDay) {
			continue
		}
		if streetNamesMatch(report.RoadName, name) {
			matched = append(matched, report)
		}
	}
	return matched
}

// FlaggedRoads groups reports by road id. Reports without a road id belong
// to no coarse road bucket and are left out of the grouping.
func (s *ReportStore) FlaggedRoads() []models.FlaggedRoad {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(map[string]int)
	var flagged []models.FlaggedRoad
	for _, report := range s.reports {
		if report.RoadID == "" {
			continue
		}
		i, ok := index[report.RoadID]
		if !ok {
			i = len(flagged)
			index[report.RoadID] = i
			flagged = append(flagged, models.FlaggedRoad{
				RoadID:   report.RoadID,
				RoadName: report.RoadName,
			})
		}
		flagged[i].Reports = append(flagged[i].Reports, report)
	}
	return flagged
}

// inTimeWindow checks the day-of-week/minute-of-day bucket for historical
// lookups.
func (s *ReportStore) inTimeWindow(timestamp time.Time, dayOfWeek time.Weekday, hourOfDay int) bool {
	if timestamp.Weekday() != dayOfWeek {
		return false
	}
	minuteOfDay := timestamp.Hour()*60 + timestamp.Minute()
	target := hourOfDay * 60
	diff := minuteOfDay - target
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) <= s.historicalTolerance.Minutes()
}

// roadCodePattern matches a leading road code: one or two letters followed by
// digits, with optional internal whitespace ("KN 5", "KG203", "DR 12").
var roadCodePattern = regexp.MustCompile(`^([a-z]{1,2})\s*([0-9]+)`)

// normalizeStreetName lowercases a label and collapses internal whitespace.
func normalizeStreetName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// roadCode extracts the normalized leading road code of a label, or "".
func roadCode(normalized string) string {
	m := roadCodePattern.FindStringSubmatch(normalized)
	if m == nil {
		return ""
	}
	return m[1] + m[2]
}

// containsEitherWay reports case-insensitive substring containment in either
// direction.
func containsEitherWay(a, b string) bool {
	na := normalizeStreetName(a)
	nb := normalizeStreetName(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// streetNamesMatch applies the loose street-name rule: containment either
// way, or both labels carrying the same leading road code.
func streetNamesMatch(a, b string) bool {
	na := normalizeStreetName(a)
	nb := normalizeStreetName(b)
	if na == "" || nb == "" {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	codeA := roadCode(na)
	codeB := roadCode(nb)
	return codeA != "" && codeA == codeB
}
