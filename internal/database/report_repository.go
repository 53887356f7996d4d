package database

import (
	"fmt"

	"github.com/kigaliroutes/traffic-backend/internal/models"
)

// ReportRepository handles traffic report database operations
type ReportRepository struct {
	db DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db DB) *ReportRepository {
	return &ReportRepository{
		db: db,
	}
}

// InsertReport persists a stored traffic report. The in-memory store is the
// source of truth for matching; this write only provides durability across
// restarts.
func (r *ReportRepository) InsertReport(report *models.TrafficReport) error {
	query := `
		INSERT INTO traffic_reports (
			id, road_id, road_name, report_type,
			user_id, lat, lng, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(
		query,
		report.ID,
		report.RoadID,
		report.RoadName,
		string(report.Type),
		report.UserID,
		report.Lat,
		report.Lng,
		report.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert traffic report: %w", err)
	}

	return nil
}

// ListReports loads all persisted reports ordered by creation time. Used to
// hydrate the in-memory store at startup.
func (r *ReportRepository) ListReports() ([]models.TrafficReport, error) {
	query := `
		SELECT id, road_id, road_name, report_type, user_id, lat, lng, created_at
		FROM traffic_reports
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list traffic reports: %w", err)
	}
	defer rows.Close()

	var reports []models.TrafficReport
	for rows.Next() {
		var report models.TrafficReport
		var reportType string
		if err := rows.Scan(
			&report.ID,
			&report.RoadID,
			&report.RoadName,
			&reportType,
			&report.UserID,
			&report.Lat,
			&report.Lng,
			&report.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan traffic report: %w", err)
		}
		report.Type = models.ReportType(reportType)
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read traffic reports: %w", err)
	}

	return reports, nil
}

// CountReports returns the number of persisted reports.
func (r *ReportRepository) CountReports() (int64, error) {
	var count int64
	row := r.db.QueryRow(`SELECT COUNT(*) FROM traffic_reports`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count traffic reports: %w", err)
	}
	return count, nil
}
