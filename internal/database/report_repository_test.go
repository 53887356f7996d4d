package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kigaliroutes/traffic-backend/internal/models"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestInsertReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewReportRepository(mockDB)

	report := &models.TrafficReport{
		ID:        "report-1",
		RoadID:    "road-a",
		RoadName:  "KN 5 Rd",
		Type:      models.ReportHeavy,
		Lat:       floatPtr(-1.95),
		Lng:       floatPtr(30.05),
		Timestamp: time.Now(),
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO traffic_reports`).
			WithArgs(report.ID, report.RoadID, report.RoadName, "heavy",
				report.UserID, report.Lat, report.Lng, report.Timestamp).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.InsertReport(report)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO traffic_reports`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.InsertReport(report)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert traffic report")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListReports(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewReportRepository(mockDB)

	columns := []string{"id", "road_id", "road_name", "report_type", "user_id", "lat", "lng", "created_at"}

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT id, road_id, road_name, report_type`).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("report-1", "road-a", "KN 5 Rd", "heavy", "", -1.95, 30.05, now.Add(-time.Hour)).
				AddRow("report-2", "", "Kimironko Road", "light", "user-1", nil, nil, now))

		reports, err := repo.ListReports()
		require.NoError(t, err)
		require.Len(t, reports, 2)

		assert.Equal(t, "report-1", reports[0].ID)
		assert.Equal(t, models.ReportHeavy, reports[0].Type)
		require.NotNil(t, reports[0].Lat)
		assert.InDelta(t, -1.95, *reports[0].Lat, 1e-9)

		assert.Equal(t, models.ReportLight, reports[1].Type)
		assert.Nil(t, reports[1].Lat)
		assert.Nil(t, reports[1].Lng)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, road_id, road_name, report_type`).
			WillReturnRows(sqlmock.NewRows(columns))

		reports, err := repo.ListReports()
		require.NoError(t, err)
		assert.Empty(t, reports)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, road_id, road_name, report_type`).
			WillReturnError(fmt.Errorf("database error"))

		_, err := repo.ListReports()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list traffic reports")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCountReports(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewReportRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM traffic_reports`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

		count, err := repo.CountReports()
		require.NoError(t, err)
		assert.Equal(t, int64(42), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Mock database implementation for testing
type mockDatabase struct {
	db *sql.DB
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Get not implemented in mock")
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Select not implemented in mock")
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}
