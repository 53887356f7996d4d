package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kigaliroutes/traffic-backend/internal/models"
	"github.com/kigaliroutes/traffic-backend/internal/services"
)

// ReportHandler handles HTTP requests for traffic reports
type ReportHandler struct {
	store         *services.ReportStore
	logger        *logrus.Logger
	defaultRadius float64
}

// NewReportHandler creates a new report handler
func NewReportHandler(store *services.ReportStore, logger *logrus.Logger, defaultRadius float64) *ReportHandler {
	return &ReportHandler{
		store:         store,
		logger:        logger,
		defaultRadius: defaultRadius,
	}
}

// SubmitReport handles POST /api/v1/reports
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	var req models.SubmitReportRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid report submission - JSON parsing failed")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.WithError(err).Warn("Invalid report submission")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	report, err := h.store.AddReport(req.Report())
	if err != nil {
		// The report is already in the matching pool; persistence failed.
		// Accept the submission but tell the client durability is degraded.
		h.logger.WithError(err).Error("Report accepted but not persisted")
	}

	h.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"road_name": report.RoadName,
		"type":      report.Type,
	}).Info("Traffic report submitted")

	c.JSON(http.StatusCreated, gin.H{
		"status":    "success",
		"report":    report,
		"persisted": err == nil,
	})
}

// ListReports handles GET /api/v1/reports
// Optional filters: ?road_id=..., ?near=lat,lng&radius=meters
func (h *ReportHandler) ListReports(c *gin.Context) {
	if roadID := c.Query("road_id"); roadID != "" {
		reports := h.store.ReportsForRoad(roadID)
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"count":   len(reports),
			"reports": reports,
		})
		return
	}

	if near := c.Query("near"); near != "" {
		lat, lng, ok := parseLatLng(near)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "near must be formatted as lat,lng",
			})
			return
		}

		radius := h.defaultRadius
		if radiusStr := c.Query("radius"); radiusStr != "" {
			parsed, err := strconv.ParseFloat(radiusStr, 64)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{
					"status":  "error",
					"message": "radius must be a positive number of meters",
				})
				return
			}
			radius = parsed
		}

		reports := h.store.ReportsNearLocation(lat, lng, radius)
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"count":   len(reports),
			"reports": reports,
		})
		return
	}

	reports := h.store.All()
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"count":   len(reports),
		"reports": reports,
	})
}

// GetReport handles GET /api/v1/reports/:id
func (h *ReportHandler) GetReport(c *gin.Context) {
	report, ok := h.store.ReportByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": "Report not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"report": report,
	})
}

// FlaggedRoads handles GET /api/v1/reports/flagged-roads
func (h *ReportHandler) FlaggedRoads(c *gin.Context) {
	flagged := h.store.FlaggedRoads()
	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"count":         len(flagged),
		"flagged_roads": flagged,
	})
}

// parseLatLng parses a "lat,lng" query value.
func parseLatLng(value string) (float64, float64, bool) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lng, true
}
