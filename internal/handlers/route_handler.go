package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kigaliroutes/traffic-backend/internal/models"
	"github.com/kigaliroutes/traffic-backend/internal/services"
	"github.com/kigaliroutes/traffic-backend/pkg/geo"
)

// RouteHandler handles HTTP requests for route annotation and diversity
// waypoint generation.
type RouteHandler struct {
	annotator *services.RouteAnnotator
	diversity *services.RouteDiversity
	logger    *logrus.Logger
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(annotator *services.RouteAnnotator, diversity *services.RouteDiversity, logger *logrus.Logger) *RouteHandler {
	return &RouteHandler{
		annotator: annotator,
		diversity: diversity,
		logger:    logger,
	}
}

// AnnotateRoutes handles POST /api/v1/routes/annotate
// Body: candidate routes from the routing backend. Segment geometry may be
// explicit points or an encoded polyline string.
func (h *RouteHandler) AnnotateRoutes(c *gin.Context) {
	var req models.AnnotateRoutesRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid annotation request - JSON parsing failed")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	if len(req.Routes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "at least one route is required",
		})
		return
	}

	for i := range req.Routes {
		if err := decodeSegmentGeometry(&req.Routes[i]); err != nil {
			h.logger.WithError(err).WithField("route_id", req.Routes[i].ID).Warn("Invalid segment geometry")
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": err.Error(),
			})
			return
		}
	}

	annotated := h.annotator.AnnotateRoutes(req.Routes, time.Now())

	h.logger.WithFields(logrus.Fields{
		"routes": len(annotated),
	}).Info("Annotated candidate routes")

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"routes": annotated,
	})
}

// DiversityWaypoints handles POST /api/v1/routes/waypoints
// Returns via-points the routing adapter feeds back to the backend to force
// geometrically distinct alternatives.
func (h *RouteHandler) DiversityWaypoints(c *gin.Context) {
	var req models.WaypointsRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid waypoints request - JSON parsing failed")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	waypoints := h.diversity.IntermediateWaypoints(req.Start, req.End)
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"waypoints": waypoints,
	})
}

// decodeSegmentGeometry fills in segment geometry from encoded polylines
// where explicit points are absent.
func decodeSegmentGeometry(route *models.Route) error {
	for i := range route.RoadSegments {
		segment := &route.RoadSegments[i]
		if len(segment.Geometry) > 0 || segment.EncodedGeometry == "" {
			continue
		}
		points, err := geo.DecodePolyline(segment.EncodedGeometry)
		if err != nil {
			return models.ErrInvalidInput("invalid encoded geometry: " + err.Error())
		}
		segment.Geometry = points
	}
	return nil
}
