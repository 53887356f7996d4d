package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"github.com/kigaliroutes/traffic-backend/internal/config"
	"github.com/kigaliroutes/traffic-backend/internal/models"
	"github.com/kigaliroutes/traffic-backend/internal/services"
	"github.com/kigaliroutes/traffic-backend/pkg/geo"
)

func encodePolyline(points []geo.LatLng) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}

func newRouteRouter(store *services.ReportStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := testLogger()

	matcher := services.NewSegmentMatcher(store, config.MatchingConfig{})
	historical := services.NewHistoricalInferencer(store)
	annotator := services.NewRouteAnnotator(matcher, historical, logger, config.MatchingConfig{})
	diversity := services.NewRouteDiversity(config.RoutingConfig{})
	handler := NewRouteHandler(annotator, diversity, logger)

	router := gin.New()
	router.POST("/api/v1/routes/annotate", handler.AnnotateRoutes)
	router.POST("/api/v1/routes/waypoints", handler.DiversityWaypoints)
	return router
}

func TestAnnotateRoutesEndpoint(t *testing.T) {
	store := newTestStore()
	router := newRouteRouter(store)

	lat, lng := -1.9501, 30.0501
	_, err := store.AddReport(models.TrafficReport{
		RoadName: "KN 5 Rd", Type: models.ReportHeavy,
		Lat: &lat, Lng: &lng, Timestamp: time.Now().Add(-2 * time.Minute),
	})
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		w := postJSON(router, "/api/v1/routes/annotate", gin.H{
			"routes": []gin.H{
				{
					"id":          "route-flagged",
					"eta_minutes": 10,
					"distance_km": 5.0,
					"roadSegments": []gin.H{{
						"roadId":   "seg-1",
						"roadName": "KN 5 Rd",
						"geometry": []gin.H{{"lat": -1.95, "lng": 30.05}},
					}},
				},
				{
					"id":          "route-clear",
					"eta_minutes": 18,
					"distance_km": 7.5,
					"roadSegments": []gin.H{{
						"roadId":   "seg-2",
						"roadName": "KK 10 Rd",
					}},
				},
			},
		})

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Status string                  `json:"status"`
			Routes []models.AnnotatedRoute `json:"routes"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Routes, 2)

		// The clear route sorts first despite the slower ETA.
		assert.Equal(t, "route-clear", resp.Routes[0].ID)
		assert.False(t, resp.Routes[0].HasFlaggedRoads)

		flagged := resp.Routes[1]
		assert.True(t, flagged.HasFlaggedRoads)
		assert.Equal(t, 1, flagged.TrafficSummary.Heavy)
		require.Len(t, flagged.RoadSegments, 1)
		assert.True(t, flagged.RoadSegments[0].HasLiveData)
		assert.Equal(t, 1, flagged.RoadSegments[0].RecentReportSummary.Heavy)
	})

	t.Run("EncodedGeometry", func(t *testing.T) {
		// Polyline decoding to explicit points before matching.
		encoded := encodePolyline([]geo.LatLng{{Lat: -1.95, Lng: 30.05}, {Lat: -1.951, Lng: 30.052}})
		w := postJSON(router, "/api/v1/routes/annotate", gin.H{
			"routes": []gin.H{{
				"id":          "route-encoded",
				"eta_minutes": 9,
				"roadSegments": []gin.H{{
					"roadId":          "seg-1",
					"roadName":        "KN 5 Rd",
					"encodedGeometry": encoded,
				}},
			}},
		})

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Routes []models.AnnotatedRoute `json:"routes"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Routes, 1)
		assert.True(t, resp.Routes[0].HasFlaggedRoads)
	})

	t.Run("BadEncodedGeometry", func(t *testing.T) {
		w := postJSON(router, "/api/v1/routes/annotate", gin.H{
			"routes": []gin.H{{
				"id": "route-bad",
				"roadSegments": []gin.H{{
					"roadName":        "KN 5 Rd",
					"encodedGeometry": "!!",
				}},
			}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("EmptyRoutes", func(t *testing.T) {
		w := postJSON(router, "/api/v1/routes/annotate", gin.H{"routes": []gin.H{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		w := postJSON(router, "/api/v1/routes/annotate", "not an object")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDiversityWaypointsEndpoint(t *testing.T) {
	router := newRouteRouter(newTestStore())

	t.Run("Success", func(t *testing.T) {
		w := postJSON(router, "/api/v1/routes/waypoints", gin.H{
			"start": gin.H{"lat": -1.9441, "lng": 30.0619},
			"end":   gin.H{"lat": -1.9324, "lng": 30.1220},
		})

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Status    string       `json:"status"`
			Waypoints []geo.LatLng `json:"waypoints"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Waypoints, 4)
	})

	t.Run("SameStartAndEnd", func(t *testing.T) {
		w := postJSON(router, "/api/v1/routes/waypoints", gin.H{
			"start": gin.H{"lat": -1.95, "lng": 30.05},
			"end":   gin.H{"lat": -1.95, "lng": 30.05},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		w := postJSON(router, "/api/v1/routes/waypoints", gin.H{
			"start": gin.H{"lat": 91.0, "lng": 30.05},
			"end":   gin.H{"lat": -1.95, "lng": 30.05},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
