package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	// Downtown Kigali to Kimironko, roughly 6.8 km apart.
	downtown := LatLng{Lat: -1.9441, Lng: 30.0619}
	kimironko := LatLng{Lat: -1.9324, Lng: 30.1220}

	distance := DistanceBetween(downtown, kimironko)
	assert.InDelta(t, 6800, distance, 300, "downtown to Kimironko should be roughly 6.8km")

	t.Run("Symmetry", func(t *testing.T) {
		forward := Distance(downtown.Lat, downtown.Lng, kimironko.Lat, kimironko.Lng)
		backward := Distance(kimironko.Lat, kimironko.Lng, downtown.Lat, downtown.Lng)
		assert.Equal(t, forward, backward)
	})

	t.Run("SamePoint", func(t *testing.T) {
		assert.Zero(t, Distance(downtown.Lat, downtown.Lng, downtown.Lat, downtown.Lng))
	})

	t.Run("ShortDistance", func(t *testing.T) {
		// Points ~14m apart, the scale proximity matching operates at.
		d := Distance(-1.95, 30.05, -1.9501, 30.0501)
		assert.InDelta(t, 15.7, d, 2)
	})

	t.Run("NonNegative", func(t *testing.T) {
		pairs := []LatLng{
			{Lat: 0, Lng: 0},
			{Lat: -90, Lng: -180},
			{Lat: 90, Lng: 180},
			{Lat: -1.95, Lng: 30.05},
		}
		for _, a := range pairs {
			for _, b := range pairs {
				assert.GreaterOrEqual(t, DistanceBetween(a, b), 0.0)
			}
		}
	})
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(-1.95, 30.05))
	assert.True(t, ValidCoordinate(90, 180))
	assert.True(t, ValidCoordinate(-90, -180))
	assert.False(t, ValidCoordinate(91, 0))
	assert.False(t, ValidCoordinate(0, -181))
	assert.False(t, ValidCoordinate(200, -300))
}

func TestDecodePolyline(t *testing.T) {
	// Standard example from the polyline encoding reference.
	points, err := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.InDelta(t, 38.5, points[0].Lat, 0.001)
	assert.InDelta(t, -120.2, points[0].Lng, 0.001)

	t.Run("Empty", func(t *testing.T) {
		_, err := DecodePolyline("")
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := DecodePolyline("not-a-polyline\x00")
		assert.Error(t, err)
	})
}
