// Package geo provides great-circle distance and polyline helpers for
// road-segment matching.
package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
)

// earthRadiusMeters is the mean Earth radius used by the Haversine formula.
const earthRadiusMeters = 6371000.0

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ValidCoordinate reports whether lat/lng fall inside the WGS84 ranges.
func ValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Distance calculates the great-circle distance in meters between two points
// using the Haversine formula. Inputs are assumed to be valid coordinates;
// callers validate at the boundary so NaN never reaches distance comparisons.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}

	rlat1 := lat1 * math.Pi / 180
	rlng1 := lng1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlng2 := lng2 * math.Pi / 180

	dlat := rlat2 - rlat1
	dlng := rlng2 - rlng1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// DistanceBetween is a convenience wrapper over Distance for LatLng values.
func DistanceBetween(p1, p2 LatLng) float64 {
	return Distance(p1.Lat, p1.Lng, p2.Lat, p2.Lng)
}

// DecodePolyline decodes a Google encoded polyline string into a point
// sequence. Every decoded point is validated so corrupt geometry from a
// routing backend is rejected instead of flowing into matching.
func DecodePolyline(encoded string) ([]LatLng, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.New("failed to decode polyline: " + err.Error())
	}

	points := make([]LatLng, len(coords))
	for i, coord := range coords {
		points[i] = LatLng{Lat: coord[0], Lng: coord[1]}
		if !ValidCoordinate(points[i].Lat, points[i].Lng) {
			return nil, errors.New("decoded polyline contains invalid coordinates")
		}
	}

	return points, nil
}
