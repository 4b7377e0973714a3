package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Valid reports whether lat is within [-90, 90] and lng within [-180, 180].
func Valid(lat, lng float64) bool {
	return s2.LatLngFromDegrees(lat, lng).IsValid()
}

// IsValidCoordinate is Valid for optional coordinates; both must be set.
func IsValidCoordinate(lat, lng *float64) bool {
	if lat == nil || lng == nil {
		return false
	}
	return Valid(*lat, *lng)
}

// DistanceKm is HaversineKm that treats an invalid or missing pair as no
// distance at all.
func DistanceKm(lat1, lng1, lat2, lng2 *float64) float64 {
	if !IsValidCoordinate(lat1, lng1) || !IsValidCoordinate(lat2, lng2) {
		return 0
	}
	return HaversineKm(*lat1, *lng1, *lat2, *lng2)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
