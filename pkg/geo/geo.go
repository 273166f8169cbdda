package geo

import "math"

const earthRadiusMeters = 6371000

// DefaultSiteRadiusMeters is the geofence radius applied when a project
// does not configure its own.
const DefaultSiteRadiusMeters = 70

// DistantThresholdMeters marks a check-in as distant when the worker is
// farther than this from the site center. Check-ins are never rejected on
// distance, only flagged.
const DistantThresholdMeters = 80

// HaversineMeters returns the great-circle distance between two WGS84
// coordinates in meters.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinRadius reports whether a point falls inside the site geofence.
// A non-positive radius falls back to DefaultSiteRadiusMeters.
func WithinRadius(siteLat, siteLon, lat, lon, radiusMeters float64) bool {
	if radiusMeters <= 0 {
		radiusMeters = DefaultSiteRadiusMeters
	}
	return HaversineMeters(siteLat, siteLon, lat, lon) <= radiusMeters
}

// IsDistant reports whether a point should be flagged as distant.
func IsDistant(siteLat, siteLon, lat, lon float64) bool {
	return HaversineMeters(siteLat, siteLon, lat, lon) > DistantThresholdMeters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
