package geo

import "math"

// EarthRadiusMeters 地球球面半径（米）
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in degrees.
//
// Latitude/longitude ranges are not validated or normalized: out-of-range
// inputs yield geometrically meaningless but non-panicking results. Callers
// own input validity.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DistanceMeters returns the great-circle distance between a and b using the
// haversine formula on a spherical Earth.
func DistanceMeters(a, b Point) float64 {
	latDelta := toRadians(b.Lat - a.Lat)
	lonDelta := toRadians(b.Lon - a.Lon)

	sinLat := math.Sin(latDelta / 2)
	sinLon := math.Sin(lonDelta / 2)

	h := sinLat*sinLat + math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Contains reports whether p lies within radiusMeters of center.
// 边界点算包含
func Contains(center Point, radiusMeters float64, p Point) bool {
	return DistanceMeters(center, p) <= radiusMeters
}

// BoundingBox returns a latitude/longitude box that fully covers the circle
// around center. Used as a coarse SQL prefilter before the exact haversine
// check; near the poles the longitude span degenerates to the full range.
func BoundingBox(center Point, radiusMeters float64) (minLat, maxLat, minLon, maxLon float64) {
	latDelta := toDegrees(radiusMeters / EarthRadiusMeters)
	minLat = center.Lat - latDelta
	maxLat = center.Lat + latDelta

	cosLat := math.Cos(toRadians(center.Lat))
	if cosLat < 1e-10 {
		// 极点附近，经度失去意义
		return minLat, maxLat, -180, 180
	}
	lonDelta := toDegrees(radiusMeters / (EarthRadiusMeters * cosLat))
	return minLat, maxLat, center.Lon - lonDelta, center.Lon + lonDelta
}

// DestinationPoint returns the point reached by travelling distanceMeters from
// origin along the initial bearing (degrees clockwise from north).
func DestinationPoint(origin Point, bearingDeg, distanceMeters float64) Point {
	angular := distanceMeters / EarthRadiusMeters
	bearing := toRadians(bearingDeg)
	lat1 := toRadians(origin.Lat)
	lon1 := toRadians(origin.Lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
		math.Cos(lat1)*math.Sin(angular)*math.Cos(bearing))
	lon2 := lon1 + math.Atan2(
		math.Sin(bearing)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2),
	)

	return Point{Lat: toDegrees(lat2), Lon: toDegrees(lon2)}
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }
