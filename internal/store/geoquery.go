package store

import (
	"gorm.io/gorm"

	"HibiscusGuard/pkg/geo"
)

// withinBox 粗过滤：先用经纬度包围盒走索引，精确的haversine在内存里做
func withinBox(q *gorm.DB, latCol, lonCol string, center geo.Point, radiusMeters float64) *gorm.DB {
	minLat, maxLat, minLon, maxLon := geo.BoundingBox(center, radiusMeters)
	return q.Where(latCol+" BETWEEN ? AND ?", minLat, maxLat).
		Where(lonCol+" BETWEEN ? AND ?", minLon, maxLon)
}

// filterByDistance keeps only rows whose extracted point lies within the
// radius, preserving input order.
func filterByDistance[T any](rows []T, point func(T) geo.Point, center geo.Point, radiusMeters float64) []T {
	out := rows[:0]
	for _, row := range rows {
		if geo.Contains(center, radiusMeters, point(row)) {
			out = append(out, row)
		}
	}
	return out
}
