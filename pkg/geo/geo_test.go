package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	oslo := Point{Lat: 59.9139, Lon: 10.7522}
	bergen := Point{Lat: 60.3913, Lon: 5.3221}

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t, DistanceMeters(oslo, bergen), DistanceMeters(bergen, oslo))
	})

	t.Run("identity", func(t *testing.T) {
		assert.Equal(t, 0.0, DistanceMeters(oslo, oslo))
	})

	t.Run("known distance", func(t *testing.T) {
		// Oslo–Bergen 大圆距离约 305km
		d := DistanceMeters(oslo, bergen)
		assert.InDelta(t, 305000, d, 3000)
	})

	t.Run("out of range inputs do not panic", func(t *testing.T) {
		weird := Point{Lat: 123.0, Lon: 456.0}
		assert.NotPanics(t, func() { DistanceMeters(weird, oslo) })
	})
}

func TestContains(t *testing.T) {
	center := Point{Lat: 59.9139, Lon: 10.7522}
	radius := 500.0

	t.Run("boundary inclusive", func(t *testing.T) {
		onEdge := DestinationPoint(center, 90, radius)
		// 用实际球面距离作半径，恰好落在边界上
		d := DistanceMeters(center, onEdge)
		assert.InDelta(t, radius, d, 0.001)
		assert.True(t, Contains(center, d, onEdge))
	})

	t.Run("just outside", func(t *testing.T) {
		outside := DestinationPoint(center, 90, radius+1)
		assert.False(t, Contains(center, radius, outside))
	})

	t.Run("center contained", func(t *testing.T) {
		assert.True(t, Contains(center, radius, center))
	})
}

func TestBoundingBox(t *testing.T) {
	center := Point{Lat: 59.9139, Lon: 10.7522}

	t.Run("covers circle", func(t *testing.T) {
		minLat, maxLat, minLon, maxLon := BoundingBox(center, 1000)
		for _, bearing := range []float64{0, 45, 90, 135, 180, 225, 270, 315} {
			p := DestinationPoint(center, bearing, 1000)
			assert.GreaterOrEqual(t, p.Lat, minLat-1e-9)
			assert.LessOrEqual(t, p.Lat, maxLat+1e-9)
			assert.GreaterOrEqual(t, p.Lon, minLon-1e-9)
			assert.LessOrEqual(t, p.Lon, maxLon+1e-9)
		}
	})

	t.Run("degenerates at pole", func(t *testing.T) {
		_, _, minLon, maxLon := BoundingBox(Point{Lat: 90, Lon: 0}, 1000)
		assert.Equal(t, -180.0, minLon)
		assert.Equal(t, 180.0, maxLon)
	})
}

func TestDestinationPoint(t *testing.T) {
	origin := Point{Lat: 0, Lon: 0}

	// 向东1度经线在赤道约111.19km
	p := DestinationPoint(origin, 90, 111194.9)
	assert.InDelta(t, 1.0, p.Lon, 0.001)
	assert.InDelta(t, 0.0, p.Lat, 0.001)
}
