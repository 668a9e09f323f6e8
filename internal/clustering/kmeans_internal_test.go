package clustering

import (
	"testing"

	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestUpdateCentroids_EmptyClusterFallsBackToDepot(t *testing.T) {
	t.Parallel()

	c := New(DefaultDepot)
	points := []models.GeoPoint{
		{ID: "a", Lat: 52.0, Lon: -2.0},
		{ID: "b", Lat: 54.0, Lon: -1.0},
	}

	updated := c.updateCentroids(points, []int{0, 0}, 2)

	assert.InDelta(t, 53.0, updated[0].Lat, 1e-9)
	assert.InDelta(t, -1.5, updated[0].Lon, 1e-9)
	assert.Equal(t, models.Centroid{Lat: DefaultDepot.Latitude, Lon: DefaultDepot.Longitude}, updated[1])
}

func TestNearest_TiesGoToLowestIndex(t *testing.T) {
	t.Parallel()

	p := models.GeoPoint{Lat: 52.0, Lon: 0.0}
	centroids := []models.Centroid{{Lat: 53.0, Lon: 0.0}, {Lat: 51.0, Lon: 0.0}}

	idx, _ := nearest(p, centroids)
	assert.Equal(t, 0, idx)
}

func TestPickWeighted(t *testing.T) {
	t.Parallel()

	weights := []float64{0, 4, 0, 6}

	assert.Equal(t, 1, pickWeighted(weights, 0))
	assert.Equal(t, 1, pickWeighted(weights, 3.9))
	assert.Equal(t, 3, pickWeighted(weights, 4))
	assert.Equal(t, 3, pickWeighted(weights, 9.99))
	assert.Equal(t, 3, pickWeighted(weights, 10), "rounding past the total keeps a positive weight")
}

func TestHasConverged(t *testing.T) {
	t.Parallel()

	old := []models.Centroid{{Lat: 52.0, Lon: -1.0}}

	assert.True(t, hasConverged(old, []models.Centroid{{Lat: 52.0005, Lon: -1.0}}))
	assert.False(t, hasConverged(old, []models.Centroid{{Lat: 52.01, Lon: -1.0}}))
}

func TestClampK(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, clampK(1, 5))
	assert.Equal(t, 5, clampK(8, 5))
	assert.Equal(t, MaxClusters, clampK(25, 40))
	assert.Equal(t, 1, clampK(3, 0))
}
