package clustering_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/UnknownOlympus/hermes/internal/clustering"
	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKMeansCluster(t *testing.T) {
	t.Parallel()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		result := clustering.New(clustering.DefaultDepot).KMeansCluster(nil, 3, 50)

		require.NotNil(t, result.Clusters)
		require.NotNil(t, result.Outliers)
		assert.Empty(t, result.Clusters)
		assert.Empty(t, result.Outliers)
	})

	t.Run("non positive k returns everything as outliers", func(t *testing.T) {
		t.Parallel()
		points := birminghamEdinburgh()
		result := clustering.New(clustering.DefaultDepot).KMeansCluster(points, 0, 50)

		assert.Empty(t, result.Clusters)
		assert.Equal(t, points, result.Outliers)
	})

	t.Run("single point", func(t *testing.T) {
		t.Parallel()
		p := point("only", models.JobTypeCollection, 53.4808, -2.2426, 3)
		result := clustering.New(clustering.DefaultDepot).KMeansCluster([]models.GeoPoint{p}, 5, 50)

		require.Len(t, result.Clusters, 1)
		c := result.Clusters[0]
		assert.Equal(t, 0, c.ID)
		assert.Equal(t, []models.GeoPoint{p}, c.Points)
		assert.Equal(t, models.Centroid{Lat: p.Lat, Lon: p.Lon}, c.Centroid)
		assert.Equal(t, "#3B82F6", c.Color)
		assert.Empty(t, result.Outliers)
	})

	t.Run("k larger than input is reduced", func(t *testing.T) {
		t.Parallel()
		points := birminghamEdinburgh()
		result := clustering.New(clustering.DefaultDepot).KMeansCluster(points, 50, 50)

		assert.LessOrEqual(t, len(result.Clusters), len(points))
		assert.Empty(t, cmp.Diff(inputIDs(points), clusteredIDs(result)))
	})

	t.Run("identical coordinates stop seeding early", func(t *testing.T) {
		t.Parallel()
		points := []models.GeoPoint{
			point("a", models.JobTypeCollection, 52.48, -1.89, 1),
			point("b", models.JobTypeDelivery, 52.48, -1.89, 1),
			point("c", models.JobTypeCollection, 52.48, -1.89, 1),
		}
		result := clustering.New(clustering.DefaultDepot).KMeansCluster(points, 3, 50)

		require.Len(t, result.Clusters, 1)
		assert.Len(t, result.Clusters[0].Points, 3)
	})

	t.Run("zero iterations still assigns every point", func(t *testing.T) {
		t.Parallel()
		points := birminghamEdinburgh()
		c := clustering.New(clustering.DefaultDepot, clustering.WithRand(&seqRand{vals: []float64{0.0, 0.5}}))
		result := c.KMeansCluster(points, 2, 0)

		require.Len(t, result.Clusters, 2)
		assert.Empty(t, cmp.Diff(inputIDs(points), clusteredIDs(result)))
		// Without refinement the centroids are the seeded points.
		assert.Equal(t, models.Centroid{Lat: points[0].Lat, Lon: points[0].Lon}, result.Clusters[0].Centroid)
	})

	t.Run("colours follow the cluster index", func(t *testing.T) {
		t.Parallel()
		points := birminghamEdinburgh()
		result := clustering.New(clustering.DefaultDepot).KMeansCluster(points, 5, 50)

		for _, c := range result.Clusters {
			assert.Equal(t, clustering.ColorFor(c.ID), c.Color)
		}
	})
}

func TestKMeansCluster_Coverage(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11)) //nolint:gosec // test data
	points := make([]models.GeoPoint, 0, 60)
	for i := range 60 {
		jobType := models.JobTypeCollection
		if i%2 == 1 {
			jobType = models.JobTypeDelivery
		}
		points = append(points, point(
			fmt.Sprintf("job-%d", i), jobType,
			50.0+rng.Float64()*6.0, -5.0+rng.Float64()*4.5, rng.IntN(4),
		))
	}

	for k := 1; k <= 10; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			t.Parallel()
			result := clustering.New(clustering.DefaultDepot).KMeansCluster(points, k, clustering.DefaultMaxIterations)

			assert.GreaterOrEqual(t, len(result.Clusters), 1)
			assert.LessOrEqual(t, len(result.Clusters), k)
			assert.Empty(t, cmp.Diff(inputIDs(points), clusteredIDs(result)))
			for _, c := range result.Clusters {
				assert.NotEmpty(t, c.Points)
			}
		})
	}
}

func TestColorFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "#3B82F6", clustering.ColorFor(0))
	assert.Equal(t, "#84CC16", clustering.ColorFor(9))
	assert.Equal(t, "#3B82F6", clustering.ColorFor(10))
	assert.Equal(t, "#EF4444", clustering.ColorFor(11))
}
