package clustering

import (
	"math"

	"github.com/UnknownOlympus/hermes/internal/models"
)

var palette = [MaxClusters]string{
	"#3B82F6", "#EF4444", "#10B981", "#F59E0B", "#8B5CF6",
	"#EC4899", "#14B8A6", "#F97316", "#6366F1", "#84CC16",
}

// ColorFor returns the display colour of the cluster with the given index.
func ColorFor(index int) string {
	return palette[((index%len(palette))+len(palette))%len(palette)]
}

// KMeansCluster runs K-Means++ seeded K-Means with at most k centroids and
// maxIterations refinement passes. With maxIterations <= 0 the points are
// assigned once to the seeded centroids.
func (c *Clusterer) KMeansCluster(points []models.GeoPoint, k, maxIterations int) models.ClusterResult {
	if len(points) == 0 {
		return models.ClusterResult{Clusters: []models.Cluster{}, Outliers: []models.GeoPoint{}}
	}

	actualK := min(k, len(points))
	if actualK <= 0 {
		outliers := make([]models.GeoPoint, len(points))
		copy(outliers, points)

		return models.ClusterResult{Clusters: []models.Cluster{}, Outliers: outliers}
	}

	centroids := c.seedCentroids(points, actualK)

	var assignments []int
	for range maxIterations {
		assignments = assign(points, centroids)
		updated := c.updateCentroids(points, assignments, len(centroids))
		converged := hasConverged(centroids, updated)
		centroids = updated
		if converged {
			break
		}
	}

	if assignments == nil {
		assignments = assign(points, centroids)
	}

	return buildResult(points, centroids, assignments)
}

// seedCentroids picks the first centroid uniformly and every following one
// with probability proportional to the squared distance to its nearest
// already chosen centroid. Seeding stops early when all points coincide with
// chosen centroids.
func (c *Clusterer) seedCentroids(points []models.GeoPoint, k int) []models.Centroid {
	centroids := make([]models.Centroid, 0, k)
	centroids = append(centroids, centroidOf(points[c.index(len(points))]))

	weights := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			_, d := nearest(p, centroids)
			weights[i] = d * d
			total += weights[i]
		}

		if total == 0 {
			break
		}

		next := pickWeighted(weights, c.rand.Float64()*total)
		centroids = append(centroids, centroidOf(points[next]))
	}

	return centroids
}

func (c *Clusterer) index(n int) int {
	i := int(c.rand.Float64() * float64(n))

	return max(0, min(i, n-1))
}

// pickWeighted returns the first index whose cumulative weight exceeds target.
// Only indexes with a positive weight can be returned.
func pickWeighted(weights []float64, target float64) int {
	cumulative := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		cumulative += w
		if target < cumulative {
			return i
		}
	}

	return last
}

func assign(points []models.GeoPoint, centroids []models.Centroid) []int {
	assignments := make([]int, len(points))
	for i, p := range points {
		assignments[i], _ = nearest(p, centroids)
	}

	return assignments
}

// nearest returns the index of and distance to the closest centroid.
// Ties go to the lowest index.
func nearest(p models.GeoPoint, centroids []models.Centroid) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for i, ctr := range centroids {
		d := Haversine(p.Lat, p.Lon, ctr.Lat, ctr.Lon)
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	return best, bestDist
}

// updateCentroids averages latitude and longitude per cluster. A cluster
// that received no points falls back to the depot position.
func (c *Clusterer) updateCentroids(points []models.GeoPoint, assignments []int, k int) []models.Centroid {
	sumLat := make([]float64, k)
	sumLon := make([]float64, k)
	counts := make([]int, k)

	for i, p := range points {
		idx := assignments[i]
		sumLat[idx] += p.Lat
		sumLon[idx] += p.Lon
		counts[idx]++
	}

	updated := make([]models.Centroid, k)
	for i := range updated {
		if counts[i] == 0 {
			updated[i] = models.Centroid{Lat: c.depot.Latitude, Lon: c.depot.Longitude}
			continue
		}
		updated[i] = models.Centroid{
			Lat: sumLat[i] / float64(counts[i]),
			Lon: sumLon[i] / float64(counts[i]),
		}
	}

	return updated
}

func hasConverged(old, updated []models.Centroid) bool {
	for i := range old {
		if Haversine(old[i].Lat, old[i].Lon, updated[i].Lat, updated[i].Lon) >= ConvergenceKm {
			return false
		}
	}

	return true
}

func buildResult(points []models.GeoPoint, centroids []models.Centroid, assignments []int) models.ClusterResult {
	groups := make([][]models.GeoPoint, len(centroids))
	for i, p := range points {
		groups[assignments[i]] = append(groups[assignments[i]], p)
	}

	clusters := make([]models.Cluster, 0, len(centroids))
	for i, group := range groups {
		if len(group) == 0 {
			continue
		}
		clusters = append(clusters, models.Cluster{
			ID:       i,
			Centroid: centroids[i],
			Points:   group,
			Color:    ColorFor(i),
		})
	}

	return models.ClusterResult{Clusters: clusters, Outliers: []models.GeoPoint{}}
}

func centroidOf(p models.GeoPoint) models.Centroid {
	return models.Centroid{Lat: p.Lat, Lon: p.Lon}
}
