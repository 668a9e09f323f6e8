package clustering

import (
	"math"

	"github.com/UnknownOlympus/hermes/internal/models"
)

const (
	kmPerMile = 1.60934
	// Approximate kilometres per degree at UK latitudes.
	kmPerLatDegree = 111.0
	kmPerLonDegree = 85.0
)

// DetermineOptimalK derives the number of routes from van capacity and the
// maximum route length in miles. Only collection quantities count towards
// capacity, and a route may reach half its length away from the depot.
// Non-positive limits fall back to the package defaults.
func DetermineOptimalK(points []models.GeoPoint, maxBikesPerVan int, maxDistancePerRoute float64) int {
	switch len(points) {
	case 0:
		return 0
	case 1:
		return 1
	}

	if maxBikesPerVan <= 0 {
		maxBikesPerVan = DefaultMaxBikesPerVan
	}
	if maxDistancePerRoute <= 0 {
		maxDistancePerRoute = DefaultMaxDistancePerRoute
	}

	totalBikes := 0
	for _, p := range points {
		if p.Type == models.JobTypeCollection {
			totalBikes += p.BikeQuantity
		}
	}
	minByCapacity := int(math.Ceil(float64(totalBikes) / float64(maxBikesPerVan)))

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon
	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}

	spreadKm := math.Max((maxLat-minLat)*kmPerLatDegree, (maxLon-minLon)*kmPerLonDegree)
	kmPerRoute := maxDistancePerRoute * kmPerMile
	minByDistance := int(math.Ceil(spreadKm / (kmPerRoute / 2)))

	minClusters := max(1, minByCapacity, minByDistance)
	maxClusters := min(len(points), MaxClusters)

	return min(minClusters, maxClusters)
}
