package clustering_test

import (
	"sort"

	"github.com/UnknownOlympus/hermes/internal/models"
)

// seqRand replays a fixed sequence of values, wrapping around at the end.
type seqRand struct {
	vals []float64
	i    int
}

func (s *seqRand) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++

	return v
}

func point(id string, jobType models.JobType, lat, lon float64, bikes int) models.GeoPoint {
	return models.GeoPoint{ID: id, OrderID: id, Type: jobType, Lat: lat, Lon: lon, BikeQuantity: bikes}
}

func clusteredIDs(result models.ClusterResult) []string {
	var ids []string
	for _, c := range result.Clusters {
		for _, p := range c.Points {
			ids = append(ids, p.ID)
		}
	}
	sort.Strings(ids)

	return ids
}

func inputIDs(points []models.GeoPoint) []string {
	ids := make([]string, 0, len(points))
	for _, p := range points {
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)

	return ids
}

// birminghamEdinburgh returns three stops around the depot and two in Edinburgh.
func birminghamEdinburgh() []models.GeoPoint {
	return []models.GeoPoint{
		point("b1", models.JobTypeCollection, 52.4800, -1.8900, 2),
		point("b2", models.JobTypeDelivery, 52.4500, -1.8500, 1),
		point("b3", models.JobTypeCollection, 52.5000, -1.9000, 1),
		point("e1", models.JobTypeCollection, 55.9533, -3.1883, 2),
		point("e2", models.JobTypeDelivery, 55.9400, -3.2000, 1),
	}
}
