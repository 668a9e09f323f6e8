package models

import "time"

// Centroid is the mean position of the points assigned to a cluster.
type Centroid struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Coordinates converts the centroid to a coordinate pair.
func (c Centroid) Coordinates() Coordinates {
	return Coordinates{Longitude: c.Lon, Latitude: c.Lat}
}

// Cluster is a group of stops proposed as one van route.
type Cluster struct {
	ID       int        `json:"id"`
	Centroid Centroid   `json:"centroid"`
	Points   []GeoPoint `json:"points"`
	Color    string     `json:"color"`
}

// ClusterResult is the outcome of a clustering run.
// Outliers is reserved and is never populated by the clusterer.
type ClusterResult struct {
	Clusters []Cluster  `json:"clusters"`
	Outliers []GeoPoint `json:"outliers"`
}

// RouteProposal is a cluster enriched with the data a dispatcher needs to
// confirm it as a route.
type RouteProposal struct {
	Cluster

	Region          string  `json:"region"`
	CollectionBikes int     `json:"collectionBikes"`
	DeliveryBikes   int     `json:"deliveryBikes"`
	DepotDistanceKm float64 `json:"depotDistanceKm"`
	H3Cell          string  `json:"h3Cell,omitempty"`
}

// RoutePlan is the set of proposals produced by one planning request.
type RoutePlan struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Depot     Coordinates     `json:"depot"`
	Routes    []RouteProposal `json:"routes"`
	Outliers  []GeoPoint      `json:"outliers"`
}

// PointCount returns the number of stops across all routes.
func (p *RoutePlan) PointCount() int {
	total := 0
	for _, r := range p.Routes {
		total += len(r.Points)
	}

	return total
}
