// Package clustering groups geocoded courier stops into van routes.
//
// Points are partitioned with K-Means over Haversine distance, seeded with
// K-Means++. The number of routes is derived from van capacity and maximum
// route length unless the caller forces it, and each route is labelled by its
// compass position relative to the depot.
package clustering

import (
	"math/rand/v2"

	"github.com/UnknownOlympus/hermes/internal/models"
)

const (
	// DefaultMaxBikesPerVan is the van capacity used when none is given.
	DefaultMaxBikesPerVan = 10
	// DefaultMaxDistancePerRoute is the total route length in miles used when none is given.
	DefaultMaxDistancePerRoute = 600.0
	// DefaultMaxIterations bounds the assignment/update loop of ClusterJobs.
	DefaultMaxIterations = 50
	// MaxClusters is the ceiling on simultaneous routes.
	MaxClusters = 10
	// ConvergenceKm is the centroid movement below which iteration stops.
	ConvergenceKm = 0.1
)

// DefaultDepot is the Birmingham depot the service operates from.
var DefaultDepot = models.Coordinates{Latitude: 52.4690, Longitude: -1.8758}

// Rand is the source of randomness used for centroid seeding.
// Float64 must return values in [0, 1).
type Rand interface {
	Float64() float64
}

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() } //nolint:gosec // seeding only

// Options tune a single ClusterJobs call. Zero values select the defaults.
type Options struct {
	MaxBikesPerVan      int     `json:"maxBikesPerVan,omitempty"`
	MaxDistancePerRoute float64 `json:"maxDistancePerRoute,omitempty"` // miles
	ForceK              int     `json:"forceK,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.MaxBikesPerVan <= 0 {
		o.MaxBikesPerVan = DefaultMaxBikesPerVan
	}
	if o.MaxDistancePerRoute <= 0 {
		o.MaxDistancePerRoute = DefaultMaxDistancePerRoute
	}

	return o
}

// Clusterer partitions stops around a fixed depot.
// It holds no mutable state, so one value may serve concurrent calls as long
// as its Rand is safe for concurrent use (the default one is).
type Clusterer struct {
	depot models.Coordinates
	rand  Rand
}

// Option configures a Clusterer.
type Option func(*Clusterer)

// WithRand replaces the random source used for seeding.
func WithRand(r Rand) Option {
	return func(c *Clusterer) {
		if r != nil {
			c.rand = r
		}
	}
}

// New returns a Clusterer bound to the given depot.
func New(depot models.Coordinates, opts ...Option) *Clusterer {
	c := &Clusterer{depot: depot, rand: systemRand{}}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Depot returns the reference location of the clusterer.
func (c *Clusterer) Depot() models.Coordinates {
	return c.depot
}

// ClusterJobs groups points into routes. ForceK, when positive, replaces the
// k-selection heuristic and is clamped to [1, min(len(points), MaxClusters)].
// Every input point lands in exactly one returned cluster.
func (c *Clusterer) ClusterJobs(points []models.GeoPoint, opts Options) models.ClusterResult {
	opts = opts.withDefaults()

	var k int
	if opts.ForceK > 0 {
		k = clampK(opts.ForceK, len(points))
	} else {
		k = DetermineOptimalK(points, opts.MaxBikesPerVan, opts.MaxDistancePerRoute)
	}

	return c.KMeansCluster(points, k, DefaultMaxIterations)
}

func clampK(k, n int) int {
	return max(1, min(k, n, MaxClusters))
}
