package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/hermes/internal/clustering"
	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/google/uuid"
	"github.com/uber/h3-go/v4"
)

// H3Resolution is the H3 resolution of RouteProposal.H3Cell (cells of roughly 250 km²).
const H3Resolution = 5

// Point sources recorded in the clustering metrics.
const (
	SourceRequest = "request"
	SourceStore   = "store"
)

// ErrPlanStoreDisabled is returned when plans are requested but no store is configured.
var ErrPlanStoreDisabled = errors.New("route plan storage is disabled")

// PointSource lists the stops that are ready to be routed.
type PointSource interface {
	ListRoutablePoints(ctx context.Context) ([]models.GeoPoint, error)
}

// PlanStore persists generated plans.
type PlanStore interface {
	SavePlan(ctx context.Context, plan *models.RoutePlan) error
	GetPlan(ctx context.Context, id string) (*models.RoutePlan, error)
	LatestPlan(ctx context.Context) (*models.RoutePlan, error)
}

// Planner turns stops into route proposals.
type Planner struct {
	log       *slog.Logger
	source    PointSource
	store     PlanStore
	clusterer *clustering.Clusterer
	metrics   *metrics.Metrics
	defaults  clustering.Options
	now       func() time.Time
}

// NewPlanner builds a Planner. store may be nil, in which case plans are not kept.
// defaults fill every option a request leaves at zero.
func NewPlanner(
	log *slog.Logger,
	source PointSource,
	store PlanStore,
	clusterer *clustering.Clusterer,
	metrics *metrics.Metrics,
	defaults clustering.Options,
) *Planner {
	return &Planner{
		log:       log,
		source:    source,
		store:     store,
		clusterer: clusterer,
		metrics:   metrics,
		defaults:  defaults,
		now:       time.Now,
	}
}

// Depot returns the depot every plan starts from.
func (p *Planner) Depot() models.Coordinates {
	return p.clusterer.Depot()
}

// Cluster validates points and runs the clusterer without building a plan.
func (p *Planner) Cluster(ctx context.Context, points []models.GeoPoint, opts clustering.Options) (models.ClusterResult, error) {
	if err := validatePoints(points); err != nil {
		return models.ClusterResult{}, err
	}

	return p.run(ctx, SourceRequest, points, p.withDefaults(opts)), nil
}

// PlanPoints clusters caller supplied points into a route plan.
func (p *Planner) PlanPoints(ctx context.Context, points []models.GeoPoint, opts clustering.Options) (*models.RoutePlan, error) {
	if err := validatePoints(points); err != nil {
		return nil, err
	}

	return p.plan(ctx, SourceRequest, points, opts, true)
}

// Preview builds a route plan from caller supplied points without storing it,
// so the latest plan pointer is left untouched.
func (p *Planner) Preview(ctx context.Context, points []models.GeoPoint, opts clustering.Options) (*models.RoutePlan, error) {
	if err := validatePoints(points); err != nil {
		return nil, err
	}

	return p.plan(ctx, SourceRequest, points, opts, false)
}

// PlanFromStore clusters every routable stop known to the database.
func (p *Planner) PlanFromStore(ctx context.Context, opts clustering.Options) (*models.RoutePlan, error) {
	points, err := p.source.ListRoutablePoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load routable stops: %w", err)
	}

	return p.plan(ctx, SourceStore, points, opts, true)
}

// GetPlan returns a previously generated plan.
func (p *Planner) GetPlan(ctx context.Context, id string) (*models.RoutePlan, error) {
	if p.store == nil {
		return nil, ErrPlanStoreDisabled
	}

	return p.store.GetPlan(ctx, id)
}

// LatestPlan returns the most recently generated plan.
func (p *Planner) LatestPlan(ctx context.Context) (*models.RoutePlan, error) {
	if p.store == nil {
		return nil, ErrPlanStoreDisabled
	}

	return p.store.LatestPlan(ctx)
}

func (p *Planner) plan(
	ctx context.Context,
	source string,
	points []models.GeoPoint,
	opts clustering.Options,
	save bool,
) (*models.RoutePlan, error) {
	result := p.run(ctx, source, points, p.withDefaults(opts))

	routes := make([]models.RouteProposal, 0, len(result.Clusters))
	for _, c := range result.Clusters {
		route, err := p.proposal(c)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	plan := &models.RoutePlan{
		ID:        uuid.NewString(),
		CreatedAt: p.now().UTC(),
		Depot:     p.clusterer.Depot(),
		Routes:    routes,
		Outliers:  result.Outliers,
	}

	if save && p.store != nil {
		if err := p.store.SavePlan(ctx, plan); err != nil {
			p.log.WarnContext(ctx, "Failed to store route plan", "plan", plan.ID, "error", err)
		}
	}

	p.log.InfoContext(ctx, "Route plan created",
		"plan", plan.ID,
		"source", source,
		"routes", len(plan.Routes),
		"points", plan.PointCount(),
		"stored", save && p.store != nil,
	)

	return plan, nil
}

func (p *Planner) run(ctx context.Context, source string, points []models.GeoPoint, opts clustering.Options) models.ClusterResult {
	start := time.Now()
	result := p.clusterer.ClusterJobs(points, opts)
	elapsed := time.Since(start)

	p.metrics.ClusteringRuns.WithLabelValues(source).Inc()
	p.metrics.ClusteringSeconds.Observe(elapsed.Seconds())
	p.metrics.ClustersFormed.Observe(float64(len(result.Clusters)))
	p.metrics.PointsClustered.Add(float64(len(points)))

	p.log.DebugContext(ctx, "Clustering finished",
		"source", source,
		"points", len(points),
		"clusters", len(result.Clusters),
		"force_k", opts.ForceK,
		"elapsed", elapsed,
	)

	return result
}

func (p *Planner) proposal(c models.Cluster) (models.RouteProposal, error) {
	route := models.RouteProposal{
		Cluster: c,
		Region:  p.clusterer.RegionName(c.Centroid),
		DepotDistanceKm: clustering.Haversine(
			c.Centroid.Lat, c.Centroid.Lon,
			p.clusterer.Depot().Latitude, p.clusterer.Depot().Longitude,
		),
	}

	for _, pt := range c.Points {
		switch pt.Type {
		case models.JobTypeCollection:
			route.CollectionBikes += pt.BikeQuantity
		case models.JobTypeDelivery:
			route.DeliveryBikes += pt.BikeQuantity
		}
	}

	cell, err := h3.LatLngToCell(h3.NewLatLng(c.Centroid.Lat, c.Centroid.Lon), H3Resolution)
	if err != nil {
		return models.RouteProposal{}, fmt.Errorf("failed to index centroid of cluster %d: %w", c.ID, err)
	}
	route.H3Cell = cell.String()

	return route, nil
}

func (p *Planner) withDefaults(opts clustering.Options) clustering.Options {
	if opts.MaxBikesPerVan <= 0 {
		opts.MaxBikesPerVan = p.defaults.MaxBikesPerVan
	}
	if opts.MaxDistancePerRoute <= 0 {
		opts.MaxDistancePerRoute = p.defaults.MaxDistancePerRoute
	}

	return opts
}

func validatePoints(points []models.GeoPoint) error {
	seen := make(map[string]bool, len(points))
	for _, pt := range points {
		if err := pt.Validate(); err != nil {
			return err
		}
		if seen[pt.ID] {
			return fmt.Errorf("%w: duplicate id %s", models.ErrInvalidPoint, pt.ID)
		}
		seen[pt.ID] = true
	}

	return nil
}
