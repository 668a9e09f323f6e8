// Package api exposes route planning over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/hermes/internal/clustering"
	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Planner is the subset of *service.Planner served by the API.
type Planner interface {
	Cluster(ctx context.Context, points []models.GeoPoint, opts clustering.Options) (models.ClusterResult, error)
	PlanPoints(ctx context.Context, points []models.GeoPoint, opts clustering.Options) (*models.RoutePlan, error)
	Preview(ctx context.Context, points []models.GeoPoint, opts clustering.Options) (*models.RoutePlan, error)
	PlanFromStore(ctx context.Context, opts clustering.Options) (*models.RoutePlan, error)
	GetPlan(ctx context.Context, id string) (*models.RoutePlan, error)
	LatestPlan(ctx context.Context) (*models.RoutePlan, error)
}

// OrderStore takes in new orders and looks them up.
type OrderStore interface {
	CreateOrder(ctx context.Context, order models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Log      *slog.Logger
	Planner  Planner
	Orders   OrderStore
	Database Pinger
	// Geocoder names the configured geocoding provider, empty when none.
	Geocoder string
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter wires the handlers and returns the service's http.Handler.
func NewRouter(deps Deps) http.Handler {
	h := &handler{
		log:      deps.Log,
		planner:  deps.Planner,
		orders:   deps.Orders,
		db:       deps.Database,
		geocoder: deps.Geocoder,
	}

	r := mux.NewRouter()
	r.Use(observe(deps.Log, deps.Metrics))

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/orders", h.createOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", h.getOrder).Methods(http.MethodGet)
	api.HandleFunc("/clusters", h.cluster).Methods(http.MethodPost)
	api.HandleFunc("/clusters/geojson", h.clusterGeoJSON).Methods(http.MethodPost)
	api.HandleFunc("/plans", h.planFromStore).Methods(http.MethodPost)
	api.HandleFunc("/plans/points", h.planPoints).Methods(http.MethodPost)
	api.HandleFunc("/plans/latest", h.latestPlan).Methods(http.MethodGet)
	api.HandleFunc("/plans/{id}", h.getPlan).Methods(http.MethodGet)

	return r
}
