package api_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/UnknownOlympus/hermes/internal/api"
	"github.com/UnknownOlympus/hermes/internal/clustering"
	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/UnknownOlympus/hermes/internal/repository"
	"github.com/UnknownOlympus/hermes/internal/service"
	"github.com/UnknownOlympus/hermes/internal/store"
	"github.com/UnknownOlympus/hermes/test/mocks"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const birminghamEdinburgh = `{
	"maxDistancePerRoute": 300,
	"points": [
		{"id": "o1-collection", "orderId": "o1", "type": "collection", "lat": 52.48, "lon": -1.89, "bikeQuantity": 2},
		{"id": "o2-delivery", "orderId": "o2", "type": "delivery", "lat": 52.45, "lon": -1.85, "bikeQuantity": 1},
		{"id": "o3-collection", "orderId": "o3", "type": "collection", "lat": 55.9533, "lon": -3.1883, "bikeQuantity": 1},
		{"id": "o4-delivery", "orderId": "o4", "type": "delivery", "lat": 55.94, "lon": -3.20, "bikeQuantity": 3}
	]
}`

type seqRand struct {
	vals []float64
	i    int
}

func (s *seqRand) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++

	return v
}

type fixture struct {
	router  http.Handler
	repo    *mocks.Interface
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, withStore bool) fixture {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	repo := mocks.NewInterface(t)

	var plans service.PlanStore
	if withStore {
		srv := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		plans = store.NewRedisStore(rdb, time.Hour)
	}

	clusterer := clustering.New(clustering.DefaultDepot, clustering.WithRand(&seqRand{vals: []float64{0.0, 0.5}}))
	planner := service.NewPlanner(slog.Default(), repo, plans, clusterer, m, clustering.Options{
		MaxBikesPerVan:      clustering.DefaultMaxBikesPerVan,
		MaxDistancePerRoute: clustering.DefaultMaxDistancePerRoute,
	})

	router := api.NewRouter(api.Deps{
		Log:      slog.Default(),
		Planner:  planner,
		Orders:   repo,
		Database: repo,
		Geocoder: "postcodes",
		Metrics:  m,
		Gatherer: reg,
	})

	return fixture{router: router, repo: repo, metrics: m}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequestWithContext(t.Context(), method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()

	t.Run("success - database up", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		f.repo.On("Ping", mock.Anything).Return(nil).Once()

		rec := f.do(t, http.MethodGet, "/healthz", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","database":"up","geocoder":"postcodes"}`, rec.Body.String())
	})

	t.Run("error - database down", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		f.repo.On("Ping", mock.Anything).Return(assert.AnError).Once()

		rec := f.do(t, http.MethodGet, "/healthz", "")

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "down", decode[map[string]string](t, rec)["database"])
	})

	t.Run("error - wrong method", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)

		rec := f.do(t, http.MethodPost, "/healthz", "")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestOrders(t *testing.T) {
	t.Parallel()

	t.Run("success - order created", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		want := models.NewOrder("ord-1", "TRK1", 2, "B5 6DY, Birmingham", "EH2 2AN, Edinburgh")
		f.repo.On("CreateOrder", mock.Anything, want).Return(nil).Once()

		rec := f.do(t, http.MethodPost, "/api/orders", `{
			"id": "ord-1",
			"trackingNumber": "TRK1",
			"bikeQuantity": 2,
			"collectionAddress": "B5 6DY, Birmingham",
			"deliveryAddress": "EH2 2AN, Edinburgh"
		}`)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "/api/orders/ord-1", rec.Header().Get("Location"))
		got := decode[models.Order](t, rec)
		assert.Equal(t, want, got)
		assert.Equal(t, uint64(1), histogramCount(t, f.metrics.HTTPRequestSeconds, "/api/orders", "POST", "201"))
	})

	t.Run("success - id and bike quantity defaulted", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		f.repo.On("CreateOrder", mock.Anything, mock.MatchedBy(func(o models.Order) bool {
			return o.ID != "" && o.BikeQuantity == 1 && o.Status == models.OrderStatusPending
		})).Return(nil).Once()

		rec := f.do(t, http.MethodPost, "/api/orders", `{"deliveryAddress": "EH2 2AN, Edinburgh"}`)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		got := decode[models.Order](t, rec)
		_, err := uuid.Parse(got.ID)
		require.NoError(t, err)
		require.Len(t, got.Stops, 2)
		assert.Empty(t, got.Stops[0].Address)
	})

	t.Run("error - order exists", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		f.repo.On("CreateOrder", mock.Anything, mock.Anything).
			Return(fmt.Errorf("%w: ord-1", repository.ErrOrderExists)).Once()

		rec := f.do(t, http.MethodPost, "/api/orders", `{"id": "ord-1", "collectionAddress": "B5 6DY"}`)

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, decode[map[string]string](t, rec)["error"], "order already exists")
	})

	t.Run("error - database failure", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		f.repo.On("CreateOrder", mock.Anything, mock.Anything).Return(assert.AnError).Once()

		rec := f.do(t, http.MethodPost, "/api/orders", `{"id": "ord-1", "collectionAddress": "B5 6DY"}`)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"error - empty body", "", "request body is empty"},
		{"error - unknown field", `{"id": "ord-1", "status": "delivered"}`, "invalid json body"},
		{"error - no addresses", `{"id": "ord-1"}`, "no stop has an address"},
		{"error - negative bikes", `{"id": "ord-1", "bikeQuantity": -1, "collectionAddress": "B5 6DY"}`, "negative bike quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, false)

			rec := f.do(t, http.MethodPost, "/api/orders", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec)["error"], tt.want)
		})
	}

	t.Run("success - get order", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		stored := models.NewOrder("ord-1", "TRK1", 2, "B5 6DY, Birmingham", "EH2 2AN, Edinburgh")
		stored.Stops[0].Coordinates = &models.Coordinates{Latitude: 52.4751, Longitude: -1.8836}
		f.repo.On("GetOrder", mock.Anything, "ord-1").Return(&stored, nil).Once()

		rec := f.do(t, http.MethodGet, "/api/orders/ord-1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, stored, decode[models.Order](t, rec))
		assert.Equal(t, uint64(1), histogramCount(t, f.metrics.HTTPRequestSeconds, "/api/orders/{id}", "GET", "200"))
	})

	t.Run("error - unknown order", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		f.repo.On("GetOrder", mock.Anything, "ord-404").
			Return(nil, fmt.Errorf("%w: ord-404", repository.ErrOrderNotFound)).Once()

		rec := f.do(t, http.MethodGet, "/api/orders/ord-404", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCluster(t *testing.T) {
	t.Parallel()

	t.Run("success - two routes", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)

		rec := f.do(t, http.MethodPost, "/api/clusters", birminghamEdinburgh)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		result := decode[models.ClusterResult](t, rec)
		require.Len(t, result.Clusters, 2)
		assert.Empty(t, result.Outliers)

		total := 0
		for _, c := range result.Clusters {
			total += len(c.Points)
		}
		assert.Equal(t, 4, total)

		assert.Equal(t, 1, testutil.CollectAndCount(f.metrics.HTTPRequestSeconds))
		assert.Equal(t, uint64(1), histogramCount(t, f.metrics.HTTPRequestSeconds, "/api/clusters", "POST", "200"))
	})

	t.Run("success - forced k", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		body := strings.Replace(birminghamEdinburgh, `"maxDistancePerRoute": 300`, `"forceK": 1`, 1)

		rec := f.do(t, http.MethodPost, "/api/clusters", body)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[models.ClusterResult](t, rec).Clusters, 1)
	})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"error - empty body", "", "request body is empty"},
		{"error - malformed json", `{"points": [`, "invalid json body"},
		{"error - unknown field", `{"points": [], "colour": "red"}`, "invalid json body"},
		{"error - trailing object", `{"points": []} {}`, "only one JSON object"},
		{"error - no points", `{"points": []}`, "at least one point is required"},
		{
			"error - latitude out of range",
			`{"points": [{"id": "x", "type": "delivery", "lat": 91, "lon": 0}]}`,
			"latitude 91 out of range",
		},
		{
			"error - unknown type",
			`{"points": [{"id": "x", "type": "return", "lat": 52, "lon": -1}]}`,
			"unknown type",
		},
		{
			"error - negative bikes",
			`{"points": [{"id": "x", "type": "delivery", "lat": 52, "lon": -1, "bikeQuantity": -1}]}`,
			"negative bike quantity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, false)

			rec := f.do(t, http.MethodPost, "/api/clusters", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec)["error"], tt.want)
		})
	}
}

func TestClusterGeoJSON(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/api/clusters/geojson", birminghamEdinburgh)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	// depot + 2 centroids + 4 stops
	assert.Len(t, fc.Features, 7)
}

func TestClusterGeoJSON_DoesNotStorePlan(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)

	rec := f.do(t, http.MethodPost, "/api/clusters/geojson", birminghamEdinburgh)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/plans/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlans(t *testing.T) {
	t.Parallel()

	t.Run("success - plan from store then fetch", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)
		f.repo.On("ListRoutablePoints", mock.Anything).Return([]models.GeoPoint{
			models.NewGeoPoint("o1", models.JobTypeCollection, models.Coordinates{Latitude: 52.48, Longitude: -1.89}, 1, "T1"),
			models.NewGeoPoint("o1", models.JobTypeDelivery, models.Coordinates{Latitude: 52.41, Longitude: -1.78}, 1, "T1"),
		}, nil).Once()

		rec := f.do(t, http.MethodPost, "/api/plans", "")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created := decode[models.RoutePlan](t, rec)
		require.Len(t, created.Routes, 1)
		assert.Equal(t, clustering.RegionLocal, created.Routes[0].Region)

		rec = f.do(t, http.MethodGet, "/api/plans/"+created.ID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, created.ID, decode[models.RoutePlan](t, rec).ID)

		rec = f.do(t, http.MethodGet, "/api/plans/latest", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, created.ID, decode[models.RoutePlan](t, rec).ID)

		assert.Equal(t, uint64(1), histogramCount(t, f.metrics.HTTPRequestSeconds, "/api/plans/{id}", "GET", "200"))
	})

	t.Run("success - plan from points with options", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)

		rec := f.do(t, http.MethodPost, "/api/plans/points", birminghamEdinburgh)

		require.Equal(t, http.StatusCreated, rec.Code)
		plan := decode[models.RoutePlan](t, rec)
		assert.Len(t, plan.Routes, 2)
		assert.Equal(t, 4, plan.PointCount())
	})

	t.Run("error - invalid options", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)

		rec := f.do(t, http.MethodPost, "/api/plans", `{"forceK": "two"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("error - database failure", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)
		f.repo.On("ListRoutablePoints", mock.Anything).Return(nil, assert.AnError).Once()

		rec := f.do(t, http.MethodPost, "/api/plans", `{"maxBikesPerVan": 6}`)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	})

	t.Run("error - unknown plan", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)

		rec := f.do(t, http.MethodGet, "/api/plans/does-not-exist", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("error - no plan generated yet", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)

		rec := f.do(t, http.MethodGet, "/api/plans/latest", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("error - storage disabled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)

		rec := f.do(t, http.MethodGet, "/api/plans/latest", "")

		require.Equal(t, http.StatusNotImplemented, rec.Code)
		assert.Equal(t, service.ErrPlanStoreDisabled.Error(), decode[map[string]string](t, rec)["error"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t, false)

	f.do(t, http.MethodPost, "/api/clusters", birminghamEdinburgh)
	rec := f.do(t, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hermes_clustering_runs_total")
	assert.Contains(t, rec.Body.String(), `route="/api/clusters"`)
}

func histogramCount(t *testing.T, vec *prometheus.HistogramVec, labels ...string) uint64 {
	t.Helper()

	metric, ok := vec.WithLabelValues(labels...).(prometheus.Metric)
	require.True(t, ok)

	var out dto.Metric
	require.NoError(t, metric.Write(&out))

	return out.GetHistogram().GetSampleCount()
}
