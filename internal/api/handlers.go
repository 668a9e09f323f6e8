package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/hermes/internal/clustering"
	"github.com/UnknownOlympus/hermes/internal/export"
	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type handler struct {
	log      *slog.Logger
	planner  Planner
	orders   OrderStore
	db       Pinger
	geocoder string
}

// pointsRequest carries caller supplied stops and optional tuning.
type pointsRequest struct {
	Points []models.GeoPoint `json:"points"`
	clustering.Options
}

// orderRequest is a new order; an empty id is generated and bikeQuantity defaults to one.
type orderRequest struct {
	ID                string `json:"id"`
	TrackingNumber    string `json:"trackingNumber"`
	BikeQuantity      *int   `json:"bikeQuantity"`
	CollectionAddress string `json:"collectionAddress"`
	DeliveryAddress   string `json:"deliveryAddress"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Geocoder string `json:"geocoder"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	res := healthResponse{Status: "ok", Database: "up", Geocoder: h.geocoder}
	if res.Geocoder == "" {
		res.Geocoder = "disabled"
	}

	status := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.WarnContext(r.Context(), "Health check failed", "error", err)
		res.Status, res.Database = "degraded", "down"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, r, h.log, status, res)
}

func (h *handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, http.StatusBadRequest, err.Error())
		return
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	bikes := 1
	if req.BikeQuantity != nil {
		bikes = *req.BikeQuantity
	}

	order := models.NewOrder(req.ID, req.TrackingNumber, bikes, req.CollectionAddress, req.DeliveryAddress)
	if err := order.Validate(); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	if err := h.orders.CreateOrder(r.Context(), order); err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	h.log.InfoContext(r.Context(), "Order received", "order", order.ID, "bikes", order.BikeQuantity)
	w.Header().Set("Location", "/api/orders/"+order.ID)
	writeJSON(w, r, h.log, http.StatusCreated, order)
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	writeJSON(w, r, h.log, http.StatusOK, order)
}

func (h *handler) cluster(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readPoints(w, r)
	if !ok {
		return
	}

	result, err := h.planner.Cluster(r.Context(), req.Points, req.Options)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	writeJSON(w, r, h.log, http.StatusOK, result)
}

// clusterGeoJSON renders a plan for the given points; the plan is not stored.
func (h *handler) clusterGeoJSON(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readPoints(w, r)
	if !ok {
		return
	}

	plan, err := h.planner.Preview(r.Context(), req.Points, req.Options)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	writeGeoJSON(w, r, h.log, plan)
}

func (h *handler) planPoints(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readPoints(w, r)
	if !ok {
		return
	}

	plan, err := h.planner.PlanPoints(r.Context(), req.Points, req.Options)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	writeJSON(w, r, h.log, http.StatusCreated, plan)
}

// planFromStore accepts an optional options object; an empty body uses the defaults.
func (h *handler) planFromStore(w http.ResponseWriter, r *http.Request) {
	var opts clustering.Options
	if err := decodeJSON(w, r, &opts); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, r, h.log, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.planner.PlanFromStore(r.Context(), opts)
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	writeJSON(w, r, h.log, http.StatusCreated, plan)
}

func (h *handler) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.planner.GetPlan(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	writeJSON(w, r, h.log, http.StatusOK, plan)
}

func (h *handler) latestPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.planner.LatestPlan(r.Context())
	if err != nil {
		writeFailure(w, r, h.log, err)
		return
	}

	writeJSON(w, r, h.log, http.StatusOK, plan)
}

func (h *handler) readPoints(w http.ResponseWriter, r *http.Request) (pointsRequest, bool) {
	var req pointsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, http.StatusBadRequest, err.Error())
		return req, false
	}
	if len(req.Points) == 0 {
		writeError(w, r, h.log, http.StatusBadRequest, "at least one point is required")
		return req, false
	}

	return req, true
}

func writeGeoJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, plan *models.RoutePlan) {
	body, err := export.FeatureCollection(plan).MarshalJSON()
	if err != nil {
		writeFailure(w, r, log, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(body); err != nil {
		log.ErrorContext(r.Context(), "Failed to write response", "path", r.URL.Path, "error", err)
	}
}
