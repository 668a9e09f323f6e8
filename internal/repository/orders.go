package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code of a duplicate key.
const uniqueViolation = "23505"

var (
	// ErrOrderExists is returned when an order with the same id is already stored.
	ErrOrderExists = errors.New("order already exists")
	// ErrOrderNotFound is returned when no order matches the requested id.
	ErrOrderNotFound = errors.New("order not found")
)

// CreateOrder stores a new order together with its stops in a single statement.
// The stops start without coordinates and are picked up by the geocoding worker.
func (r *Repository) CreateOrder(ctx context.Context, order models.Order) error {
	query := `
		WITH new_order AS (
			INSERT INTO public.orders (order_id, tracking_number, bike_quantity)
			VALUES ($1, $2, $3)
			RETURNING order_id
		)
		INSERT INTO public.order_stops (order_id, stop_type, address)
		SELECT new_order.order_id, stop.stop_type, stop.address
		FROM new_order, unnest($4::text[], $5::text[]) AS stop (stop_type, address);
	`

	types := make([]string, 0, len(order.Stops))
	addresses := make([]string, 0, len(order.Stops))
	for _, s := range order.Stops {
		types = append(types, string(s.Type))
		addresses = append(addresses, s.Address)
	}

	_, err := r.db.Exec(ctx, query, order.ID, order.TrackingNumber, order.BikeQuantity, types, addresses)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrOrderExists, order.ID)
		}
		return fmt.Errorf("failed to insert order %s: %w", order.ID, err)
	}

	r.log.DebugContext(ctx, "Order stored", "order", order.ID, "stops", len(order.Stops))

	return nil
}

// GetOrder returns an order with its stops.
func (r *Repository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	query := `
		SELECT
			o.order_id, o.tracking_number, o.bike_quantity, o.status, o.created_at,
			s.stop_type, s.address, s.latitude, s.longitude,
			s.geocoding_attempts, s.geocoding_error, s.completed_at
		FROM public.orders o
		LEFT JOIN public.order_stops s ON s.order_id = o.order_id
		WHERE o.order_id = $1
		ORDER BY s.stop_type;
	`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query order %s: %w", id, err)
	}
	defer rows.Close()

	var order *models.Order
	for rows.Next() {
		var (
			head                    models.Order
			stopType, address, gErr *string
			lat, lon                *float64
			attempts                *int
			completedAt             *time.Time
		)
		if errScan := rows.Scan(
			&head.ID, &head.TrackingNumber, &head.BikeQuantity, &head.Status, &head.CreatedAt,
			&stopType, &address, &lat, &lon, &attempts, &gErr, &completedAt,
		); errScan != nil {
			return nil, fmt.Errorf("failed to scan order %s: %w", id, errScan)
		}

		if order == nil {
			head.Stops = []models.OrderStop{}
			order = &head
		}
		if stopType == nil {
			continue
		}

		stop := models.OrderStop{Type: models.JobType(*stopType), CompletedAt: completedAt}
		if address != nil {
			stop.Address = *address
		}
		if lat != nil && lon != nil {
			stop.Coordinates = &models.Coordinates{Latitude: *lat, Longitude: *lon}
		}
		if attempts != nil {
			stop.GeocodingAttempts = *attempts
		}
		if gErr != nil {
			stop.GeocodingError = *gErr
		}
		order.Stops = append(order.Stops, stop)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}

	return order, nil
}
