package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/hermes/internal/models"
)

// FetchTasksForGeocoding returns up to limit stops that still lack coordinates,
// belong to an open order and have failed fewer than MaxGeocodingAttempts times.
// Oldest stops come first.
func (r *Repository) FetchTasksForGeocoding(ctx context.Context, limit int) ([]models.GeocodeTask, error) {
	query := `
		SELECT s.order_id, s.stop_type, s.address
		FROM public.order_stops s
		JOIN public.orders o ON o.order_id = s.order_id
		WHERE
			s.latitude IS NULL
			AND o.status NOT IN ('delivered', 'cancelled')
			AND s.geocoding_attempts < $1
			AND s.address IS NOT NULL AND s.address <> ''
		ORDER BY s.created_at ASC
		LIMIT $2;
	`

	rows, err := r.db.Query(ctx, query, MaxGeocodingAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stops without coordinates: %w", err)
	}
	defer rows.Close()

	var tasks []models.GeocodeTask
	for rows.Next() {
		var (
			task     models.GeocodeTask
			stopType string
		)
		if errScan := rows.Scan(&task.OrderID, &stopType, &task.Address); errScan != nil {
			return nil, fmt.Errorf("failed to scan stop without coordinates: %w", errScan)
		}

		task.Type = models.JobType(stopType)
		if !task.Type.Valid() {
			r.log.WarnContext(ctx, "Skipping stop with unknown type", "order", task.OrderID, "type", stopType)
			continue
		}

		r.log.DebugContext(ctx, "Stop without coordinates received", "order", task.OrderID, "type", task.Type)
		tasks = append(tasks, task)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return tasks, nil
}

// UpdateTaskCoordinates stores the geocoded position of a stop and clears its last error.
func (r *Repository) UpdateTaskCoordinates(ctx context.Context, task models.GeocodeTask, coords models.Coordinates) error {
	query := `
		UPDATE public.order_stops
		SET
			latitude = $1,
			longitude = $2,
			geocoding_error = NULL
		WHERE
			order_id = $3 AND stop_type = $4;
	`

	tag, err := r.db.Exec(ctx, query, coords.Latitude, coords.Longitude, task.OrderID, string(task.Type))
	if err != nil {
		return fmt.Errorf("failed to update stop coordinates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrStopNotFound, models.JobID(task.OrderID, task.Type))
	}

	return nil
}

// IncrementFailureCount records a failed geocoding attempt and its error message.
func (r *Repository) IncrementFailureCount(ctx context.Context, task models.GeocodeTask, errMsg string) error {
	query := `
		UPDATE public.order_stops
		SET
			geocoding_attempts = geocoding_attempts + 1,
			geocoding_error = $1
		WHERE
			order_id = $2 AND stop_type = $3;
	`

	tag, err := r.db.Exec(ctx, query, errMsg, task.OrderID, string(task.Type))
	if err != nil {
		return fmt.Errorf("failed to update geocoding error and number of attempts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrStopNotFound, models.JobID(task.OrderID, task.Type))
	}

	return nil
}

// ListRoutablePoints returns every geocoded stop of an open order that has not been completed.
func (r *Repository) ListRoutablePoints(ctx context.Context) ([]models.GeoPoint, error) {
	query := `
		SELECT s.order_id, s.stop_type, s.latitude, s.longitude, o.bike_quantity, o.tracking_number
		FROM public.order_stops s
		JOIN public.orders o ON o.order_id = s.order_id
		WHERE
			s.latitude IS NOT NULL
			AND s.longitude IS NOT NULL
			AND s.completed_at IS NULL
			AND o.status NOT IN ('delivered', 'cancelled')
		ORDER BY s.order_id, s.stop_type;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query routable stops: %w", err)
	}
	defer rows.Close()

	points := []models.GeoPoint{}
	for rows.Next() {
		var (
			orderID, stopType, tracking string
			coords                      models.Coordinates
			bikes                       int
		)
		if errScan := rows.Scan(&orderID, &stopType, &coords.Latitude, &coords.Longitude, &bikes, &tracking); errScan != nil {
			return nil, fmt.Errorf("failed to scan routable stop: %w", errScan)
		}

		points = append(points, models.NewGeoPoint(orderID, models.JobType(stopType), coords, bikes, tracking))
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return points, nil
}
