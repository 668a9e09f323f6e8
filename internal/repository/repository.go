// Package repository gives hermes access to orders and their stops stored in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"

	"github.com/UnknownOlympus/hermes/internal/config"
	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxGeocodingAttempts is the number of failed attempts after which a stop is no longer retried.
const MaxGeocodingAttempts = 5

// ErrStopNotFound is returned when an update matches no order stop.
var ErrStopNotFound = errors.New("order stop not found")

// Database is the subset of *pgxpool.Pool used by Repository.
type Database interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// Repository stores orders and reads and updates their stops.
type Repository struct {
	db  Database
	log *slog.Logger
}

// Interface is implemented by Repository and consumed by the services.
type Interface interface {
	FetchTasksForGeocoding(ctx context.Context, limit int) ([]models.GeocodeTask, error)
	UpdateTaskCoordinates(ctx context.Context, task models.GeocodeTask, coords models.Coordinates) error
	IncrementFailureCount(ctx context.Context, task models.GeocodeTask, errMsg string) error
	ListRoutablePoints(ctx context.Context) ([]models.GeoPoint, error)
	CreateOrder(ctx context.Context, order models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	Ping(ctx context.Context) error
}

// NewRepository creates a new instance of Repository with the provided Database.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// NewDatabase opens a connection pool and verifies it with a ping.
func NewDatabase(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, cfg.Port),
		Path:   cfg.Name,
	}

	pool, err := pgxpool.New(ctx, dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
