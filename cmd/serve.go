package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/hermes/internal/api"
	"github.com/UnknownOlympus/hermes/internal/clustering"
	"github.com/UnknownOlympus/hermes/internal/config"
	"github.com/UnknownOlympus/hermes/internal/geocoding"
	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/UnknownOlympus/hermes/internal/repository"
	"github.com/UnknownOlympus/hermes/internal/service"
	"github.com/UnknownOlympus/hermes/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const (
	// providerRateLimit is the request budget per second shared by all workers.
	providerRateLimit = 50
	readTimeout       = 5 * time.Second
	writeTimeout      = 30 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the geocoding worker and the route planning API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, config.MustLoad())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := setupLogger(cfg.Env, os.Stdout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)

	pool, err := repository.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer pool.Close()

	repo := repository.NewRepository(pool, logger)

	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.ProviderType),
		APIKey:    cfg.APIKey,
		RateLimit: providerRateLimit / max(1, cfg.Workers),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create geocoding provider: %w", err)
	}
	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.ProviderType)

	var plans service.PlanStore
	if cfg.Cache.Enabled() {
		rdb, rerr := store.NewClient(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if rerr != nil {
			logger.WarnContext(ctx, "Redis unavailable, running without cache and plan storage", "error", rerr)
		} else {
			defer rdb.Close()
			geoProvider = geocoding.NewCachedProvider(geoProvider, rdb, cfg.Cache.TTL, logger, appMetrics.CacheLookups)
			plans = store.NewRedisStore(rdb, cfg.Cache.TTL)
			logger.InfoContext(ctx, "Redis cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
		}
	}

	geoService := service.NewGeocodingService(
		logger,
		repo,
		geoProvider,
		cfg.ProviderType,
		appMetrics,
		cfg.Workers,
		cfg.Interval,
		cfg.AddrSuffix,
	)

	planner := service.NewPlanner(
		logger,
		repo,
		plans,
		clustering.New(cfg.Depot),
		appMetrics,
		clustering.Options{
			MaxBikesPerVan:      cfg.Planning.MaxBikesPerVan,
			MaxDistancePerRoute: cfg.Planning.MaxDistancePerRoute,
		},
	)

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewRouter(api.Deps{
			Log:      logger,
			Planner:  planner,
			Orders:   repo,
			Database: repo,
			Geocoder: cfg.ProviderType,
			Metrics:  appMetrics,
			Gatherer: reg,
		}),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	go geoService.Run(ctx)

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "Starting HTTP server", "port", cfg.Port)
		serveErr <- server.ListenAndServe()
	}()

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	select {
	case <-ctx.Done():
		logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.ErrorContext(shutdownCtx, "HTTP server shutdown failed", "error", err)
	}

	logger.InfoContext(shutdownCtx, "Application stopped gracefully.", slog.String("version", Version))

	return nil
}
