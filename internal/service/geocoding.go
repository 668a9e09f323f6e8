// Package service holds the long-running and request-scoped workflows of hermes.
package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/UnknownOlympus/hermes/internal/geocoding"
	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/UnknownOlympus/hermes/internal/repository"
)

// geocodeBatchSize is the number of stops fetched per polling round.
const geocodeBatchSize = 100

// GeocodingService periodically resolves coordinates for order stops that
// still lack them, using a fixed pool of workers per round.
type GeocodingService struct {
	log          *slog.Logger
	repo         repository.Interface
	provider     geocoding.Provider
	providerName string
	metrics      *metrics.Metrics
	numWorkers   int
	pollInterval time.Duration
	addrSuffix   string
}

// NewGeocodingService creates a new instance of GeocodingService.
// addrSuffix is appended to every address that does not already end with it.
func NewGeocodingService(
	log *slog.Logger,
	repo repository.Interface,
	provider geocoding.Provider,
	providerName string,
	metrics *metrics.Metrics,
	numWorkers int,
	pollInterval time.Duration,
	addrSuffix string,
) *GeocodingService {
	return &GeocodingService{
		log:          log,
		repo:         repo,
		provider:     provider,
		providerName: providerName,
		metrics:      metrics,
		numWorkers:   max(1, numWorkers),
		pollInterval: pollInterval,
		addrSuffix:   addrSuffix,
	}
}

// Run polls for stops to geocode until ctx is cancelled.
func (gs *GeocodingService) Run(ctx context.Context) {
	ticker := time.NewTicker(gs.pollInterval)
	defer ticker.Stop()

	gs.log.InfoContext(ctx, "Geocoding service started", "interval", gs.pollInterval, "workers", gs.numWorkers)

	for {
		select {
		case <-ctx.Done():
			gs.log.InfoContext(ctx, "Geocoding service stopped")
			return
		case <-ticker.C:
			gs.log.DebugContext(ctx, "Polling for stops to geocode")
			gs.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch geocodes one batch of stops and waits for all workers to finish.
// It returns the number of stops fetched.
func (gs *GeocodingService) ProcessBatch(ctx context.Context) int {
	tasks, err := gs.repo.FetchTasksForGeocoding(ctx, geocodeBatchSize)
	if err != nil {
		gs.log.ErrorContext(ctx, "Failed to fetch stops", "error", err)
		return 0
	}
	if len(tasks) == 0 {
		gs.log.DebugContext(ctx, "No stops to geocode")
		return 0
	}

	gs.log.InfoContext(ctx, "Found stops to geocode, starting worker pool",
		"jobs", len(tasks),
		"num_workers", gs.numWorkers,
	)

	jobs := make(chan models.GeocodeTask, len(tasks))
	var wgr sync.WaitGroup

	for i := 1; i <= gs.numWorkers; i++ {
		wgr.Add(1)
		go gs.worker(ctx, i, &wgr, jobs)
	}

	for _, task := range tasks {
		jobs <- task
	}
	close(jobs)

	wgr.Wait()
	gs.log.InfoContext(ctx, "Geocoding batch finished", "jobs", len(tasks))

	return len(tasks)
}

func (gs *GeocodingService) worker(ctx context.Context, idx int, wg *sync.WaitGroup, jobs <-chan models.GeocodeTask) {
	defer wg.Done()
	for task := range jobs {
		gs.metrics.ActiveWorkers.Inc()
		gs.handle(ctx, idx, task)
		gs.metrics.ActiveWorkers.Dec()
	}
}

func (gs *GeocodingService) handle(ctx context.Context, idx int, task models.GeocodeTask) {
	stop := models.JobID(task.OrderID, task.Type)
	gs.log.DebugContext(ctx, "Processing stop", "worker", idx, "stop", stop)

	startTime := time.Now()
	coords, err := gs.provider.Geocode(ctx, gs.withSuffix(task.Address))
	gs.metrics.RequestSeconds.WithLabelValues(gs.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		gs.log.ErrorContext(ctx, "Failed to geocode", "worker", idx, "stop", stop, "error", err)
		gs.metrics.TaskProcessed.WithLabelValues("failure").Inc()
		gs.metrics.APIErrors.Inc()

		if err = gs.repo.IncrementFailureCount(ctx, task, err.Error()); err != nil {
			gs.log.ErrorContext(ctx, "Could not update failure count", "worker", idx, "stop", stop, "error", err)
		}
		return
	}

	gs.metrics.TaskProcessed.WithLabelValues("success").Inc()

	if err = gs.repo.UpdateTaskCoordinates(ctx, task, *coords); err != nil {
		gs.log.ErrorContext(ctx, "Failed to update coordinates", "worker", idx, "stop", stop, "error", err)
		return
	}

	gs.log.DebugContext(ctx, "Stop geocoded", "worker", idx, "stop", stop, "lat", coords.Latitude, "lon", coords.Longitude)
}

func (gs *GeocodingService) withSuffix(address string) string {
	trimmed := strings.TrimSpace(address)
	if gs.addrSuffix == "" {
		return trimmed
	}

	bare := strings.TrimSpace(strings.TrimLeft(gs.addrSuffix, ", "))
	if strings.HasSuffix(strings.ToLower(trimmed), strings.ToLower(bare)) {
		return trimmed
	}

	return trimmed + gs.addrSuffix
}
