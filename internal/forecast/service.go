package forecast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"weather-forecast-service/internal/observability"
)

// Service orchestrates fetching forecasts for the configured locations,
// persisting them, and fronts the analytical queries.
type Service struct {
	store     Store
	client    Client
	locations []Location
	timeout   time.Duration
	logger    *zap.Logger
}

// NewService creates a Service for a fixed location list. The list is
// constructed once per run and never mutated afterwards.
func NewService(store Store, client Client, locations []Location, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		client:    client,
		locations: locations,
		timeout:   timeout,
		logger:    logger,
	}
}

// SyncLocations reconciles the configured location list against the store,
// assigning or reusing an identity id per location. Idempotent; a storage
// failure here is fatal for the run.
func (s *Service) SyncLocations(ctx context.Context) error {
	for i := range s.locations {
		loc := &s.locations[i]

		id, err := s.store.EnsureLocation(ctx, loc.Name, loc.Latitude, loc.Longitude)
		if err != nil {
			return fmt.Errorf("ensure location %q: %w", loc.Name, err)
		}
		loc.ID = id
	}
	return nil
}

// IngestAll runs one ingestion pass: fetch, normalize, and upsert for every
// location concurrently. A provider failure for one location is logged and
// skipped without aborting siblings; a storage failure is surfaced to the
// caller after all locations finish.
func (s *Service) IngestAll(ctx context.Context) error {
	runID := uuid.New().String()
	logger := s.logger.With(zap.String("run_id", runID))

	observability.IngestRunsTotal.Inc()
	logger.Info("ingestion run started", zap.Int("locations", len(s.locations)))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		storeErr error
	)

	for _, loc := range s.locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			// A hung provider call must not block other locations forever.
			locCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			if err := s.ingestLocation(locCtx, logger, loc); err != nil {
				mu.Lock()
				if storeErr == nil {
					storeErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	logger.Info("ingestion run finished")
	return storeErr
}

// ingestLocation fetches and persists one location's forward window. It
// returns an error only for storage failures; provider failures are part of
// normal operation and are absorbed here.
func (s *Service) ingestLocation(ctx context.Context, logger *zap.Logger, loc Location) error {
	data, err := s.client.FetchForecast(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		observability.ProviderRequestsTotal.WithLabelValues("error").Inc()
		observability.IngestLocationsTotal.WithLabelValues(loc.Name, "fetch_failed").Inc()
		logger.Warn("forecast fetch failed; skipping location",
			zap.String("location", loc.Name),
			zap.Error(err))
		return nil
	}
	observability.ProviderRequestsTotal.WithLabelValues("success").Inc()

	readings := Normalize(loc.ID, data)
	if len(readings) == 0 {
		observability.IngestLocationsTotal.WithLabelValues(loc.Name, "empty").Inc()
		logger.Warn("forecast payload contained no readings",
			zap.String("location", loc.Name))
		return nil
	}

	if err := s.store.UpsertReadings(ctx, loc.ID, readings); err != nil {
		observability.IngestLocationsTotal.WithLabelValues(loc.Name, "write_failed").Inc()
		logger.Error("failed to store forecast readings",
			zap.String("location", loc.Name),
			zap.Error(err))
		return fmt.Errorf("upsert readings for %q: %w", loc.Name, err)
	}

	observability.ReadingsUpsertedTotal.Add(float64(len(readings)))
	observability.IngestLocationsTotal.WithLabelValues(loc.Name, "success").Inc()
	logger.Info("stored forecast readings",
		zap.String("location", loc.Name),
		zap.Int("count", len(readings)))
	return nil
}

// LatestPerDay returns the newest stored reading per (location, day).
func (s *Service) LatestPerDay(ctx context.Context) ([]DailyForecast, error) {
	observability.QueriesTotal.WithLabelValues("latest_per_day").Inc()
	return s.store.LatestPerDay(ctx)
}

// AverageTemperature returns the per-day rolling mean temperature.
func (s *Service) AverageTemperature(ctx context.Context) ([]DailyAverage, error) {
	observability.QueriesTotal.WithLabelValues("average_temperature").Inc()
	return s.store.AverageTemperature(ctx)
}

// TopLocations returns the top n observations per metric. n must be
// positive; invalid values are rejected before any store access.
func (s *Service) TopLocations(ctx context.Context, n int) ([]MetricRanking, error) {
	if n <= 0 {
		return nil, ErrInvalidTopN
	}
	observability.QueriesTotal.WithLabelValues("top_locations").Inc()
	return s.store.TopLocations(ctx, n)
}
