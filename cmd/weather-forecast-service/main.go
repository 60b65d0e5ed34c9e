package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "weather-forecast-service/internal/api/http"
	"weather-forecast-service/internal/config"
	"weather-forecast-service/internal/forecast"
	"weather-forecast-service/internal/meteomatics"
	"weather-forecast-service/internal/observability"
	"weather-forecast-service/internal/scheduler"
	"weather-forecast-service/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := observability.NewLogger()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Persistent store.
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		zlog.Fatal("failed to open store", zap.Error(err))
	}
	defer db.Close()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	client := meteomatics.NewClient(httpClient, meteomatics.Config{
		BaseURL:           cfg.MeteomaticsBaseURL,
		Username:          cfg.MeteomaticsUsername,
		Password:          cfg.MeteomaticsPassword,
		Parameters:        forecast.ProviderIDs(),
		ForecastDays:      cfg.ForecastDays,
		RequestsPerSecond: cfg.ProviderRPS,
	})

	// Core service orchestrating ingestion and queries.
	service := forecast.NewService(db, client, cfg.Locations, cfg.IngestTimeout, zlog)

	// Reconcile the configured locations against the store before the first
	// ingestion pass.
	syncCtx, syncCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer syncCancel()
	if err := service.SyncLocations(syncCtx); err != nil {
		zlog.Fatal("failed to sync locations", zap.Error(err))
	}

	// Scheduler that periodically fetches and stores forecasts.
	sched := scheduler.New(service, cfg.FetchInterval, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Prometheus metrics on a side listener.
	metricsSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: observability.MetricsHandler(),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-forecast-service",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-forecast-service",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("error shutting down metrics server", zap.Error(err))
	}
}
