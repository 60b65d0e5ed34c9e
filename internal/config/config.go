package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"weather-forecast-service/internal/forecast"
)

var validate = validator.New()

// defaultLocations is the built-in tracked location list, overridable via
// the LOCATIONS environment variable.
const defaultLocations = "Athens:37.983810,23.727539;Thessaloniki:40.629269,22.947412;Patras:38.246639,21.734573"

// AppConfig is the full runtime configuration. It is constructed once per
// run and never mutated afterwards.
type AppConfig struct {
	MeteomaticsUsername string `validate:"required"`
	MeteomaticsPassword string `validate:"required"`
	MeteomaticsBaseURL  string

	// Locations to ingest forecasts for.
	Locations []forecast.Location `validate:"min=1"`

	// FetchInterval controls how often the ingestion pass runs.
	FetchInterval time.Duration

	// ForecastDays is the length of the forward window requested from the
	// provider.
	ForecastDays int

	// HTTPTimeout bounds a single outbound provider request.
	HTTPTimeout time.Duration

	// IngestTimeout bounds the whole fetch+store pass for one location.
	IngestTimeout time.Duration

	// ProviderRPS caps outbound calls to the provider.
	ProviderRPS float64

	DatabasePath string
	Port         string
	MetricsPort  string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.MeteomaticsUsername = os.Getenv("METEOMATICS_USERNAME")
	cfg.MeteomaticsPassword = os.Getenv("METEOMATICS_PASSWORD")
	cfg.MeteomaticsBaseURL = os.Getenv("METEOMATICS_BASE_URL")

	interval, err := time.ParseDuration(getenvDefault("FETCH_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	httpTimeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = httpTimeout

	ingestTimeout, err := time.ParseDuration(getenvDefault("INGEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_TIMEOUT: %w", err)
	}
	cfg.IngestTimeout = ingestTimeout

	cfg.ForecastDays = getenvInt("FORECAST_DAYS", 7)
	cfg.ProviderRPS = getenvFloat("PROVIDER_RPS", 2)
	cfg.DatabasePath = getenvDefault("DATABASE_PATH", "weather.db")
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.MetricsPort = getenvDefault("METRICS_PORT", "9090")

	locs, err := parseLocations(getenvDefault("LOCATIONS", defaultLocations))
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parseLocations parses a "Name:lat,lon;Name:lat,lon" list.
func parseLocations(s string) ([]forecast.Location, error) {
	var locs []forecast.Location

	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, coords, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid location entry %q: want Name:lat,lon", entry)
		}

		latStr, lonStr, ok := strings.Cut(coords, ",")
		if !ok {
			return nil, fmt.Errorf("invalid coordinates in %q: want lat,lon", entry)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", entry, err)
		}

		locs = append(locs, forecast.Location{
			Name:      strings.TrimSpace(name),
			Latitude:  lat,
			Longitude: lon,
		})
	}

	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
