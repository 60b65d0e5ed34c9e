package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"weather-forecast-service/internal/forecast"
	"weather-forecast-service/internal/store"
)

func newTestApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := forecast.NewService(db, nil, nil, time.Second, nil)

	app := fiber.New()
	RegisterRoutes(app, svc)
	return app, db
}

// TestTopLocationsNValidation verifies that the top-locations endpoint
// rejects missing, non-numeric, and non-positive n values.
func TestTopLocationsNValidation(t *testing.T) {
	app, _ := newTestApp(t)

	for _, target := range []string{
		"/api/v1/forecast/top-locations",
		"/api/v1/forecast/top-locations?n=abc",
		"/api/v1/forecast/top-locations?n=0",
		"/api/v1/forecast/top-locations?n=-2",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", target, err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", target, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestLatestForecastEmptyStore(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast/latest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "[]" {
		t.Errorf("expected empty array body, got %s", body)
	}
}

func seedReading(t *testing.T, db *store.Store, name string, lat float64, ts time.Time, temp float64) {
	t.Helper()

	ctx := context.Background()
	id, err := db.EnsureLocation(ctx, name, lat, lat)
	if err != nil {
		t.Fatalf("ensure %s: %v", name, err)
	}
	r := &forecast.Reading{LocationID: id, Timestamp: ts}
	r.Temperature = &temp
	if err := db.UpsertReadings(ctx, id, map[time.Time]*forecast.Reading{ts: r}); err != nil {
		t.Fatalf("upsert %s: %v", name, err)
	}
}

func TestTopLocationsResponseShape(t *testing.T) {
	app, db := newTestApp(t)

	ts := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	seedReading(t, db, "Athens", 37.98, ts, 30)
	seedReading(t, db, "Patras", 38.24, ts, 25)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast/top-locations?n=1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var rankings []struct {
		LocationName string  `json:"location_name"`
		Metric       string  `json:"metric"`
		Value        float64 `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rankings); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(rankings) != 1 {
		t.Fatalf("expected 1 ranking, got %d", len(rankings))
	}
	if rankings[0].LocationName != "Athens" || rankings[0].Metric != "temperature" || rankings[0].Value != 30 {
		t.Errorf("unexpected ranking: %+v", rankings[0])
	}
}

func TestAverageTemperatureEndpoint(t *testing.T) {
	app, db := newTestApp(t)

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	seedReading(t, db, "Athens", 37.98, day.Add(10*time.Hour), 10)
	seedReading(t, db, "Athens", 37.98, day.Add(11*time.Hour), 20)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forecast/average-temperature", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var averages []struct {
		LocationName       string   `json:"location_name"`
		ForecastDate       string   `json:"forecast_date"`
		AverageTemperature *float64 `json:"average_temperature"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&averages); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(averages) != 1 {
		t.Fatalf("expected 1 row, got %d", len(averages))
	}
	got := averages[0]
	if got.LocationName != "Athens" || got.ForecastDate != "2026-09-01" {
		t.Errorf("unexpected row: %+v", got)
	}
	if got.AverageTemperature == nil || *got.AverageTemperature != 15 {
		t.Errorf("expected average 15, got %v", got.AverageTemperature)
	}
}
