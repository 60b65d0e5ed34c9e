package meteomatics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const samplePayload = `{
	"data": [
		{
			"parameter": "t_2m:C",
			"coordinates": [
				{
					"lat": 37.98381,
					"lon": 23.727539,
					"dates": [
						{"date": "2026-09-01T12:00:00Z", "value": 27.4},
						{"date": "2026-09-01T13:00:00Z", "value": 26.9}
					]
				}
			]
		}
	]
}`

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		Username:          "acme",
		Password:          "secret",
		Parameters:        []string{"t_2m:C", "msl_pressure:hPa"},
		ForecastDays:      7,
		RequestsPerSecond: 1000,
		Backoff: BackoffConfig{
			MaxRetries:      0,
			InitialInterval: time.Millisecond,
		},
	}
}

func TestFetchForecastBuildsAuthenticatedRequest(t *testing.T) {
	var gotPath, gotQuery string
	var gotUser, gotPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUser, gotPass, _ = r.BasicAuth()
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), testConfig(srv.URL))

	data, err := c.FetchForecast(context.Background(), 37.983810, 23.727539)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if gotUser != "acme" || gotPass != "secret" {
		t.Errorf("expected basic auth acme/secret, got %s/%s", gotUser, gotPass)
	}
	if !strings.Contains(gotPath, ":PT1H/") {
		t.Errorf("path missing hourly step: %s", gotPath)
	}
	if !strings.Contains(gotPath, "t_2m:C,msl_pressure:hPa") {
		t.Errorf("path missing parameter list: %s", gotPath)
	}
	if !strings.Contains(gotPath, "/37.983810,23.727539/json") {
		t.Errorf("path missing coordinates: %s", gotPath)
	}
	if gotQuery != "model=mix" {
		t.Errorf("expected model=mix query, got %q", gotQuery)
	}

	if len(data) != 1 || data[0].Parameter != "t_2m:C" {
		t.Fatalf("unexpected payload: %+v", data)
	}
	dates := data[0].Coordinates[0].Dates
	if len(dates) != 2 || dates[0].Value != 27.4 {
		t.Errorf("unexpected series: %+v", dates)
	}
	want := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	if !dates[0].Date.Equal(want) {
		t.Errorf("expected %s, got %s", want, dates[0].Date)
	}
}

func TestFetchForecastReportsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), testConfig(srv.URL))

	if _, err := c.FetchForecast(context.Background(), 10, 20); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestFetchForecastReportsMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), testConfig(srv.URL))

	if _, err := c.FetchForecast(context.Background(), 10, 20); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFetchForecastRetriesServerErrors(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Backoff.MaxRetries = 3
	c := NewClient(srv.Client(), cfg)

	if _, err := c.FetchForecast(context.Background(), 10, 20); err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestForecastWindow(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 23, 41, 0, time.UTC)

	start, end := forecastWindow(now, 7)

	wantStart := time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("expected start at next top of hour %s, got %s", wantStart, start)
	}
	if !end.Equal(wantStart.AddDate(0, 0, 7)) {
		t.Errorf("expected end 7 days after start, got %s", end)
	}
}

func TestForecastWindowExactHour(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	start, _ := forecastWindow(now, 7)

	// An exact top of hour still rounds forward.
	want := time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Errorf("expected %s, got %s", want, start)
	}
}
