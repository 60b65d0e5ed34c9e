package meteomatics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.meteomatics.com"

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// BackoffConfig controls exponential backoff behaviour between retries.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Config bundles the credentials and request shape for the client.
type Config struct {
	BaseURL  string
	Username string
	Password string

	// Parameters is the ordered list of provider parameter identifiers
	// requested for every location.
	Parameters []string

	// ForecastDays is the length of the forward window.
	ForecastDays int

	// RequestsPerSecond bounds outbound calls to the API.
	RequestsPerSecond float64

	Backoff BackoffConfig
}

// Client issues authenticated forecast requests against the Meteomatics API.
type Client struct {
	httpClient *http.Client
	cfg        Config
	circuit    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
}

// NewClient creates a Client with a circuit breaker and outbound rate limiter.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = 7
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Backoff.MaxRetries == 0 && cfg.Backoff.InitialInterval == 0 {
		cfg.Backoff = BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "meteomatics",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		circuit:    cb,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// FetchForecast requests the hourly forward window for a single coordinate
// and returns the per-parameter blocks of the response.
func (c *Client) FetchForecast(ctx context.Context, lat, lon float64) ([]ParameterData, error) {
	start, end := forecastWindow(time.Now().UTC(), c.cfg.ForecastDays)

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/%s--%s:PT1H/%s/%.6f,%.6f/json?model=mix",
			c.cfg.BaseURL,
			start.Format("2006-01-02T15:04:05Z"),
			end.Format("2006-01-02T15:04:05Z"),
			strings.Join(c.cfg.Parameters, ","),
			lat, lon,
		)
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
		return req, nil
	}

	resp, err := c.doWithResilience(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}
	return payload.Data, nil
}

// forecastWindow returns the fixed forward window: the next top of hour
// through +days at the same minute.
func forecastWindow(now time.Time, days int) (time.Time, time.Time) {
	start := now.Truncate(time.Hour).Add(time.Hour)
	return start, start.AddDate(0, 0, days)
}

// doWithResilience executes the request with retries, exponential backoff,
// a circuit breaker, and the outbound rate limiter.
func (c *Client) doWithResilience(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	if c.httpClient == nil {
		return nil, errNoHTTPClient
	}

	var attempt int
	var lastErr error

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.httpClient.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, errServerError
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}

			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// If the circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.cfg.Backoff.MaxRetries {
			return nil, lastErr
		}

		delay := c.cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.cfg.Backoff.MaxInterval > 0 && delay > c.cfg.Backoff.MaxInterval {
			delay = c.cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
