package forecast

import (
	"context"
	"errors"
	"time"

	"weather-forecast-service/internal/meteomatics"
)

// ErrInvalidTopN is returned when a top-locations query is requested with a
// non-positive n. Callers must reject such requests before touching the store.
var ErrInvalidTopN = errors.New("top-n must be a positive integer")

// Location is a tracked place with fixed coordinates. ID is assigned by the
// store; at most one location exists per (latitude, longitude) pair.
type Location struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ParameterSet holds the ten weather parameters of a reading. Fields are
// pointers so a parameter absent from the provider payload stays null all
// the way into storage instead of defaulting to zero.
type ParameterSet struct {
	WindSpeed        *float64 `json:"wind_speed"`
	WindDirection    *float64 `json:"wind_direction"`
	WindGusts1h      *float64 `json:"wind_gusts_1h"`
	WindGusts24h     *float64 `json:"wind_gusts_24h"`
	Temperature      *float64 `json:"temperature"`
	MaxTemperature   *float64 `json:"max_temperature"`
	MinTemperature   *float64 `json:"min_temperature"`
	Pressure         *float64 `json:"pressure"`
	Precipitation1h  *float64 `json:"precipitation_1h"`
	Precipitation24h *float64 `json:"precipitation_24h"`
}

// Reading is one row of all ten parameters for a single location at a
// single timestamp. (LocationID, Timestamp) is the natural key.
type Reading struct {
	LocationID int64
	Timestamp  time.Time // always UTC
	ParameterSet
}

// DailyForecast is the latest reading of a (location, calendar day) pair.
type DailyForecast struct {
	LocationName string       `json:"location_name"`
	ForecastDate string       `json:"forecast_date"`
	Parameters   ParameterSet `json:"parameters"`
}

// DailyAverage is the rolling mean temperature of a (location, day) pair
// over the three most recent timestamps of that day.
type DailyAverage struct {
	LocationName       string   `json:"location_name"`
	ForecastDate       string   `json:"forecast_date"`
	AverageTemperature *float64 `json:"average_temperature"`
}

// MetricRanking is one ranked observation of the top-locations query.
type MetricRanking struct {
	LocationName string    `json:"location_name"`
	ForecastDate time.Time `json:"forecast_date"`
	Metric       string    `json:"metric"`
	Value        float64   `json:"value"`
}

// Store is the contract the persistent store must satisfy.
type Store interface {
	EnsureLocation(ctx context.Context, name string, lat, lon float64) (int64, error)
	UpsertReadings(ctx context.Context, locationID int64, readings map[time.Time]*Reading) error
	LatestPerDay(ctx context.Context) ([]DailyForecast, error)
	AverageTemperature(ctx context.Context) ([]DailyAverage, error)
	TopLocations(ctx context.Context, n int) ([]MetricRanking, error)
}

// Client abstracts the forecast provider.
type Client interface {
	FetchForecast(ctx context.Context, lat, lon float64) ([]meteomatics.ParameterData, error)
}
