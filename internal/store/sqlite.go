package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"weather-forecast-service/internal/forecast"
)

// Store provides SQLite-based persistence for locations and readings.
type Store struct {
	db        *sql.DB
	upsertSQL string
	topSQL    string
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL keeps concurrent ingestion writes and query reads from blocking
	// each other.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{
		db:        db,
		upsertSQL: buildUpsertSQL(),
		topSQL:    buildTopSQL(),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	cols := make([]string, 0, len(forecast.Parameters))
	for _, p := range forecast.Parameters {
		cols = append(cols, fmt.Sprintf("\t\t%s REAL", p.Column))
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		UNIQUE(latitude, longitude)
	);

	CREATE TABLE IF NOT EXISTS weather_data (
		location_id INTEGER NOT NULL REFERENCES locations(id),
		timestamp TEXT NOT NULL,
%s,
		PRIMARY KEY (location_id, timestamp)
	);

	CREATE INDEX IF NOT EXISTS idx_weather_data_timestamp ON weather_data(timestamp);
	`, strings.Join(cols, ",\n"))

	_, err := s.db.Exec(schema)
	return err
}

// EnsureLocation looks a location up by exact coordinates and returns its
// id, inserting a new row when absent. An existing row keeps its name.
func (s *Store) EnsureLocation(ctx context.Context, name string, lat, lon float64) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM locations WHERE latitude = ? AND longitude = ?",
		lat, lon,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup location: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO locations (name, latitude, longitude) VALUES (?, ?, ?)",
		name, lat, lon,
	)
	if err != nil {
		return 0, fmt.Errorf("insert location: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert location: %w", err)
	}
	return id, nil
}

func buildUpsertSQL() string {
	cols := forecast.Columns()

	set := make([]string, len(cols))
	for i, c := range cols {
		set[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}

	return fmt.Sprintf(`
		INSERT INTO weather_data (location_id, timestamp, %s)
		VALUES (?, ?%s)
		ON CONFLICT(location_id, timestamp) DO UPDATE SET
		%s`,
		strings.Join(cols, ", "),
		strings.Repeat(", ?", len(cols)),
		strings.Join(set, ",\n\t\t"),
	)
}

// UpsertReadings writes one row per reading for a single location inside
// one transaction: the per-location batch commits atomically or not at all.
// On conflict every parameter column is overwritten unconditionally with
// the incoming value, including a nil overwriting a stored value.
func (s *Store) UpsertReadings(ctx context.Context, locationID int64, readings map[time.Time]*forecast.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	timestamps := make([]time.Time, 0, len(readings))
	for ts := range readings {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, ts := range timestamps {
		r := readings[ts]

		args := make([]interface{}, 0, len(forecast.Parameters)+2)
		args = append(args, locationID, ts.UTC().Format(time.RFC3339))
		for _, p := range forecast.Parameters {
			args = append(args, p.Value(&r.ParameterSet))
		}

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert reading at %s: %w", ts.Format(time.RFC3339), err)
		}
	}

	return tx.Commit()
}

// LatestPerDay returns, for every (location, calendar day) present in the
// data, the reading with the maximum timestamp on that day, ordered by
// location id then day.
func (s *Store) LatestPerDay(ctx context.Context) ([]forecast.DailyForecast, error) {
	query := fmt.Sprintf(`
		SELECT
			l.name AS location_name,
			DATE(wd.timestamp) AS forecast_date,
			%s
		FROM locations AS l
		INNER JOIN weather_data AS wd
			ON l.id = wd.location_id
		INNER JOIN (
			SELECT location_id, MAX(timestamp) AS timestamp
			FROM weather_data
			GROUP BY location_id, DATE(timestamp)
		) AS latest
			ON latest.location_id = wd.location_id
			AND latest.timestamp = wd.timestamp
		ORDER BY l.id, forecast_date`,
		"wd."+strings.Join(forecast.Columns(), ", wd."),
	)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest per day: %w", err)
	}
	defer rows.Close()

	var out []forecast.DailyForecast
	for rows.Next() {
		var df forecast.DailyForecast
		vals := make([]sql.NullFloat64, len(forecast.Parameters))

		dest := make([]interface{}, 0, len(vals)+2)
		dest = append(dest, &df.LocationName, &df.ForecastDate)
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan latest per day: %w", err)
		}

		for i, p := range forecast.Parameters {
			if vals[i].Valid {
				p.Assign(&df.Parameters, vals[i].Float64)
			}
		}
		out = append(out, df)
	}
	return out, rows.Err()
}

// AverageTemperature returns the per-(location, day) arithmetic mean of
// temperature over the three most recent timestamps of that day, ordered by
// location name then day. Days without readings do not appear.
func (s *Store) AverageTemperature(ctx context.Context) ([]forecast.DailyAverage, error) {
	const query = `
		WITH ranked_data AS (
			SELECT
				w.location_id,
				l.name AS location_name,
				w.timestamp,
				w.temperature,
				ROW_NUMBER() OVER (
					PARTITION BY w.location_id, DATE(w.timestamp)
					ORDER BY w.timestamp DESC
				) AS rn
			FROM weather_data w
			JOIN locations l ON w.location_id = l.id
		)
		SELECT
			location_name,
			DATE(timestamp) AS day,
			AVG(temperature) AS average_temperature
		FROM ranked_data
		WHERE rn <= 3
		GROUP BY location_name, DATE(timestamp)
		ORDER BY location_name, day`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query average temperature: %w", err)
	}
	defer rows.Close()

	var out []forecast.DailyAverage
	for rows.Next() {
		var da forecast.DailyAverage
		var avg sql.NullFloat64
		if err := rows.Scan(&da.LocationName, &da.ForecastDate, &avg); err != nil {
			return nil, fmt.Errorf("scan average temperature: %w", err)
		}
		if avg.Valid {
			v := avg.Float64
			da.AverageTemperature = &v
		}
		out = append(out, da)
	}
	return out, rows.Err()
}

func buildTopSQL() string {
	selects := make([]string, 0, len(forecast.Parameters))
	for _, p := range forecast.Parameters {
		selects = append(selects, fmt.Sprintf(
			"SELECT '%s' AS metric, location_id, timestamp, %s AS value FROM weather_data WHERE %s IS NOT NULL",
			p.Column, p.Column, p.Column,
		))
	}

	return fmt.Sprintf(`
		WITH ranked_data AS (
			SELECT
				metric,
				l.name AS location_name,
				timestamp,
				value,
				ROW_NUMBER() OVER (
					PARTITION BY metric
					ORDER BY value DESC, timestamp DESC
				) AS rn
			FROM (
				%s
			) combined_data
			JOIN locations l ON combined_data.location_id = l.id
		)
		SELECT metric, location_name, timestamp, value
		FROM ranked_data
		WHERE rn <= ?
		ORDER BY metric, rn`,
		strings.Join(selects, "\n\t\t\t\tUNION ALL\n\t\t\t\t"),
	)
}

// TopLocations ranks every non-null observation per metric by value
// descending (ties broken by newer timestamp) and returns the top n for
// each of the ten metrics, ordered by metric then rank.
func (s *Store) TopLocations(ctx context.Context, n int) ([]forecast.MetricRanking, error) {
	if n <= 0 {
		return nil, forecast.ErrInvalidTopN
	}

	rows, err := s.db.QueryContext(ctx, s.topSQL, n)
	if err != nil {
		return nil, fmt.Errorf("query top locations: %w", err)
	}
	defer rows.Close()

	var out []forecast.MetricRanking
	for rows.Next() {
		var mr forecast.MetricRanking
		var ts string
		if err := rows.Scan(&mr.Metric, &mr.LocationName, &ts, &mr.Value); err != nil {
			return nil, fmt.Errorf("scan top locations: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		mr.ForecastDate = parsed
		out = append(out, mr)
	}
	return out, rows.Err()
}

var _ forecast.Store = (*Store)(nil)
