package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"weather-forecast-service/internal/models"
)

// ErrNotFound is returned when a point lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Store wraps database access for locations and forecast snapshots.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const locationColumns = `id, latitude, longitude, elevation, name, description, created_at, last_accessed_at`

func scanLocation(row pgx.Row) (models.Location, error) {
	var loc models.Location
	err := row.Scan(
		&loc.ID,
		&loc.Latitude,
		&loc.Longitude,
		&loc.Elevation,
		&loc.Name,
		&loc.Description,
		&loc.CreatedAt,
		&loc.LastAccessedAt,
	)
	return loc, err
}

const locationsNearSQL = `
    SELECT ` + locationColumns + `
    FROM locations
    WHERE latitude BETWEEN $1 - $3 AND $1 + $3
      AND longitude BETWEEN $2 - $3 AND $2 + $3
    ORDER BY id
`

// LocationsNear returns locations inside a coarse coordinate bracket,
// ordered by id. Callers apply their exact tolerance predicate on top.
func (s *Store) LocationsNear(ctx context.Context, lat, lon, within float64) ([]models.Location, error) {
	rows, err := s.pool.Query(ctx, locationsNearSQL, lat, lon, within)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := make([]models.Location, 0)
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

const getLocationSQL = `
    SELECT ` + locationColumns + `
    FROM locations
    WHERE id = $1
`

// GetLocation returns a location by id.
func (s *Store) GetLocation(ctx context.Context, id int64) (models.Location, error) {
	loc, err := scanLocation(s.pool.QueryRow(ctx, getLocationSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Location{}, ErrNotFound
	}
	return loc, err
}

const listLocationsSQL = `
    SELECT ` + locationColumns + `
    FROM locations
    ORDER BY COALESCE(last_accessed_at, created_at) DESC
`

// ListLocations returns all locations, most recently used first.
func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.pool.Query(ctx, listLocationsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := make([]models.Location, 0)
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

const insertLocationSQL = `
    INSERT INTO locations (latitude, longitude, elevation, name, description, created_at, last_accessed_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id
`

// InsertLocation writes a new location row and returns it with the
// store-assigned id.
func (s *Store) InsertLocation(ctx context.Context, loc models.Location) (models.Location, error) {
	err := s.pool.QueryRow(ctx, insertLocationSQL,
		loc.Latitude,
		loc.Longitude,
		loc.Elevation,
		loc.Name,
		loc.Description,
		loc.CreatedAt,
		loc.LastAccessedAt,
	).Scan(&loc.ID)
	return loc, err
}

const touchLocationSQL = `
    UPDATE locations SET last_accessed_at = $2 WHERE id = $1
`

// TouchLocation refreshes a location's last-accessed timestamp.
func (s *Store) TouchLocation(ctx context.Context, id int64, at time.Time) error {
	tag, err := s.pool.Exec(ctx, touchLocationSQL, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLocation removes a location. Snapshots referencing it go with it
// via the FK cascade.
func (s *Store) DeleteLocation(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const snapshotColumns = `id, location_id, forecast_date, retrieved_at, timezone, timezone_abbreviation,
       hourly_series_raw, daily_series_raw, temperature_max, temperature_min, precipitation_sum, weather_code`

func scanSnapshot(row pgx.Row) (models.ForecastSnapshot, error) {
	var snap models.ForecastSnapshot
	err := row.Scan(
		&snap.ID,
		&snap.LocationID,
		&snap.ForecastDate,
		&snap.RetrievedAt,
		&snap.Timezone,
		&snap.TimezoneAbbreviation,
		&snap.HourlySeriesRaw,
		&snap.DailySeriesRaw,
		&snap.TemperatureMax,
		&snap.TemperatureMin,
		&snap.PrecipitationSum,
		&snap.WeatherCode,
	)
	return snap, err
}

const insertSnapshotSQL = `
    INSERT INTO forecast_snapshots (location_id, forecast_date, retrieved_at, timezone, timezone_abbreviation,
        hourly_series_raw, daily_series_raw, temperature_max, temperature_min, precipitation_sum, weather_code)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    RETURNING id
`

// InsertSnapshot writes a new forecast snapshot row and returns it with
// the store-assigned id.
func (s *Store) InsertSnapshot(ctx context.Context, snap models.ForecastSnapshot) (models.ForecastSnapshot, error) {
	err := s.pool.QueryRow(ctx, insertSnapshotSQL,
		snap.LocationID,
		snap.ForecastDate,
		snap.RetrievedAt,
		snap.Timezone,
		snap.TimezoneAbbreviation,
		snap.HourlySeriesRaw,
		snap.DailySeriesRaw,
		snap.TemperatureMax,
		snap.TemperatureMin,
		snap.PrecipitationSum,
		snap.WeatherCode,
	).Scan(&snap.ID)
	return snap, err
}

const getSnapshotSQL = `
    SELECT ` + snapshotColumns + `
    FROM forecast_snapshots
    WHERE id = $1
`

// GetSnapshot returns a snapshot by id.
func (s *Store) GetSnapshot(ctx context.Context, id int64) (models.ForecastSnapshot, error) {
	snap, err := scanSnapshot(s.pool.QueryRow(ctx, getSnapshotSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ForecastSnapshot{}, ErrNotFound
	}
	return snap, err
}

const listSnapshotsSQL = `
    SELECT ` + snapshotColumns + `
    FROM forecast_snapshots
    WHERE location_id = $1
    ORDER BY retrieved_at DESC
`

// ListSnapshotsByLocation returns all snapshots for a location, newest
// retrieval first.
func (s *Store) ListSnapshotsByLocation(ctx context.Context, locationID int64) ([]models.ForecastSnapshot, error) {
	rows, err := s.pool.Query(ctx, listSnapshotsSQL, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]models.ForecastSnapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

const latestSnapshotSQL = `
    SELECT ` + snapshotColumns + `
    FROM forecast_snapshots
    WHERE location_id = $1
    ORDER BY retrieved_at DESC
    LIMIT 1
`

// LatestSnapshot returns the most recently retrieved snapshot for a
// location.
func (s *Store) LatestSnapshot(ctx context.Context, locationID int64) (models.ForecastSnapshot, error) {
	snap, err := scanSnapshot(s.pool.QueryRow(ctx, latestSnapshotSQL, locationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ForecastSnapshot{}, ErrNotFound
	}
	return snap, err
}

// DeleteSnapshot removes a snapshot by id.
func (s *Store) DeleteSnapshot(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM forecast_snapshots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSnapshotsByLocation removes all snapshots for a location and
// reports how many rows went away.
func (s *Store) DeleteSnapshotsByLocation(ctx context.Context, locationID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM forecast_snapshots WHERE location_id = $1`, locationID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
