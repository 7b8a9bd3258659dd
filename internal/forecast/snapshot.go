package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"weather-forecast-service/internal/models"
	"weather-forecast-service/internal/observability"
)

// SnapshotStore is the persistence surface the writer needs.
type SnapshotStore interface {
	InsertSnapshot(ctx context.Context, snap models.ForecastSnapshot) (models.ForecastSnapshot, error)
}

// SnapshotWriter assembles and persists one ForecastSnapshot per pipeline
// run. Each run inserts a fresh row; nothing is updated in place.
type SnapshotWriter struct {
	store SnapshotStore
	now   func() time.Time
	log   *zap.Logger
}

func NewSnapshotWriter(store SnapshotStore, log *zap.Logger) *SnapshotWriter {
	return &SnapshotWriter{store: store, now: func() time.Time { return time.Now().UTC() }, log: log}
}

// Write partitions the observations by series kind, serializes each subset
// into the snapshot's raw fields, fills the summary fields and inserts the
// row. Store errors surface unchanged; the caller's earlier location write
// is not rolled back.
func (w *SnapshotWriter) Write(ctx context.Context, locationID int64, timezone, timezoneAbbr string, observations []models.Observation) (models.ForecastSnapshot, error) {
	hourly := make([]models.Observation, 0)
	daily := make([]models.Observation, 0)
	for _, o := range observations {
		switch o.SeriesKind {
		case models.SeriesHourly:
			hourly = append(hourly, o)
		case models.SeriesDaily:
			daily = append(daily, o)
		}
	}

	hourlyRaw, err := json.Marshal(hourly)
	if err != nil {
		return models.ForecastSnapshot{}, fmt.Errorf("serialize hourly series: %w", err)
	}
	dailyRaw, err := json.Marshal(daily)
	if err != nil {
		return models.ForecastSnapshot{}, fmt.Errorf("serialize daily series: %w", err)
	}

	summary := ExtractSummary(observations)

	now := w.now()
	snap := models.ForecastSnapshot{
		LocationID:       locationID,
		ForecastDate:     time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		RetrievedAt:      now,
		HourlySeriesRaw:  hourlyRaw,
		DailySeriesRaw:   dailyRaw,
		TemperatureMax:   summary.TemperatureMax,
		TemperatureMin:   summary.TemperatureMin,
		PrecipitationSum: summary.PrecipitationSum,
		WeatherCode:      summary.WeatherCode,
	}
	if timezone != "" {
		snap.Timezone = &timezone
	}
	if timezoneAbbr != "" {
		snap.TimezoneAbbreviation = &timezoneAbbr
	}

	created, err := w.store.InsertSnapshot(ctx, snap)
	if err != nil {
		return models.ForecastSnapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	observability.SnapshotsPersistedTotal.Inc()
	w.log.Info("persisted forecast snapshot",
		zap.Int64("snapshot_id", created.ID),
		zap.Int64("location_id", locationID),
		zap.Int("observations", len(observations)))
	return created, nil
}
