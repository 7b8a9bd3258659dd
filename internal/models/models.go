package models

import (
	"encoding/json"
	"time"
)

// SeriesKind is the granularity of a provider time series.
type SeriesKind string

const (
	SeriesDaily  SeriesKind = "daily"
	SeriesHourly SeriesKind = "hourly"
)

// Observation is one flattened (kind, variable, time, value) tuple taken
// from a provider time series. Values are kept as text so integer and
// floating point series share one shape.
type Observation struct {
	SeriesKind SeriesKind `json:"series_kind"`
	Variable   string     `json:"variable"`
	Time       string     `json:"time"`
	Value      string     `json:"value"`
}

// DailySeries holds the daily group of an Open-Meteo response. Every
// variable slice is aligned by index with Time.
type DailySeries struct {
	Time             []string  `json:"time"`
	WeatherCode      []int     `json:"weathercode"`
	Temperature2mMax []float64 `json:"temperature_2m_max"`
	Temperature2mMin []float64 `json:"temperature_2m_min"`
	PrecipitationSum []float64 `json:"precipitation_sum"`
	RainSum          []float64 `json:"rain_sum"`
	ShowersSum       []float64 `json:"showers_sum"`
}

// HourlySeries holds the hourly group of an Open-Meteo response.
type HourlySeries struct {
	Time               []string  `json:"time"`
	Temperature2m      []float64 `json:"temperature_2m"`
	RelativeHumidity2m []int     `json:"relativehumidity_2m"`
	DewPoint2m         []float64 `json:"dewpoint_2m"`
	WeatherCode        []int     `json:"weathercode"`
	PressureMSL        []float64 `json:"pressure_msl"`
	SurfacePressure    []float64 `json:"surface_pressure"`
}

// ProviderResponse is the deserialized Open-Meteo forecast payload.
type ProviderResponse struct {
	Latitude             float64      `json:"latitude"`
	Longitude            float64      `json:"longitude"`
	Elevation            float64      `json:"elevation"`
	GenerationTimeMS     float64      `json:"generationtime_ms"`
	UTCOffsetSeconds     int          `json:"utc_offset_seconds"`
	Timezone             string       `json:"timezone"`
	TimezoneAbbreviation string       `json:"timezone_abbreviation"`
	Daily                DailySeries  `json:"daily"`
	Hourly               HourlySeries `json:"hourly"`
}

// Location is a persisted coordinate pair. The (latitude, longitude) pair
// is a soft key: lookups match within a tolerance, not exactly.
type Location struct {
	ID             int64      `json:"id"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	Elevation      *float64   `json:"elevation,omitempty"`
	Name           *string    `json:"name,omitempty"`
	Description    *string    `json:"description,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

// ForecastSnapshot is one archived pipeline run for a location. The raw
// series fields hold the flattened observations serialized as JSON; the
// summary fields are denormalized copies of a few daily variables.
type ForecastSnapshot struct {
	ID                   int64     `json:"id"`
	LocationID           int64     `json:"location_id"`
	ForecastDate         time.Time `json:"forecast_date"`
	RetrievedAt          time.Time `json:"retrieved_at"`
	Timezone             *string   `json:"timezone,omitempty"`
	TimezoneAbbreviation *string   `json:"timezone_abbreviation,omitempty"`
	// RawMessage keeps the stored series readable as JSON in API
	// responses instead of base64-encoded bytes.
	HourlySeriesRaw  json.RawMessage `json:"hourly_series_raw,omitempty"`
	DailySeriesRaw   json.RawMessage `json:"daily_series_raw,omitempty"`
	TemperatureMax   *float64        `json:"temperature_max,omitempty"`
	TemperatureMin   *float64        `json:"temperature_min,omitempty"`
	PrecipitationSum *float64        `json:"precipitation_sum,omitempty"`
	WeatherCode      *string         `json:"weather_code,omitempty"`
}

// ForecastRequest is the inbound request body for a forecast run.
// Dates use the YYYY-MM-DD form Open-Meteo expects.
type ForecastRequest struct {
	Latitude          float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude         float64  `json:"longitude" validate:"gte=-180,lte=180"`
	HourlyVariables   []string `json:"hourly_variables,omitempty"`
	DailyVariables    []string `json:"daily_variables,omitempty"`
	TemperatureUnit   string   `json:"temperature_unit,omitempty"`
	PrecipitationUnit string   `json:"precipitation_unit,omitempty"`
	Timezone          string   `json:"timezone,omitempty"`
	StartDate         string   `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate           string   `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ForecastDays      int      `json:"forecast_days,omitempty" validate:"omitempty,gt=0"`
}

// ForecastResponse echoes the provider metadata plus the full flattened
// observation list and the ids assigned while persisting the run.
type ForecastResponse struct {
	Latitude             float64       `json:"latitude"`
	Longitude            float64       `json:"longitude"`
	Elevation            float64       `json:"elevation"`
	GenerationTimeMS     float64       `json:"generationtime_ms"`
	UTCOffsetSeconds     int           `json:"utc_offset_seconds"`
	Timezone             string        `json:"timezone,omitempty"`
	TimezoneAbbreviation string        `json:"timezone_abbreviation,omitempty"`
	LocationID           int64         `json:"location_id"`
	SnapshotID           int64         `json:"snapshot_id"`
	Observations         []Observation `json:"observations"`
}
