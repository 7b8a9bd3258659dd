package forecast

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"weather-forecast-service/internal/models"
)

// Provider performs the outbound forecast call. The request is assumed to
// be validated before it reaches the pipeline.
type Provider interface {
	Forecast(ctx context.Context, req models.ForecastRequest) (models.ProviderResponse, error)
}

// Service runs the ingestion pipeline: fetch the provider payload, flatten
// it, resolve the coordinate to a location row and archive one snapshot.
// Stages run strictly in that order and each failure is terminal; the
// location write is not undone when the snapshot write fails.
type Service struct {
	provider Provider
	resolver *Resolver
	writer   *SnapshotWriter
	log      *zap.Logger
}

func NewService(provider Provider, resolver *Resolver, writer *SnapshotWriter, log *zap.Logger) *Service {
	return &Service{provider: provider, resolver: resolver, writer: writer, log: log}
}

// GetForecast executes one pipeline run for a validated request.
func (s *Service) GetForecast(ctx context.Context, req models.ForecastRequest) (models.ForecastResponse, error) {
	resp, err := s.provider.Forecast(ctx, req)
	if err != nil {
		s.log.Error("provider fetch failed",
			zap.Float64("latitude", req.Latitude),
			zap.Float64("longitude", req.Longitude),
			zap.Error(err))
		return models.ForecastResponse{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	observations := Flatten(resp)

	elevation := resp.Elevation
	loc, err := s.resolver.Resolve(ctx, req.Latitude, req.Longitude, &elevation)
	if err != nil {
		return models.ForecastResponse{}, fmt.Errorf("resolve location: %w", err)
	}

	snap, err := s.writer.Write(ctx, loc.ID, resp.Timezone, resp.TimezoneAbbreviation, observations)
	if err != nil {
		return models.ForecastResponse{}, fmt.Errorf("write snapshot: %w", err)
	}

	return models.ForecastResponse{
		Latitude:             resp.Latitude,
		Longitude:            resp.Longitude,
		Elevation:            resp.Elevation,
		GenerationTimeMS:     resp.GenerationTimeMS,
		UTCOffsetSeconds:     resp.UTCOffsetSeconds,
		Timezone:             resp.Timezone,
		TimezoneAbbreviation: resp.TimezoneAbbreviation,
		LocationID:           loc.ID,
		SnapshotID:           snap.ID,
		Observations:         observations,
	}, nil
}
