package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"weather-forecast-service/internal/models"
	"weather-forecast-service/internal/observability"
)

// CoordinateEpsilon is the default tolerance for coordinate equality,
// roughly 11 meters at the equator.
const CoordinateEpsilon = 0.0001

// LocationStore is the persistence surface the resolver needs.
type LocationStore interface {
	// LocationsNear returns stored locations whose coordinates fall inside
	// a coarse bracket around (lat, lon), ordered by id ascending. The
	// bracket must be at least as wide as the tolerance; the resolver
	// applies the exact predicate itself.
	LocationsNear(ctx context.Context, lat, lon, within float64) ([]models.Location, error)
	InsertLocation(ctx context.Context, loc models.Location) (models.Location, error)
	TouchLocation(ctx context.Context, id int64, at time.Time) error
}

// Resolver finds or creates the location row for a coordinate pair.
//
// This is a read-then-write, not an atomic upsert: two concurrent requests
// for a never-seen coordinate can both miss the lookup and both insert.
// Coordination happens only through the store.
type Resolver struct {
	store   LocationStore
	epsilon float64
	now     func() time.Time
	log     *zap.Logger
}

// NewResolver builds a Resolver. A non-positive epsilon falls back to
// CoordinateEpsilon.
func NewResolver(store LocationStore, epsilon float64, log *zap.Logger) *Resolver {
	if epsilon <= 0 {
		epsilon = CoordinateEpsilon
	}
	return &Resolver{store: store, epsilon: epsilon, now: func() time.Time { return time.Now().UTC() }, log: log}
}

// Resolve returns the stored location matching (lat, lon) within tolerance,
// refreshing its last-accessed time, or creates a new row when none
// matches. Store errors surface unchanged.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64, elevationHint *float64) (models.Location, error) {
	candidates, err := r.store.LocationsNear(ctx, lat, lon, r.epsilon)
	if err != nil {
		return models.Location{}, fmt.Errorf("scan locations: %w", err)
	}

	for _, c := range candidates {
		if math.Abs(c.Latitude-lat) < r.epsilon && math.Abs(c.Longitude-lon) < r.epsilon {
			now := r.now()
			if err := r.store.TouchLocation(ctx, c.ID, now); err != nil {
				return models.Location{}, fmt.Errorf("touch location %d: %w", c.ID, err)
			}
			c.LastAccessedAt = &now
			r.log.Debug("matched existing location",
				zap.Int64("location_id", c.ID),
				zap.Float64("latitude", lat),
				zap.Float64("longitude", lon))
			return c, nil
		}
	}

	now := r.now()
	loc := models.Location{
		Latitude:       lat,
		Longitude:      lon,
		Elevation:      elevationHint,
		CreatedAt:      now,
		LastAccessedAt: &now,
	}
	created, err := r.store.InsertLocation(ctx, loc)
	if err != nil {
		return models.Location{}, fmt.Errorf("insert location: %w", err)
	}
	observability.LocationsCreatedTotal.Inc()
	r.log.Info("created location",
		zap.Int64("location_id", created.ID),
		zap.Float64("latitude", lat),
		zap.Float64("longitude", lon))
	return created, nil
}
