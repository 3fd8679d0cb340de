package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/villagetaxi/farequote/internal/model"
)

// UsageStore persists route usage statistics.
//
// Implementations must apply Record atomically: two concurrent calls for the
// same route both end up counted.
type UsageStore interface {
	// Load returns the full route key → record mapping.
	Load(ctx context.Context) (map[string]model.RouteUsageRecord, error)

	// Record folds one lookup of distanceMiles at now into the route's
	// record, creating it on first use, and persists the result.
	Record(ctx context.Context, key model.RouteKey, distanceMiles float64, now time.Time) (model.RouteUsageRecord, error)

	// List returns routes searched at least minCount times, most searched first.
	List(ctx context.Context, minCount int) ([]model.PopularRoute, error)
}

// ─── UsageTracker ───────────────────────────────────────────

// UsageTracker records how often each pickup → destination route is quoted.
type UsageTracker struct {
	store           UsageStore
	log             *zap.Logger
	now             func() time.Time
	defaultMinCount int
}

// NewUsageTracker creates a tracker over store. defaultMinCount is used by
// ListPopular when the caller passes a non-positive threshold.
func NewUsageTracker(store UsageStore, defaultMinCount int, log *zap.Logger) *UsageTracker {
	if defaultMinCount < 1 {
		defaultMinCount = 1
	}
	return &UsageTracker{
		store:           store,
		log:             log.Named("usage"),
		now:             time.Now,
		defaultMinCount: defaultMinCount,
	}
}

// Record counts one more quote for the route. Each call increments the
// count, so it is safe to repeat but never a no-op.
func (t *UsageTracker) Record(ctx context.Context, pickup, destination string, distanceMiles float64) (model.RouteUsageRecord, error) {
	key := model.RouteKey{Pickup: pickup, Destination: destination}
	rec, err := t.store.Record(ctx, key, distanceMiles, t.now().UTC())
	if err != nil {
		return model.RouteUsageRecord{}, fmt.Errorf("record usage %s: %w", key, err)
	}

	t.log.Debug("route usage recorded",
		zap.String("route", key.String()),
		zap.Int("count", rec.Count),
		zap.Float64("avg_distance_miles", rec.AvgDistanceMiles))
	return rec, nil
}

// ListPopular returns routes searched at least minCount times, most searched
// first.
func (t *UsageTracker) ListPopular(ctx context.Context, minCount int) ([]model.PopularRoute, error) {
	if minCount < 1 {
		minCount = t.defaultMinCount
	}
	routes, err := t.store.List(ctx, minCount)
	if err != nil {
		return nil, fmt.Errorf("list popular routes: %w", err)
	}
	return routes, nil
}

// Snapshot returns the full usage mapping.
func (t *UsageTracker) Snapshot(ctx context.Context) (map[string]model.RouteUsageRecord, error) {
	return t.store.Load(ctx)
}
