package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/villagetaxi/farequote/internal/model"
)

// CacheKeyPrefix namespaces cached lookups in Redis.
const CacheKeyPrefix = "geocode:postcode:"

// Provider resolves a postcode. Both PostcodesIO and GoogleGeocoder
// implement it.
type Provider interface {
	Lookup(ctx context.Context, postcode string) (model.GeocodedPostcode, error)
}

// kv is the subset of the Redis client the cache needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Cached wraps a Provider with a Redis read-through cache. Only successful
// lookups are stored; Redis errors fall through to the provider.
type Cached struct {
	next Provider
	kv   kv
	ttl  time.Duration
	log  *zap.Logger
}

// NewCached wraps next. ttl is the lifetime of each cached entry.
func NewCached(next Provider, client kv, ttl time.Duration, log *zap.Logger) *Cached {
	return &Cached{next: next, kv: client, ttl: ttl, log: log.Named("geocode_cache")}
}

// Lookup returns the cached location for postcode or asks the provider.
func (c *Cached) Lookup(ctx context.Context, postcode string) (model.GeocodedPostcode, error) {
	key := CacheKeyPrefix + normalize(postcode)

	data, err := c.kv.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var hit model.GeocodedPostcode
		if jerr := json.Unmarshal(data, &hit); jerr == nil {
			return hit, nil
		}
		c.log.Warn("discarding undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	res, err := c.next.Lookup(ctx, postcode)
	if err != nil {
		return model.GeocodedPostcode{}, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := c.kv.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return res, nil
}
