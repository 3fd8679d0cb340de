package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/villagetaxi/farequote/internal/model"
)

// Hash fields of one route record.
const (
	fieldCount         = "count"
	fieldTotalDistance = "total_distance_miles"
	fieldFirstSearched = "first_searched_at"
	fieldLastSearched  = "last_searched_at"
)

// RedisUsageStore keeps one hash per route under <prefix>:route:<route key>
// and the set of known route keys under <prefix>:routes.
//
// Record is a single MULTI/EXEC of increments, so concurrent writers in any
// number of processes never lose an update and never retry.
type RedisUsageStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisUsageStore creates a store whose keys start with prefix.
func NewRedisUsageStore(client *redis.Client, prefix string) *RedisUsageStore {
	return &RedisUsageStore{redis: client, prefix: prefix}
}

func (s *RedisUsageStore) indexKey() string { return s.prefix + ":routes" }

func (s *RedisUsageStore) routeKey(route string) string { return s.prefix + ":route:" + route }

// Load returns every stored route; no routes is an empty mapping.
func (s *RedisUsageStore) Load(ctx context.Context) (map[string]model.RouteUsageRecord, error) {
	routes := make(map[string]model.RouteUsageRecord)

	names, err := s.redis.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("usage redis: list routes: %w", err)
	}
	if len(names) == 0 {
		return routes, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(names))
	_, err = s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, name := range names {
			cmds[i] = pipe.HGetAll(ctx, s.routeKey(name))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("usage redis: load routes: %w", err)
	}

	for i, name := range names {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		rec, err := decodeRoute(fields)
		if err != nil {
			return nil, fmt.Errorf("usage redis: decode %s: %w", name, err)
		}
		routes[name] = rec
	}
	return routes, nil
}

// Record applies one lookup to the route atomically.
func (s *RedisUsageStore) Record(
	ctx context.Context,
	key model.RouteKey,
	distanceMiles float64,
	now time.Time,
) (model.RouteUsageRecord, error) {
	route := key.String()
	hash := s.routeKey(route)
	stamp := now.UTC().Format(time.RFC3339Nano)

	var (
		count *redis.IntCmd
		total *redis.FloatCmd
		first *redis.StringCmd
	)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.HIncrBy(ctx, hash, fieldCount, 1)
		total = pipe.HIncrByFloat(ctx, hash, fieldTotalDistance, distanceMiles)
		pipe.HSetNX(ctx, hash, fieldFirstSearched, stamp)
		pipe.HSet(ctx, hash, fieldLastSearched, stamp)
		pipe.SAdd(ctx, s.indexKey(), route)
		first = pipe.HGet(ctx, hash, fieldFirstSearched)
		return nil
	})
	if err != nil {
		return model.RouteUsageRecord{}, fmt.Errorf("usage redis: record %s: %w", route, err)
	}

	firstAt, err := time.Parse(time.RFC3339Nano, first.Val())
	if err != nil {
		return model.RouteUsageRecord{}, fmt.Errorf("usage redis: record %s: first_searched_at: %w", route, err)
	}
	rec := model.RouteUsageRecord{
		Count:              int(count.Val()),
		TotalDistanceMiles: total.Val(),
		FirstSearchedAt:    firstAt,
		LastSearchedAt:     now.UTC(),
	}
	rec.AvgDistanceMiles = model.RoundTo(rec.TotalDistanceMiles/float64(rec.Count), 1)
	return rec, nil
}

// List returns routes with at least minCount searches, most searched first.
func (s *RedisUsageStore) List(ctx context.Context, minCount int) ([]model.PopularRoute, error) {
	routes, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return model.PopularRoutes(routes, minCount), nil
}

func decodeRoute(fields map[string]string) (model.RouteUsageRecord, error) {
	var rec model.RouteUsageRecord

	count, err := strconv.Atoi(fields[fieldCount])
	if err != nil {
		return rec, fmt.Errorf("%s: %w", fieldCount, err)
	}
	total, err := strconv.ParseFloat(fields[fieldTotalDistance], 64)
	if err != nil {
		return rec, fmt.Errorf("%s: %w", fieldTotalDistance, err)
	}
	first, err := time.Parse(time.RFC3339Nano, fields[fieldFirstSearched])
	if err != nil {
		return rec, fmt.Errorf("%s: %w", fieldFirstSearched, err)
	}
	last, err := time.Parse(time.RFC3339Nano, fields[fieldLastSearched])
	if err != nil {
		return rec, fmt.Errorf("%s: %w", fieldLastSearched, err)
	}

	rec.Count = count
	rec.TotalDistanceMiles = total
	rec.FirstSearchedAt = first
	rec.LastSearchedAt = last
	if count > 0 {
		rec.AvgDistanceMiles = model.RoundTo(total/float64(count), 1)
	}
	return rec, nil
}
