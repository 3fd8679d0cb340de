package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/villagetaxi/farequote/internal/model"
)

// PostgresUsageStore keeps one row per route in the route_usage table.
//
// Record is a single INSERT ... ON CONFLICT DO UPDATE, so the increment is
// atomic under concurrent writers without explicit locking.
type PostgresUsageStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUsageStore creates a store on pool.
func NewPostgresUsageStore(pool *pgxpool.Pool) *PostgresUsageStore {
	return &PostgresUsageStore{pool: pool}
}

const createRouteUsageTable = `
	CREATE TABLE IF NOT EXISTS route_usage (
		pickup               TEXT             NOT NULL,
		destination          TEXT             NOT NULL,
		count                INTEGER          NOT NULL CHECK (count >= 1),
		total_distance_miles DOUBLE PRECISION NOT NULL CHECK (total_distance_miles >= 0),
		avg_distance_miles   DOUBLE PRECISION NOT NULL,
		first_searched_at    TIMESTAMPTZ      NOT NULL,
		last_searched_at     TIMESTAMPTZ      NOT NULL,
		PRIMARY KEY (pickup, destination)
	)`

// Migrate creates the route_usage table if it does not exist.
func (s *PostgresUsageStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createRouteUsageTable); err != nil {
		return fmt.Errorf("migrate route_usage: %w", err)
	}
	return nil
}

// Load returns every route's record keyed by "PICKUP→DEST".
func (s *PostgresUsageStore) Load(ctx context.Context) (map[string]model.RouteUsageRecord, error) {
	query := `
		SELECT pickup, destination, count, total_distance_miles, avg_distance_miles,
		       first_searched_at, last_searched_at
		FROM route_usage
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query route_usage: %w", err)
	}
	defer rows.Close()

	routes := make(map[string]model.RouteUsageRecord)
	for rows.Next() {
		var key model.RouteKey
		var rec model.RouteUsageRecord
		if err := rows.Scan(
			&key.Pickup, &key.Destination,
			&rec.Count, &rec.TotalDistanceMiles, &rec.AvgDistanceMiles,
			&rec.FirstSearchedAt, &rec.LastSearchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan route_usage: %w", err)
		}
		routes[key.String()] = rec
	}
	return routes, rows.Err()
}

// Record upserts the route's row: a new route starts at count 1, an existing
// one is incremented and its average recomputed, all in one statement.
func (s *PostgresUsageStore) Record(
	ctx context.Context,
	key model.RouteKey,
	distanceMiles float64,
	now time.Time,
) (model.RouteUsageRecord, error) {
	query := `
		INSERT INTO route_usage AS u
			(pickup, destination, count, total_distance_miles, avg_distance_miles,
			 first_searched_at, last_searched_at)
		VALUES ($1, $2, 1, $3::float8, ROUND(($3::float8)::numeric, 1), $4, $4)
		ON CONFLICT (pickup, destination) DO UPDATE SET
			count                = u.count + 1,
			total_distance_miles = u.total_distance_miles + EXCLUDED.total_distance_miles,
			avg_distance_miles   = ROUND(
				((u.total_distance_miles + EXCLUDED.total_distance_miles) / (u.count + 1))::numeric, 1),
			last_searched_at     = EXCLUDED.last_searched_at
		RETURNING count, total_distance_miles, avg_distance_miles, first_searched_at, last_searched_at
	`

	var rec model.RouteUsageRecord
	err := s.pool.QueryRow(ctx, query,
		key.Pickup, key.Destination, distanceMiles, now,
	).Scan(&rec.Count, &rec.TotalDistanceMiles, &rec.AvgDistanceMiles,
		&rec.FirstSearchedAt, &rec.LastSearchedAt)
	if err != nil {
		return model.RouteUsageRecord{}, fmt.Errorf("upsert route_usage %s: %w", key, err)
	}
	return rec, nil
}

// List returns routes with at least minCount searches, most searched first.
// Ties are ordered bytewise by the joined route key, as model.PopularRoutes does.
func (s *PostgresUsageStore) List(ctx context.Context, minCount int) ([]model.PopularRoute, error) {
	query := `
		SELECT pickup, destination, count, avg_distance_miles, last_searched_at
		FROM route_usage
		WHERE count >= $1
		ORDER BY count DESC, (pickup || $2::text || destination) COLLATE "C"
	`

	rows, err := s.pool.Query(ctx, query, minCount, model.RouteKeySeparator)
	if err != nil {
		return nil, fmt.Errorf("query popular routes: %w", err)
	}
	defer rows.Close()

	routes := []model.PopularRoute{}
	for rows.Next() {
		var key model.RouteKey
		var r model.PopularRoute
		if err := rows.Scan(&key.Pickup, &key.Destination, &r.Searches, &r.AvgDistanceMiles, &r.LastSearchedAt); err != nil {
			return nil, fmt.Errorf("scan popular route: %w", err)
		}
		r.Route = key.String()
		routes = append(routes, r)
	}
	return routes, rows.Err()
}
