// Package model contains domain models for the fare quoting service.
package model

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ─── Money ──────────────────────────────────────────────────

// Pence is a fixed-point amount of money in hundredths of a pound.
type Pence int64

// PenceFromPounds converts a decimal pound amount (e.g. 3.30) to pence,
// rounding half away from zero.
func PenceFromPounds(pounds float64) Pence {
	return Pence(math.Round(pounds * 100))
}

// Pounds returns the amount as a float, for display and logging only.
func (p Pence) Pounds() float64 {
	return float64(p) / 100
}

// String renders the amount with exactly two decimals ("14.30").
func (p Pence) String() string {
	sign := ""
	v := int64(p)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalText encodes the amount as a two-decimal string.
func (p Pence) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts a decimal pound amount such as "14.3" or "14.30".
func (p *Pence) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	*p = PenceFromPounds(f)
	return nil
}

// ─── Tariffs ────────────────────────────────────────────────

// YardsPerMile is the number of yards in one statute mile.
const YardsPerMile = 1760.0

// TariffID identifies one of the three published tariffs.
type TariffID string

const (
	Tariff1 TariffID = "tariff1"
	Tariff2 TariffID = "tariff2"
	Tariff3 TariffID = "tariff3"
)

// Tariff is a single metered rate from the published fare table.
type Tariff struct {
	ID             TariffID `json:"id"`
	Name           string   `json:"name"`
	FlagFall       Pence    `json:"flag_fall"`
	IncrementRate  Pence    `json:"increment_rate"`
	FirstMileYards float64  `json:"first_mile_yards"`
	AfterMileYards float64  `json:"after_mile_yards"`
}

// Validate rejects a tariff the meter could not run.
func (t Tariff) Validate() error {
	switch {
	case t.FlagFall <= 0:
		return fmt.Errorf("tariff %s: flag fall must be positive", t.ID)
	case t.IncrementRate <= 0:
		return fmt.Errorf("tariff %s: increment rate must be positive", t.ID)
	case t.FirstMileYards <= 0 || t.FirstMileYards >= YardsPerMile:
		return fmt.Errorf("tariff %s: first-mile increment must be in (0, %v) yards", t.ID, YardsPerMile)
	case t.AfterMileYards <= 0:
		return fmt.Errorf("tariff %s: after-mile increment must be positive", t.ID)
	}
	return nil
}

// ─── Location ───────────────────────────────────────────────

// GeoCoordinate is a WGS-84 point in decimal degrees.
type GeoCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies within the WGS-84 range.
func (c GeoCoordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// GeocodedPostcode is the result of resolving a postcode.
type GeocodedPostcode struct {
	Postcode   string        `json:"postcode"`
	Coordinate GeoCoordinate `json:"coordinate"`
	Area       string        `json:"area"`
}

// ─── Route Usage ────────────────────────────────────────────

// RouteKeySeparator joins the pickup and destination in a route key.
const RouteKeySeparator = "→"

// RouteKey identifies a pickup → destination pair.
type RouteKey struct {
	Pickup      string
	Destination string
}

func (k RouteKey) String() string {
	return k.Pickup + RouteKeySeparator + k.Destination
}

// ParseRouteKey splits a "PICKUP→DEST" string.
func ParseRouteKey(s string) (RouteKey, error) {
	pickup, dest, ok := strings.Cut(s, RouteKeySeparator)
	if !ok || pickup == "" || dest == "" {
		return RouteKey{}, fmt.Errorf("malformed route key %q", s)
	}
	return RouteKey{Pickup: pickup, Destination: dest}, nil
}

// RouteUsageRecord aggregates every quote requested for one route.
type RouteUsageRecord struct {
	Count              int       `json:"count"`
	TotalDistanceMiles float64   `json:"total_distance_miles"`
	AvgDistanceMiles   float64   `json:"avg_distance_miles"`
	FirstSearchedAt    time.Time `json:"first_searched_at"`
	LastSearchedAt     time.Time `json:"last_searched_at"`
}

// Apply folds one more lookup of distanceMiles at time now into the record.
func (r *RouteUsageRecord) Apply(distanceMiles float64, now time.Time) {
	if r.Count == 0 && r.FirstSearchedAt.IsZero() {
		r.FirstSearchedAt = now
	}
	r.Count++
	r.TotalDistanceMiles += distanceMiles
	r.AvgDistanceMiles = RoundTo(r.TotalDistanceMiles/float64(r.Count), 1)
	r.LastSearchedAt = now
}

// PopularRoute is a read-only view of a route's usage.
type PopularRoute struct {
	Route            string    `json:"route"`
	Searches         int       `json:"searches"`
	AvgDistanceMiles float64   `json:"avg_distance_miles"`
	LastSearchedAt   time.Time `json:"last_searched_at"`
}

// PopularRoutes returns the routes of a usage mapping searched at least
// minCount times, most searched first. Ties are ordered by route key.
func PopularRoutes(routes map[string]RouteUsageRecord, minCount int) []PopularRoute {
	out := make([]PopularRoute, 0, len(routes))
	for key, rec := range routes {
		if rec.Count < minCount {
			continue
		}
		out = append(out, PopularRoute{
			Route:            key,
			Searches:         rec.Count,
			AvgDistanceMiles: rec.AvgDistanceMiles,
			LastSearchedAt:   rec.LastSearchedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Searches != out[j].Searches {
			return out[i].Searches > out[j].Searches
		}
		return out[i].Route < out[j].Route
	})
	return out
}

// ─── Quotes ─────────────────────────────────────────────────

// QuoteMethod records how the distance of a quote was obtained.
type QuoteMethod string

const (
	MethodPostcode QuoteMethod = "postcode"
	MethodDistance QuoteMethod = "distance"
)

// ManualEntry is shown in place of postcodes for distance-based quotes.
const ManualEntry = "Manual Entry"

// JourneyQuote is the priced result handed back to the caller.
type JourneyQuote struct {
	Pickup        string      `json:"pickup"`
	Destination   string      `json:"destination"`
	TravelDate    string      `json:"travel_date"`
	TravelTime    string      `json:"travel_time"`
	DistanceMiles float64     `json:"distance_miles"`
	Price         Pence       `json:"price"`
	TariffName    string      `json:"tariff_name"`
	TariffHeading string      `json:"tariff_heading,omitempty"`
	TariffDesc    string      `json:"tariff_description,omitempty"`
	Method        QuoteMethod `json:"method"`
}

// QuoteRequest is a quote a customer wants a human to follow up on.
type QuoteRequest struct {
	Reference     string       `json:"reference"`
	Quote         JourneyQuote `json:"quote"`
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	ContactMethod string       `json:"contact_method"`
	SubmittedAt   time.Time    `json:"submitted_at"`
}

// ─── Helpers ────────────────────────────────────────────────

// RoundTo rounds v half away from zero to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
