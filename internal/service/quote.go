package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/villagetaxi/farequote/internal/model"
	"github.com/villagetaxi/farequote/internal/tariff"
	"github.com/villagetaxi/farequote/pkg/geo"
	"github.com/villagetaxi/farequote/pkg/meter"
)

// Geocoder resolves a postcode to a coordinate.
type Geocoder interface {
	Lookup(ctx context.Context, postcode string) (model.GeocodedPostcode, error)
}

// ─── Quote Configuration ────────────────────────────────────

// QuoteConfig holds quoting policy.
type QuoteConfig struct {
	MinDistanceMiles float64        // Smallest manually entered distance accepted.
	MaxDistanceMiles float64        // Largest manually entered distance accepted.
	Location         *time.Location // Zone travel dates and times are given in.
}

// DefaultQuoteConfig returns the published policy: 0.5–100 miles, UK time.
func DefaultQuoteConfig() QuoteConfig {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		loc = time.UTC
	}
	return QuoteConfig{
		MinDistanceMiles: 0.5,
		MaxDistanceMiles: 100,
		Location:         loc,
	}
}

// QuoteDeps wires a QuoteService.
type QuoteDeps struct {
	Engine    *tariff.Engine
	Estimator geo.Estimator
	Area      LicenceArea
	Geocoder  Geocoder
	Usage     *UsageTracker
	Config    QuoteConfig
	Logger    *zap.Logger
}

// ─── QuoteService ───────────────────────────────────────────

// QuoteService prices journeys from postcodes or a known distance.
//
// Validation happens before any network call, in this order: required
// fields, travel moment not in the past, then the path-specific policy
// (licence area or distance bounds). Fare metering itself never fails.
type QuoteService struct {
	engine    *tariff.Engine
	estimator geo.Estimator
	area      LicenceArea
	geocoder  Geocoder
	usage     *UsageTracker
	config    QuoteConfig
	log       *zap.Logger
	now       func() time.Time
}

// NewQuoteService creates a quote service.
func NewQuoteService(deps QuoteDeps) *QuoteService {
	if deps.Config.Location == nil {
		deps.Config.Location = time.UTC
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &QuoteService{
		engine:    deps.Engine,
		estimator: deps.Estimator,
		area:      deps.Area,
		geocoder:  deps.Geocoder,
		usage:     deps.Usage,
		config:    deps.Config,
		log:       deps.Logger.Named("quote"),
		now:       time.Now,
	}
}

// QuoteByPostcodes prices a journey between two postcodes.
//
// Steps:
//  1. Validate inputs and the travel moment.
//  2. Reject pickups outside the licence area (no network call is made).
//  3. Geocode pickup and destination concurrently; either failure aborts.
//  4. Estimate road distance and record route usage (best effort).
//  5. Select the tariff and run the meter.
func (s *QuoteService) QuoteByPostcodes(ctx context.Context, pickup, destination, date, clock string) (*model.JourneyQuote, error) {
	pickup = strings.TrimSpace(pickup)
	destination = strings.TrimSpace(destination)

	// ── Step 1: Inputs ──────────────────────────────────
	if err := requireFields(map[string]string{
		"pickup": pickup, "destination": destination, "date": date, "time": clock,
	}); err != nil {
		return nil, err
	}
	moment, err := s.travelMoment(date, clock)
	if err != nil {
		return nil, err
	}

	// ── Step 2: Licence area ────────────────────────────
	if !s.area.Contains(pickup) {
		return nil, fmt.Errorf("%w: %s (accepted districts: %s)",
			ErrOutOfLicenceArea, District(pickup), strings.Join(s.area.Districts(), ", "))
	}

	// ── Step 3: Geocoding ───────────────────────────────
	from, to, err := s.geocodePair(ctx, pickup, destination)
	if err != nil {
		return nil, err
	}

	// ── Step 4: Distance & usage ────────────────────────
	distance := s.estimator.Estimate(from.Coordinate, to.Coordinate)
	if s.usage != nil {
		if _, err := s.usage.Record(ctx, from.Postcode, to.Postcode, distance); err != nil {
			s.log.Warn("route usage not recorded", zap.Error(err))
		}
	}

	// ── Step 5: Tariff & fare ───────────────────────────
	quote := s.price(moment, date, clock, distance, model.MethodPostcode)
	quote.Pickup = from.Postcode
	quote.Destination = to.Postcode

	s.log.Info("postcode quote",
		zap.String("pickup", quote.Pickup),
		zap.String("destination", quote.Destination),
		zap.Float64("distance_miles", quote.DistanceMiles),
		zap.String("tariff", quote.TariffName),
		zap.Stringer("price", quote.Price))
	return quote, nil
}

// QuoteByDistance prices a journey of a known distance. Pickup and
// destination are reported as "Manual Entry" and no usage is recorded.
func (s *QuoteService) QuoteByDistance(ctx context.Context, distanceMiles float64, date, clock string) (*model.JourneyQuote, error) {
	if err := requireFields(map[string]string{"date": date, "time": clock}); err != nil {
		return nil, err
	}
	if math.IsNaN(distanceMiles) || math.IsInf(distanceMiles, 0) {
		return nil, fmt.Errorf("%w: distance must be a number", ErrInvalidInput)
	}
	moment, err := s.travelMoment(date, clock)
	if err != nil {
		return nil, err
	}
	if distanceMiles < s.config.MinDistanceMiles || distanceMiles > s.config.MaxDistanceMiles {
		return nil, fmt.Errorf("%w: distance must be between %v and %v miles",
			ErrDistanceOutOfRange, s.config.MinDistanceMiles, s.config.MaxDistanceMiles)
	}

	quote := s.price(moment, date, clock, distanceMiles, model.MethodDistance)
	quote.Pickup = model.ManualEntry
	quote.Destination = model.ManualEntry

	s.log.Info("distance quote",
		zap.Float64("distance_miles", quote.DistanceMiles),
		zap.String("tariff", quote.TariffName),
		zap.Stringer("price", quote.Price))
	return quote, nil
}

// distanceRounding is the half-width of the interval a reported
// DistanceMiles was rounded from.
const distanceRounding = 0.05

// Reprice checks a quote echoed back by a client against the current rules.
//
// The travel moment must still be in the future and the path-specific policy
// must still hold. The tariff is reselected from the travel moment. The
// submitted price is kept when some distance that rounds to DistanceMiles
// meters to it; otherwise it is replaced with the fare for DistanceMiles.
func (s *QuoteService) Reprice(ctx context.Context, q model.JourneyQuote) (*model.JourneyQuote, error) {
	if err := requireFields(map[string]string{"date": q.TravelDate, "time": q.TravelTime}); err != nil {
		return nil, err
	}
	d := q.DistanceMiles
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return nil, fmt.Errorf("%w: quote distance must be a positive number", ErrInvalidInput)
	}
	moment, err := s.travelMoment(q.TravelDate, q.TravelTime)
	if err != nil {
		return nil, err
	}

	switch q.Method {
	case model.MethodDistance:
		if d < s.config.MinDistanceMiles || d > s.config.MaxDistanceMiles {
			return nil, fmt.Errorf("%w: distance must be between %v and %v miles",
				ErrDistanceOutOfRange, s.config.MinDistanceMiles, s.config.MaxDistanceMiles)
		}
	case model.MethodPostcode:
		if !s.area.Contains(q.Pickup) {
			return nil, fmt.Errorf("%w: %s (accepted districts: %s)",
				ErrOutOfLicenceArea, District(q.Pickup), strings.Join(s.area.Districts(), ", "))
		}
	default:
		return nil, fmt.Errorf("%w: unknown quote method %q", ErrInvalidInput, q.Method)
	}

	priced := s.price(moment, q.TravelDate, q.TravelTime, d, q.Method)
	priced.Pickup = q.Pickup
	priced.Destination = q.Destination

	sel := s.engine.Select(moment)
	low := meter.ComputeFare(math.Max(d-distanceRounding, 0), sel.Tariff)
	high := meter.ComputeFare(d+distanceRounding, sel.Tariff)
	if q.Price >= low && q.Price <= high {
		priced.Price = q.Price
	} else {
		s.log.Warn("submitted price corrected",
			zap.Stringer("submitted", q.Price),
			zap.Stringer("metered", priced.Price),
			zap.Float64("distance_miles", d))
	}
	return priced, nil
}

// Engine exposes the tariff engine for read-only endpoints.
func (s *QuoteService) Engine() *tariff.Engine { return s.engine }

// Area exposes the licence area for read-only endpoints.
func (s *QuoteService) Area() LicenceArea { return s.area }

// ─── Helpers ────────────────────────────────────────────────

// travelMoment parses the date and time and rejects moments before now.
func (s *QuoteService) travelMoment(date, clock string) (time.Time, error) {
	moment, err := tariff.ParseMoment(date, clock, s.config.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if moment.Before(s.now()) {
		return time.Time{}, fmt.Errorf("%w: %s %s", ErrPastDateTime, date, clock)
	}
	if !s.engine.Calendar().Covers(moment.Year()) {
		s.log.Warn("bank holiday calendar does not cover travel year; only Sundays and fixed festive dates apply",
			zap.Int("year", moment.Year()),
			zap.Ints("calendar_years", s.engine.Calendar().Years()))
	}
	return moment, nil
}

// geocodePair resolves both postcodes concurrently. Both must succeed.
func (s *QuoteService) geocodePair(ctx context.Context, pickup, destination string) (from, to model.GeocodedPostcode, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		from, err = s.geocoder.Lookup(gctx, pickup)
		if err != nil {
			s.log.Info("pickup lookup failed", zap.String("postcode", pickup), zap.Error(err))
			return fmt.Errorf("%w: pick-up postcode %q", ErrGeocodingFailed, pickup)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		to, err = s.geocoder.Lookup(gctx, destination)
		if err != nil {
			s.log.Info("destination lookup failed", zap.String("postcode", destination), zap.Error(err))
			return fmt.Errorf("%w: destination postcode %q", ErrGeocodingFailed, destination)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.GeocodedPostcode{}, model.GeocodedPostcode{}, err
	}
	return from, to, nil
}

// price selects the tariff for moment and meters distance under it.
func (s *QuoteService) price(moment time.Time, date, clock string, distance float64, method model.QuoteMethod) *model.JourneyQuote {
	sel := s.engine.Select(moment)
	return &model.JourneyQuote{
		TravelDate:    strings.TrimSpace(date),
		TravelTime:    strings.TrimSpace(clock),
		DistanceMiles: model.RoundTo(distance, 1),
		Price:         meter.ComputeFare(distance, sel.Tariff),
		TariffName:    sel.Label,
		TariffHeading: sel.Heading(),
		TariffDesc:    sel.Description(),
		Method:        method,
	}
}

// requireFields returns ErrMissingInput naming every blank field.
func requireFields(fields map[string]string) error {
	var missing []string
	for _, name := range []string{"pickup", "destination", "date", "time"} {
		v, ok := fields[name]
		if ok && strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}
	return nil
}
