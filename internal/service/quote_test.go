package service

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/villagetaxi/farequote/internal/model"
	"github.com/villagetaxi/farequote/internal/repository"
	"github.com/villagetaxi/farequote/internal/tariff"
	"github.com/villagetaxi/farequote/pkg/geo"
	"github.com/villagetaxi/farequote/pkg/meter"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var (
	rye      = model.GeocodedPostcode{Postcode: "TN31 7AB", Coordinate: model.GeoCoordinate{Latitude: 50.9505, Longitude: 0.7325}, Area: "Rother"}
	hastings = model.GeocodedPostcode{Postcode: "TN34 1AA", Coordinate: model.GeoCoordinate{Latitude: 50.8543, Longitude: 0.5735}, Area: "Hastings"}
)

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Lookup(ctx context.Context, postcode string) (model.GeocodedPostcode, error) {
	args := m.Called(ctx, postcode)
	return args.Get(0).(model.GeocodedPostcode), args.Error(1)
}

type failingStore struct{}

func (failingStore) Load(context.Context) (map[string]model.RouteUsageRecord, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) Record(context.Context, model.RouteKey, float64, time.Time) (model.RouteUsageRecord, error) {
	return model.RouteUsageRecord{}, errors.New("disk on fire")
}

func (failingStore) List(context.Context, int) ([]model.PopularRoute, error) {
	return nil, errors.New("disk on fire")
}

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

// newTestQuoteService builds a service whose clock reads Sunday
// 2025-06-01 09:00 in London.
func newTestQuoteService(t *testing.T, geocoder Geocoder, store UsageStore) (*QuoteService, *UsageTracker) {
	t.Helper()
	loc := london(t)
	now := func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, loc) }

	if store == nil {
		store = repository.NewFileUsageStore(filepath.Join(t.TempDir(), "routes.json"))
	}
	usage := NewUsageTracker(store, 3, zap.NewNop())
	usage.now = now

	svc := NewQuoteService(QuoteDeps{
		Engine:    tariff.NewEngine(tariff.DefaultTable(), tariff.DefaultCalendar()),
		Estimator: geo.NewEstimator(0),
		Area:      DefaultLicenceArea(),
		Geocoder:  geocoder,
		Usage:     usage,
		Config:    QuoteConfig{MinDistanceMiles: 0.5, MaxDistanceMiles: 100, Location: loc},
		Logger:    zap.NewNop(),
	})
	svc.now = now
	return svc, usage
}

// ---------------------------------------------------------------------------
// QuoteByDistance
// ---------------------------------------------------------------------------

func TestQuoteByDistance_ReferenceFares(t *testing.T) {
	svc, _ := newTestQuoteService(t, new(MockGeocoder), nil)

	tests := []struct {
		name      string
		miles     float64
		date      string
		clock     string
		wantPrice string
		wantName  string
	}{
		{"weekday daytime", 5, "2025-06-02", "10:00", "14.30", "Tariff 1 (Standard)"},
		{"weekday night", 12.2, "2025-06-02", "23:30", "43.80", "Tariff 2 (Night-time)"},
		{"sunday", 11.2, "2025-06-08", "12:00", "40.80", "Tariff 2 (Sunday/Holiday)"},
		{"christmas day", 1, "2025-12-25", "10:00", "11.20", "Tariff 3 (Christmas Period)"},
		{"christmas eve evening", 12.2, "2025-12-24", "19:00", "43.80", "Tariff 2 (Holiday Eve)"},
		{"lower bound", 0.5, "2025-06-02", "10:00", "4.50", "Tariff 1 (Standard)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := svc.QuoteByDistance(context.Background(), tt.miles, tt.date, tt.clock)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrice, q.Price.String())
			assert.Equal(t, tt.wantName, q.TariffName)
			assert.Equal(t, model.ManualEntry, q.Pickup)
			assert.Equal(t, model.ManualEntry, q.Destination)
			assert.Equal(t, model.MethodDistance, q.Method)
			assert.Equal(t, tt.date, q.TravelDate)
			assert.Equal(t, tt.clock, q.TravelTime)
		})
	}
}

func TestQuoteByDistance_Rejections(t *testing.T) {
	svc, _ := newTestQuoteService(t, new(MockGeocoder), nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		miles float64
		date  string
		clock string
		want  error
	}{
		{"missing date", 5, "", "10:00", ErrMissingInput},
		{"missing time", 5, "2025-06-02", " ", ErrMissingInput},
		{"not a number", math.NaN(), "2025-06-02", "10:00", ErrInvalidInput},
		{"infinite", math.Inf(1), "2025-06-02", "10:00", ErrInvalidInput},
		{"bad date", 5, "02/06/2025", "10:00", ErrInvalidInput},
		{"bad time", 5, "2025-06-02", "25:00", ErrInvalidInput},
		{"one minute ago", 5, "2025-06-01", "08:59", ErrPastDateTime},
		{"yesterday", 5, "2025-05-31", "12:00", ErrPastDateTime},
		{"below minimum", 0.4, "2025-06-02", "10:00", ErrDistanceOutOfRange},
		{"above maximum", 100.1, "2025-06-02", "10:00", ErrDistanceOutOfRange},
		{"negative", -3, "2025-06-02", "10:00", ErrDistanceOutOfRange},
		{"past beats range", 500, "2025-05-31", "12:00", ErrPastDateTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := svc.QuoteByDistance(ctx, tt.miles, tt.date, tt.clock)
			assert.Nil(t, q)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestQuoteByDistance_BoundsAndNowAreAccepted(t *testing.T) {
	svc, _ := newTestQuoteService(t, new(MockGeocoder), nil)

	for _, miles := range []float64{0.5, 100} {
		_, err := svc.QuoteByDistance(context.Background(), miles, "2025-06-02", "10:00")
		assert.NoError(t, err, miles)
	}

	// Exactly now is not in the past.
	_, err := svc.QuoteByDistance(context.Background(), 3, "2025-06-01", "09:00")
	assert.NoError(t, err)
}

func TestQuoteByDistance_DoesNotRecordUsage(t *testing.T) {
	svc, usage := newTestQuoteService(t, new(MockGeocoder), nil)

	_, err := svc.QuoteByDistance(context.Background(), 7, "2025-06-02", "10:00")
	require.NoError(t, err)

	snap, err := usage.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
}

// ---------------------------------------------------------------------------
// QuoteByPostcodes
// ---------------------------------------------------------------------------

func TestQuoteByPostcodes_Success(t *testing.T) {
	g := new(MockGeocoder)
	g.On("Lookup", mock.Anything, "tn31 7ab").Return(rye, nil)
	g.On("Lookup", mock.Anything, "TN34 1AA").Return(hastings, nil)

	svc, usage := newTestQuoteService(t, g, nil)

	q, err := svc.QuoteByPostcodes(context.Background(), " tn31 7ab ", "TN34 1AA", "2025-06-02", "10:00")
	require.NoError(t, err)
	g.AssertExpectations(t)

	miles := geo.NewEstimator(0).Estimate(rye.Coordinate, hastings.Coordinate)
	assert.Equal(t, "TN31 7AB", q.Pickup)
	assert.Equal(t, "TN34 1AA", q.Destination)
	assert.Equal(t, model.RoundTo(miles, 1), q.DistanceMiles)
	assert.Equal(t, meter.ComputeFare(miles, tariff.DefaultTable().Standard), q.Price)
	assert.Equal(t, "Tariff 1 (Standard)", q.TariffName)
	assert.Equal(t, "Tariff 1", q.TariffHeading)
	assert.NotEmpty(t, q.TariffDesc)
	assert.Equal(t, model.MethodPostcode, q.Method)

	snap, err := usage.Snapshot(context.Background())
	require.NoError(t, err)
	rec, ok := snap["TN31 7AB→TN34 1AA"]
	require.True(t, ok)
	assert.Equal(t, 1, rec.Count)
	assert.InDelta(t, miles, rec.TotalDistanceMiles, 1e-9)
}

func TestQuoteByPostcodes_RepeatedLookupsAggregate(t *testing.T) {
	g := new(MockGeocoder)
	g.On("Lookup", mock.Anything, "TN31 7AB").Return(rye, nil)
	g.On("Lookup", mock.Anything, "TN34 1AA").Return(hastings, nil)

	svc, usage := newTestQuoteService(t, g, nil)
	for i := 0; i < 3; i++ {
		_, err := svc.QuoteByPostcodes(context.Background(), "TN31 7AB", "TN34 1AA", "2025-06-02", "10:00")
		require.NoError(t, err)
	}

	popular, err := usage.ListPopular(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, popular, 1)
	assert.Equal(t, 3, popular[0].Searches)
}

func TestQuoteByPostcodes_OutOfLicenceArea(t *testing.T) {
	g := new(MockGeocoder)
	svc, _ := newTestQuoteService(t, g, nil)

	q, err := svc.QuoteByPostcodes(context.Background(), "BN1 1AA", "TN34 1AA", "2025-06-02", "10:00")
	assert.Nil(t, q)
	assert.ErrorIs(t, err, ErrOutOfLicenceArea)
	assert.ErrorContains(t, err, "BN1")
	g.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestQuoteByPostcodes_DestinationIsUnrestricted(t *testing.T) {
	westminster := model.GeocodedPostcode{Postcode: "SW1A 1AA", Coordinate: model.GeoCoordinate{Latitude: 51.501, Longitude: -0.1416}}
	g := new(MockGeocoder)
	g.On("Lookup", mock.Anything, "TN31 7AB").Return(rye, nil)
	g.On("Lookup", mock.Anything, "SW1A 1AA").Return(westminster, nil)

	svc, _ := newTestQuoteService(t, g, nil)
	q, err := svc.QuoteByPostcodes(context.Background(), "TN31 7AB", "SW1A 1AA", "2025-06-02", "10:00")
	require.NoError(t, err)
	assert.Greater(t, q.DistanceMiles, 60.0)
}

func TestQuoteByPostcodes_ValidationBeforeNetwork(t *testing.T) {
	g := new(MockGeocoder)
	svc, _ := newTestQuoteService(t, g, nil)
	ctx := context.Background()

	_, err := svc.QuoteByPostcodes(ctx, "", "TN34 1AA", "2025-06-02", "10:00")
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.ErrorContains(t, err, "pickup")

	_, err = svc.QuoteByPostcodes(ctx, "TN31 7AB", "", "", "10:00")
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.ErrorContains(t, err, "destination, date")

	_, err = svc.QuoteByPostcodes(ctx, "TN31 7AB", "TN34 1AA", "2025-05-01", "10:00")
	assert.ErrorIs(t, err, ErrPastDateTime)

	g.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestQuoteByPostcodes_GeocodingFailure(t *testing.T) {
	g := new(MockGeocoder)
	g.On("Lookup", mock.Anything, "TN31 7AB").Return(rye, nil)
	g.On("Lookup", mock.Anything, "ZZ99 9ZZ").Return(model.GeocodedPostcode{}, errors.New("404 not found"))

	svc, usage := newTestQuoteService(t, g, nil)

	q, err := svc.QuoteByPostcodes(context.Background(), "TN31 7AB", "ZZ99 9ZZ", "2025-06-02", "10:00")
	assert.Nil(t, q)
	assert.ErrorIs(t, err, ErrGeocodingFailed)
	assert.ErrorContains(t, err, "destination")

	snap, err := usage.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestQuoteByPostcodes_UsageFailureDoesNotFailQuote(t *testing.T) {
	g := new(MockGeocoder)
	g.On("Lookup", mock.Anything, "TN31 7AB").Return(rye, nil)
	g.On("Lookup", mock.Anything, "TN34 1AA").Return(hastings, nil)

	svc, _ := newTestQuoteService(t, g, failingStore{})

	q, err := svc.QuoteByPostcodes(context.Background(), "TN31 7AB", "TN34 1AA", "2025-06-02", "10:00")
	require.NoError(t, err)
	assert.Positive(t, int64(q.Price))
}
