package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/villagetaxi/farequote/internal/model"
)

type recordingSink struct {
	got []model.QuoteRequest
	err error
}

func (s *recordingSink) Submit(ctx context.Context, req model.QuoteRequest) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, req)
	return nil
}

func newTestSubmissionService(t *testing.T, sink Sink) *SubmissionService {
	t.Helper()
	quotes, _ := newTestQuoteService(t, new(MockGeocoder), nil)
	svc := NewSubmissionService(sink, quotes, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "ref-1" }
	return svc
}

func validQuote() model.JourneyQuote {
	return model.JourneyQuote{
		Pickup:        model.ManualEntry,
		Destination:   model.ManualEntry,
		TravelDate:    "2025-06-02",
		TravelTime:    "10:00",
		DistanceMiles: 5,
		Price:         1430,
		TariffName:    "Tariff 1 (Standard)",
		Method:        model.MethodDistance,
	}
}

func TestSubmissionService_Submit(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestSubmissionService(t, sink)

	got, err := svc.Submit(context.Background(), model.QuoteRequest{
		Quote: validQuote(),
		Name:  "  Ada Lovelace ",
		Phone: "01797 000000",
	})
	require.NoError(t, err)

	assert.Equal(t, "ref-1", got.Reference)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, "phone", got.ContactMethod)
	assert.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), got.SubmittedAt)
	require.Len(t, sink.got, 1)
	assert.Equal(t, *got, sink.got[0])
}

func TestSubmissionService_ContactMethod(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestSubmissionService(t, sink)

	got, err := svc.Submit(context.Background(), model.QuoteRequest{
		Quote: validQuote(), Name: "Ada", Email: "ada@example.com", Phone: "01797 000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "email", got.ContactMethod)

	got, err = svc.Submit(context.Background(), model.QuoteRequest{
		Quote: validQuote(), Name: "Ada", Email: "ada@example.com", ContactMethod: "whatsapp",
	})
	require.NoError(t, err)
	assert.Equal(t, "whatsapp", got.ContactMethod)
}

func TestSubmissionService_Validation(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestSubmissionService(t, sink)
	ctx := context.Background()

	_, err := svc.Submit(ctx, model.QuoteRequest{Quote: validQuote(), Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.ErrorContains(t, err, "name")

	_, err = svc.Submit(ctx, model.QuoteRequest{Quote: validQuote(), Name: "Ada"})
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.ErrorContains(t, err, "email or phone")

	_, err = svc.Submit(ctx, model.QuoteRequest{Name: "Ada", Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.ErrorContains(t, err, "quote")

	bad := validQuote()
	bad.Method = "carrier-pigeon"
	_, err = svc.Submit(ctx, model.QuoteRequest{Quote: bad, Name: "Ada", Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, sink.got)
}

func TestSubmissionService_SinkFailure(t *testing.T) {
	svc := newTestSubmissionService(t, &recordingSink{err: errors.New("smtp down")})

	got, err := svc.Submit(context.Background(), model.QuoteRequest{
		Quote: validQuote(), Name: "Ada", Email: "a@b.c",
	})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.ErrorContains(t, err, "smtp down")
}

func TestSubmissionService_RepricesQuote(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestSubmissionService(t, sink)
	ctx := context.Background()

	got, err := svc.Submit(ctx, model.QuoteRequest{Quote: validQuote(), Name: "Ada", Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, model.Pence(1430), got.Quote.Price, "metered price is kept")

	cheap := validQuote()
	cheap.Price = 100
	cheap.TariffName = "Tariff 3 (Christmas Period)"
	got, err = svc.Submit(ctx, model.QuoteRequest{Quote: cheap, Name: "Ada", Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, model.Pence(1430), got.Quote.Price)
	assert.Equal(t, "Tariff 1 (Standard)", got.Quote.TariffName)

	require.Len(t, sink.got, 2)
	assert.Equal(t, model.Pence(1430), sink.got[1].Quote.Price)
}

func TestSubmissionService_RejectsStaleQuote(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestSubmissionService(t, sink)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(q *model.JourneyQuote)
		wantErr error
	}{
		{
			name:    "travel time has passed",
			mutate:  func(q *model.JourneyQuote) { q.TravelDate = "2025-05-31" },
			wantErr: ErrPastDateTime,
		},
		{
			name:    "distance above maximum",
			mutate:  func(q *model.JourneyQuote) { q.DistanceMiles = 250 },
			wantErr: ErrDistanceOutOfRange,
		},
		{
			name:    "zero distance",
			mutate:  func(q *model.JourneyQuote) { q.DistanceMiles = 0 },
			wantErr: ErrInvalidInput,
		},
		{
			name: "pickup outside licence area",
			mutate: func(q *model.JourneyQuote) {
				q.Method = model.MethodPostcode
				q.Pickup = "SW1A 1AA"
				q.Destination = "TN31 7AB"
			},
			wantErr: ErrOutOfLicenceArea,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuote()
			tt.mutate(&q)
			_, err := svc.Submit(ctx, model.QuoteRequest{Quote: q, Name: "Ada", Email: "a@b.c"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, sink.got)
}
