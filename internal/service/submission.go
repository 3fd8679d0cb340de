package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villagetaxi/farequote/internal/model"
)

// Sink delivers a quote request to whoever follows it up.
type Sink interface {
	Submit(ctx context.Context, req model.QuoteRequest) error
}

// Repricer recomputes a client-supplied quote under the current rules.
type Repricer interface {
	Reprice(ctx context.Context, q model.JourneyQuote) (*model.JourneyQuote, error)
}

// SubmissionService hands finished quotes plus contact details to a Sink.
// The quote is re-priced first, so the sink never sees a price the meter
// would not produce. It only learns whether delivery succeeded.
type SubmissionService struct {
	sink     Sink
	repricer Repricer
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewSubmissionService creates a submission service.
func NewSubmissionService(sink Sink, repricer Repricer, log *zap.Logger) *SubmissionService {
	return &SubmissionService{
		sink:     sink,
		repricer: repricer,
		log:      log.Named("submission"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Submit validates req, stamps it with a reference and delivers it.
func (s *SubmissionService) Submit(ctx context.Context, req model.QuoteRequest) (*model.QuoteRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.Email == "" && req.Phone == "" {
		missing = append(missing, "email or phone")
	}
	if req.Quote.Method == "" || req.Quote.Price <= 0 {
		missing = append(missing, "quote")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}
	if req.Quote.Method != model.MethodPostcode && req.Quote.Method != model.MethodDistance {
		return nil, fmt.Errorf("%w: unknown quote method %q", ErrInvalidInput, req.Quote.Method)
	}
	quote, err := s.repricer.Reprice(ctx, req.Quote)
	if err != nil {
		return nil, err
	}
	req.Quote = *quote
	if req.ContactMethod == "" {
		req.ContactMethod = "email"
		if req.Email == "" {
			req.ContactMethod = "phone"
		}
	}

	req.Reference = s.newID()
	req.SubmittedAt = s.now().UTC()

	if err := s.sink.Submit(ctx, req); err != nil {
		s.log.Error("quote request delivery failed",
			zap.String("reference", req.Reference), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	s.log.Info("quote request submitted",
		zap.String("reference", req.Reference),
		zap.String("method", string(req.Quote.Method)),
		zap.Stringer("price", req.Quote.Price))
	return &req, nil
}
