// Package sink delivers submitted quote requests to the office.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/villagetaxi/farequote/internal/model"
)

// ─── LogSink ────────────────────────────────────────────────

// LogSink writes each quote request to the structured log. It is the
// default when no webhook is configured.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a sink writing to log.
func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("quote_request")}
}

// Submit logs req. It never fails.
func (s *LogSink) Submit(ctx context.Context, req model.QuoteRequest) error {
	q := req.Quote
	s.log.Info("new quote request",
		zap.String("reference", req.Reference),
		zap.String("name", req.Name),
		zap.String("email", req.Email),
		zap.String("phone", req.Phone),
		zap.String("contact_method", req.ContactMethod),
		zap.String("pickup", q.Pickup),
		zap.String("destination", q.Destination),
		zap.String("travel_date", q.TravelDate),
		zap.String("travel_time", q.TravelTime),
		zap.Float64("distance_miles", q.DistanceMiles),
		zap.String("tariff", q.TariffName),
		zap.Stringer("price", q.Price),
		zap.Time("submitted_at", req.SubmittedAt),
	)
	return nil
}

// ─── WebhookSink ────────────────────────────────────────────

// WebhookSink POSTs each quote request as JSON to a URL. Any non-2xx
// response is a delivery failure.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a sink posting to url with the given timeout.
func NewWebhookSink(url string, timeout time.Duration) *WebhookSink {
	return &WebhookSink{url: url, client: &http.Client{Timeout: timeout}}
}

// Submit posts req to the webhook.
func (s *WebhookSink) Submit(ctx context.Context, req model.QuoteRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("webhook: encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.Reference)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
