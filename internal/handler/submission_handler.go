package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/villagetaxi/farequote/internal/model"
	"github.com/villagetaxi/farequote/internal/service"
)

// QuoteRequestBody is the JSON body for POST /api/v1/quote-requests.
type QuoteRequestBody struct {
	Quote         model.JourneyQuote `json:"quote"`
	Name          string             `json:"name"`
	Email         string             `json:"email"`
	Phone         string             `json:"phone"`
	ContactMethod string             `json:"contact_method"`
}

// QuoteRequestAccepted is returned once a quote request has been delivered.
type QuoteRequestAccepted struct {
	Reference   string    `json:"reference"`
	SubmittedAt time.Time `json:"submitted_at"`
	Message     string    `json:"message"`
}

// SubmissionHandler handles quote request submissions.
type SubmissionHandler struct {
	submissions *service.SubmissionService
	log         *zap.Logger
}

// NewSubmissionHandler creates a new submission handler.
func NewSubmissionHandler(submissions *service.SubmissionService, log *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, log: log.Named("handler")}
}

// SubmitQuoteRequest handles POST /api/v1/quote-requests
//
// The body carries the quote previously returned by one of the quote
// endpoints plus the customer's contact details.
func (h *SubmissionHandler) SubmitQuoteRequest(w http.ResponseWriter, r *http.Request) {
	var body QuoteRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	accepted, err := h.submissions.Submit(r.Context(), model.QuoteRequest{
		Quote:         body.Quote,
		Name:          body.Name,
		Email:         body.Email,
		Phone:         body.Phone,
		ContactMethod: body.ContactMethod,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, QuoteRequestAccepted{
		Reference:   accepted.Reference,
		SubmittedAt: accepted.SubmittedAt,
		Message:     "Thank you. We will contact you shortly to confirm your booking.",
	})
}
