package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/villagetaxi/farequote/internal/service"
)

// PostcodeQuoteRequest is the JSON body for POST /api/v1/quotes/postcode.
type PostcodeQuoteRequest struct {
	Pickup      string `json:"pickup"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// DistanceQuoteRequest is the JSON body for POST /api/v1/quotes/distance.
// DistanceMiles is a pointer so an absent field is told apart from zero.
type DistanceQuoteRequest struct {
	DistanceMiles *float64 `json:"distance_miles"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
}

// QuoteHandler handles fare quote HTTP requests.
type QuoteHandler struct {
	quotes *service.QuoteService
	log    *zap.Logger
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(quotes *service.QuoteService, log *zap.Logger) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, log: log.Named("handler")}
}

// QuoteByPostcode handles POST /api/v1/quotes/postcode
//
// Request body:
//
//	{"pickup": "TN31 7AB", "destination": "TN34 1AA", "date": "2025-06-02", "time": "10:30"}
//
// Response: JourneyQuote.
func (h *QuoteHandler) QuoteByPostcode(w http.ResponseWriter, r *http.Request) {
	var req PostcodeQuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quote, err := h.quotes.QuoteByPostcodes(r.Context(), req.Pickup, req.Destination, req.Date, req.Time)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// QuoteByDistance handles POST /api/v1/quotes/distance
//
// Request body:
//
//	{"distance_miles": 12.2, "date": "2025-06-02", "time": "23:30"}
//
// Response: JourneyQuote with "Manual Entry" as pickup and destination.
func (h *QuoteHandler) QuoteByDistance(w http.ResponseWriter, r *http.Request) {
	var req DistanceQuoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DistanceMiles == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "missing_input",
			Message: "distance_miles is required",
		})
		return
	}

	quote, err := h.quotes.QuoteByDistance(r.Context(), *req.DistanceMiles, req.Date, req.Time)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
