// Package handler contains HTTP request handlers for the fare quoting API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/villagetaxi/farequote/internal/service"
)

// maxBodyBytes caps request bodies; every request here is a small form.
const maxBodyBytes = 64 << 10

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON is a helper that writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a size-limited JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_json",
			Message: err.Error(),
		})
		return false
	}
	return true
}

// writeServiceError maps service sentinel errors to HTTP responses.
//
//	400  missing or malformed input
//	422  well-formed input the business rules refuse
//	502  an upstream (geocoder, delivery sink) failed
//	500  anything else
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrMissingInput):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing_input", Message: err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_input", Message: err.Error()})
	case errors.Is(err, service.ErrPastDateTime):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "past_date_time",
			Message: "Please select a future date and time.",
		})
	case errors.Is(err, service.ErrOutOfLicenceArea):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "out_of_licence_area", Message: err.Error()})
	case errors.Is(err, service.ErrDistanceOutOfRange):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "distance_out_of_range", Message: err.Error()})
	case errors.Is(err, service.ErrGeocodingFailed):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "geocoding_failed", Message: err.Error()})
	case errors.Is(err, service.ErrSubmissionFailed):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "submission_failed",
			Message: "Your request could not be sent. Please try again or call us.",
		})
	default:
		log.Error("unhandled service error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}
}
