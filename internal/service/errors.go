// Package service implements fare quoting, route usage tracking and quote
// request submission.
package service

import "errors"

// ─── Quote Errors ───────────────────────────────────────────

var (
	// ErrMissingInput is returned when a required field is empty.
	ErrMissingInput = errors.New("missing input")

	// ErrInvalidInput is returned when a field is present but malformed
	// (unparseable date, time or number).
	ErrInvalidInput = errors.New("invalid input")

	// ErrPastDateTime is returned when the travel moment is earlier than now.
	ErrPastDateTime = errors.New("travel date and time are in the past")

	// ErrOutOfLicenceArea is returned when the pickup postcode is outside
	// the licensed districts.
	ErrOutOfLicenceArea = errors.New("pickup postcode is outside the licence area")

	// ErrGeocodingFailed is returned when the pickup or destination postcode
	// could not be resolved, including network failures of the provider.
	ErrGeocodingFailed = errors.New("postcode lookup failed")

	// ErrDistanceOutOfRange is returned when a manually entered distance is
	// outside the accepted bounds.
	ErrDistanceOutOfRange = errors.New("distance out of range")
)

// ─── Submission Errors ──────────────────────────────────────

// ErrSubmissionFailed is returned when a quote request could not be handed
// to the delivery sink.
var ErrSubmissionFailed = errors.New("quote request could not be delivered")
