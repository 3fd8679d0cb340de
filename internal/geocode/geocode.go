// Package geocode resolves UK postcodes to coordinates.
//
// Two providers are available: the public postcodes.io API and the Google
// Maps geocoder. Either can be wrapped in a Redis-backed cache.
package geocode

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when the provider has no usable location for a
// postcode. Transport and provider failures are returned as other errors.
var ErrNotFound = errors.New("postcode not found")

// UnknownArea is reported when the provider gives no administrative district.
const UnknownArea = "Unknown"

// normalize upper-cases and trims a postcode for lookup and cache keys.
func normalize(postcode string) string {
	return strings.ToUpper(strings.TrimSpace(postcode))
}
