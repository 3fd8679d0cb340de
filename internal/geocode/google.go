package geocode

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/villagetaxi/farequote/internal/model"
)

// GoogleGeocoder looks postcodes up with the Google Maps Geocoding API,
// restricted to UK postal codes.
type GoogleGeocoder struct {
	client *maps.Client
}

// NewGoogleGeocoder creates a geocoder with the given API key. Extra client
// options (base URL, rate limit) are passed through.
func NewGoogleGeocoder(apiKey string, opts ...maps.ClientOption) (*GoogleGeocoder, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleGeocoder{client: client}, nil
}

// Lookup resolves one postcode.
func (g *GoogleGeocoder) Lookup(ctx context.Context, postcode string) (model.GeocodedPostcode, error) {
	pc := normalize(postcode)
	if pc == "" {
		return model.GeocodedPostcode{}, ErrNotFound
	}

	r := &maps.GeocodingRequest{
		Components: map[maps.Component]string{
			maps.ComponentPostalCode: pc,
			maps.ComponentCountry:    "GB",
		},
		Region: "uk",
	}

	results, err := g.client.Geocode(ctx, r)
	if err != nil {
		return model.GeocodedPostcode{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(results) == 0 {
		return model.GeocodedPostcode{}, fmt.Errorf("%w: %s", ErrNotFound, pc)
	}

	best := results[0]
	out := model.GeocodedPostcode{
		Postcode: pc,
		Coordinate: model.GeoCoordinate{
			Latitude:  best.Geometry.Location.Lat,
			Longitude: best.Geometry.Location.Lng,
		},
		Area: UnknownArea,
	}
	for _, c := range best.AddressComponents {
		for _, t := range c.Types {
			switch t {
			case "postal_code":
				out.Postcode = c.LongName
			case "administrative_area_level_2", "postal_town":
				if out.Area == UnknownArea {
					out.Area = c.LongName
				}
			}
		}
	}
	return out, nil
}
