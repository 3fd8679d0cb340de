package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/villagetaxi/farequote/internal/model"
)

// PostcodesIO looks postcodes up against the postcodes.io REST API.
type PostcodesIO struct {
	baseURL string
	client  *http.Client
}

// NewPostcodesIO creates a client for baseURL (e.g. https://api.postcodes.io).
// timeout bounds each lookup; zero means no client-side limit.
func NewPostcodesIO(baseURL string, timeout time.Duration) *PostcodesIO {
	return &PostcodesIO{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type postcodesResponse struct {
	Status int              `json:"status"`
	Error  string           `json:"error"`
	Result *postcodesResult `json:"result"`
}

type postcodesResult struct {
	Postcode      string   `json:"postcode"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	AdminDistrict *string  `json:"admin_district"`
}

// Lookup resolves one postcode.
func (p *PostcodesIO) Lookup(ctx context.Context, postcode string) (model.GeocodedPostcode, error) {
	pc := normalize(postcode)
	if pc == "" {
		return model.GeocodedPostcode{}, ErrNotFound
	}

	endpoint := p.baseURL + "/postcodes/" + url.PathEscape(pc)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.GeocodedPostcode{}, fmt.Errorf("postcodes.io: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return model.GeocodedPostcode{}, fmt.Errorf("postcodes.io: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return model.GeocodedPostcode{}, fmt.Errorf("%w: %s", ErrNotFound, pc)
	case resp.StatusCode != http.StatusOK:
		return model.GeocodedPostcode{}, fmt.Errorf("postcodes.io: unexpected status %d", resp.StatusCode)
	}

	var body postcodesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.GeocodedPostcode{}, fmt.Errorf("postcodes.io: decode: %w", err)
	}
	r := body.Result
	if r == nil || r.Latitude == nil || r.Longitude == nil {
		return model.GeocodedPostcode{}, fmt.Errorf("%w: %s has no coordinates", ErrNotFound, pc)
	}

	out := model.GeocodedPostcode{
		Postcode:   r.Postcode,
		Coordinate: model.GeoCoordinate{Latitude: *r.Latitude, Longitude: *r.Longitude},
		Area:       UnknownArea,
	}
	if out.Postcode == "" {
		out.Postcode = pc
	}
	if r.AdminDistrict != nil && *r.AdminDistrict != "" {
		out.Area = *r.AdminDistrict
	}
	return out, nil
}
