package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscore-cli/internal/resilience"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
	} `json:"results"`
}

// GoogleProvider geocodes with the Google Geocoding API.
type GoogleProvider struct {
	base
	key string
}

// NewGoogleProvider creates a provider for the given API key.
func NewGoogleProvider(key string, opts ...Option) *GoogleProvider {
	return &GoogleProvider{base: newBase(googleGeocodeURL, 10, opts), key: key}
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return "google" }

// Geocode implements Provider.
func (p *GoogleProvider) Geocode(ctx context.Context, addr Address) (*Result, error) {
	if addr.Empty() {
		return &Result{Source: p.Name()}, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: google rate limit")
	}

	params := url.Values{"address": {addr.OneLine()}, "key": {p.key}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := resilience.CheckResponse("geocode: google", resp); err != nil {
		return nil, err
	}

	var gr googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}
	switch gr.Status {
	case "OK":
	case "ZERO_RESULTS":
		return &Result{Source: p.Name()}, nil
	case "OVER_QUERY_LIMIT":
		return nil, resilience.NewTransientError(eris.New("geocode: google over query limit"), http.StatusTooManyRequests)
	default:
		return nil, eris.Errorf("geocode: google status %s", gr.Status)
	}
	if len(gr.Results) == 0 {
		return &Result{Source: p.Name()}, nil
	}

	r := gr.Results[0]
	return &Result{
		Latitude:  r.Geometry.Location.Lat,
		Longitude: r.Geometry.Location.Lng,
		Source:    p.Name(),
		Quality:   googleQuality(r.Geometry.LocationType),
		Matched:   true,
	}, nil
}

func googleQuality(locType string) string {
	switch strings.ToUpper(locType) {
	case "ROOFTOP":
		return "rooftop"
	case "RANGE_INTERPOLATED":
		return "range"
	case "GEOMETRIC_CENTER":
		return "centroid"
	default:
		return "approximate"
	}
}
