package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscore-cli/internal/resilience"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org"

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	AddressType string `json:"addresstype"`
}

// NominatimProvider geocodes with OpenStreetMap Nominatim. The public
// instance allows one request per second and requires a User-Agent.
type NominatimProvider struct {
	base
	userAgent string
}

// NewNominatimProvider creates a provider that identifies itself as userAgent.
func NewNominatimProvider(userAgent string, opts ...Option) *NominatimProvider {
	return &NominatimProvider{base: newBase(defaultNominatimURL, 1, opts), userAgent: userAgent}
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Geocode implements Provider.
func (p *NominatimProvider) Geocode(ctx context.Context, addr Address) (*Result, error) {
	if addr.Empty() {
		return &Result{Source: p.Name()}, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim rate limit")
	}

	params := url.Values{"format": {"jsonv2"}, "limit": {"1"}}
	for k, v := range map[string]string{
		"street":     addr.Street,
		"city":       addr.City,
		"postalcode": addr.PostalCode,
		"country":    addr.Country,
	} {
		if v != "" {
			params.Set(k, v)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim build request")
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := resilience.CheckResponse("geocode: nominatim", resp); err != nil {
		return nil, err
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}
	if len(places) == 0 {
		return &Result{Source: p.Name()}, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim lat %q", places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim lon %q", places[0].Lon)
	}
	return &Result{
		Latitude:  lat,
		Longitude: lon,
		Source:    p.Name(),
		Quality:   nominatimQuality(places[0].AddressType),
		Matched:   true,
	}, nil
}

func nominatimQuality(addressType string) string {
	switch addressType {
	case "building", "house", "amenity", "office":
		return "rooftop"
	case "road":
		return "range"
	case "postcode", "suburb", "neighbourhood", "quarter":
		return "centroid"
	default:
		return "approximate"
	}
}
