// Package geocode resolves postal addresses to coordinates through Google
// Geocoding and OpenStreetMap Nominatim.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Address is a postal address to geocode.
type Address struct {
	Street     string
	City       string
	PostalCode string
	Country    string
}

// OneLine joins the non-empty parts with commas.
func (a Address) OneLine() string {
	var parts []string
	for _, p := range []string{a.Street, strings.TrimSpace(a.PostalCode + " " + a.City), a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Empty reports whether there is nothing to geocode.
func (a Address) Empty() bool {
	return strings.TrimSpace(a.Street+a.City+a.PostalCode) == ""
}

// Result is a geocoding outcome. Matched is false when no provider found the
// address; that is not an error.
type Result struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Source    string  `json:"source"`
	Quality   string  `json:"quality"`
	Matched   bool    `json:"matched"`
}

// Provider is one geocoding backend.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, addr Address) (*Result, error)
}

// Option configures a provider.
type Option func(*base)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(b *base) {
		if u != "" {
			b.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(b *base) { b.http = hc }
}

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64) Option {
	return func(b *base) {
		if rps > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type base struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func newBase(defaultURL string, defaultRPS float64, opts []Option) base {
	b := base{
		baseURL: defaultURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(defaultRPS), max(int(defaultRPS), 1)),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}
