// Package companydata looks up financial and industry data for Swedish
// companies by organisation number or name.
package companydata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadscore-cli/internal/resilience"
)

const defaultBaseURL = "https://api.companydata.se/v1"

// ErrNotFound is returned when the registry has no matching company.
var ErrNotFound = eris.New("companydata: company not found")

// Company is the registry record. Numeric fields are nil when the registry
// does not report them.
type Company struct {
	OrgNumber string   `json:"org_number"`
	Name      string   `json:"name"`
	Industry  string   `json:"industry,omitempty"`
	Revenue   *float64 `json:"revenue,omitempty"`
	CAGR3Y    *float64 `json:"cagr_3y,omitempty"`
	Employees *int     `json:"employees,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
}

// Query identifies a company. OrgNumber wins when both are set.
type Query struct {
	OrgNumber string
	Name      string
}

// Key returns a stable cache key for the query.
func (q Query) Key() string {
	if q.OrgNumber != "" {
		return "org:" + normalizeOrgNumber(q.OrgNumber)
	}
	return "name:" + strings.ToLower(strings.TrimSpace(q.Name))
}

// Client looks up companies.
type Client interface {
	Lookup(ctx context.Context, q Query) (*Company, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient overrides the http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a company data client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(5, 5),
		retry:   resilience.ForService("companydata", "lookup"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Results []Company `json:"results"`
}

func (c *httpClient) Lookup(ctx context.Context, q Query) (*Company, error) {
	var path string
	switch {
	case q.OrgNumber != "":
		path = "/companies/" + url.PathEscape(normalizeOrgNumber(q.OrgNumber))
	case strings.TrimSpace(q.Name) != "":
		path = "/companies?" + url.Values{"name": {strings.TrimSpace(q.Name)}, "limit": {"1"}}.Encode()
	default:
		return nil, eris.New("companydata: org number or name is required")
	}

	co, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*Company, error) {
		return c.get(ctx, path, q.OrgNumber != "")
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "companydata: lookup %s", q.Key())
	}
	return co, nil
}

func (c *httpClient) get(ctx context.Context, path string, single bool) (*Company, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "companydata: rate limit")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, eris.Wrap(err, "companydata: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "companydata: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err := resilience.CheckResponse("companydata", resp); err != nil {
		return nil, err
	}

	if single {
		var co Company
		if err := json.NewDecoder(resp.Body).Decode(&co); err != nil {
			return nil, eris.Wrap(err, "companydata: decode company")
		}
		return &co, nil
	}
	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, eris.Wrap(err, "companydata: decode search")
	}
	if len(sr.Results) == 0 {
		return nil, ErrNotFound
	}
	return &sr.Results[0], nil
}

// normalizeOrgNumber strips everything but digits, so "556677-8899" and
// "5566778899" address the same company.
func normalizeOrgNumber(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
