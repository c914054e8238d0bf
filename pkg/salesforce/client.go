// Package salesforce reads contacts, activity and deal data from Salesforce
// and writes lead scores back through the Collections API.
package salesforce

import (
	"context"
	"encoding/json"
	"maps"
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client is the subset of the Salesforce REST API the scorer uses.
type Client interface {
	Query(ctx context.Context, soql string, out any) error
	UpdateCollection(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error)
	DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error)
}

// CollectionRecord is one record of a collection update.
type CollectionRecord struct {
	ID     string         `json:"Id"`
	Fields map[string]any `json:"fields"`
}

// CollectionResult is the per-record outcome of a collection update.
type CollectionResult struct {
	ID      string   `json:"id"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// SObjectField describes one field of an SObject.
type SObjectField struct {
	Name       string `json:"name"`
	Label      string `json:"label"`
	Type       string `json:"type"`
	Length     int    `json:"length"`
	Updateable bool   `json:"updateable"`
}

// SObjectDescription is the describe metadata of an SObject.
type SObjectDescription struct {
	Name   string         `json:"name"`
	Label  string         `json:"label"`
	Fields []SObjectField `json:"fields"`
}

// Credentials configure JWT bearer authentication.
type Credentials struct {
	LoginURL string
	Username string
	ClientID string
	KeyPath  string
}

// Connect authenticates with the JWT bearer flow and returns a Client.
func Connect(creds Credentials, opts ...ClientOption) (Client, error) {
	pemData, err := os.ReadFile(creds.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "sf: read JWT private key")
	}
	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         creds.LoginURL,
		Username:       creds.Username,
		ConsumerKey:    creds.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "sf: init")
	}
	return NewClient(sf, opts...), nil
}

// ClientOption configures the client.
type ClientOption func(*sfClient)

// WithRateLimit caps API calls per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *sfClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// sfClient adapts go-salesforce. The library takes no context, so ctx only
// bounds the rate-limiter wait.
type sfClient struct {
	sf      *salesforce.Salesforce
	limiter *rate.Limiter
}

// NewClient wraps an initialized go-salesforce instance.
func NewClient(sf *salesforce.Salesforce, opts ...ClientOption) Client {
	c := &sfClient{sf: sf}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *sfClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return eris.Wrap(c.limiter.Wait(ctx), "sf: rate limit")
}

func (c *sfClient) Query(ctx context.Context, soql string, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return eris.Wrap(c.sf.Query(soql, out), "sf: query")
}

func (c *sfClient) UpdateCollection(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		m := maps.Clone(rec.Fields)
		if m == nil {
			m = make(map[string]any, 1)
		}
		m["Id"] = rec.ID
		rows[i] = m
	}

	res, err := c.sf.UpdateCollection(sObjectName, rows, maxBatchSize)
	if err != nil {
		return nil, eris.Wrapf(err, "sf: update collection %s", sObjectName)
	}
	out := make([]CollectionResult, len(res.Results))
	for i, r := range res.Results {
		var msgs []string
		for _, e := range r.Errors {
			msgs = append(msgs, e.Message)
		}
		out[i] = CollectionResult{ID: r.Id, Success: r.Success, Errors: msgs}
	}
	return out, nil
}

func (c *sfClient) DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.sf.DoRequest("GET", "/sobjects/"+name+"/describe", nil)
	if err != nil {
		return nil, eris.Wrapf(err, "sf: describe %s", name)
	}
	defer resp.Body.Close() //nolint:errcheck

	var desc SObjectDescription
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return nil, eris.Wrapf(err, "sf: decode describe %s", name)
	}
	return &desc, nil
}
