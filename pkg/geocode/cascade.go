package geocode

import (
	"context"

	"go.uber.org/zap"
)

// CascadeClient tries providers in order until one matches. Provider errors
// are logged and skipped; if every provider misses, the result is unmatched.
type CascadeClient struct {
	providers []Provider
}

// NewCascadeClient creates a client over providers. Nil entries are skipped.
func NewCascadeClient(providers ...Provider) *CascadeClient {
	c := &CascadeClient{}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Providers returns the provider names in cascade order.
func (c *CascadeClient) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Name implements Provider.
func (c *CascadeClient) Name() string { return "cascade" }

// Geocode implements Provider.
func (c *CascadeClient) Geocode(ctx context.Context, addr Address) (*Result, error) {
	for _, p := range c.providers {
		res, err := p.Geocode(ctx, addr)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Debug("geocode: provider failed, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}
		if res != nil && res.Matched {
			return res, nil
		}
	}
	return &Result{Source: c.Name()}, nil
}
