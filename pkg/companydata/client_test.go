package companydata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscore-cli/internal/resilience"
)

var fastRetry = resilience.RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: time.Millisecond,
	MaxBackoff:     5 * time.Millisecond,
}

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL+"/"), WithRateLimit(100), WithRetry(fastRetry))
}

func TestLookup_ByOrgNumber(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies/5566778899", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"org_number":"5566778899","name":"Acme AB","industry":"Software","revenue":120000000,"cagr_3y":0.12,"employees":85}`))
	})

	co, err := c.Lookup(context.Background(), Query{OrgNumber: "556677-8899", Name: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "Acme AB", co.Name)
	require.NotNil(t, co.Revenue)
	assert.InDelta(t, 120e6, *co.Revenue, 0.1)
	require.NotNil(t, co.CAGR3Y)
	assert.InDelta(t, 0.12, *co.CAGR3Y, 1e-9)
	assert.Equal(t, 85, *co.Employees)
	assert.Nil(t, co.Rating)
}

func TestLookup_ByName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies", r.URL.Path)
		assert.Equal(t, "Acme AB", r.URL.Query().Get("name"))
		_, _ = w.Write([]byte(`{"results":[{"org_number":"5566778899","name":"Acme AB"}]}`))
	})

	co, err := c.Lookup(context.Background(), Query{Name: " Acme AB "})
	require.NoError(t, err)
	assert.Equal(t, "5566778899", co.OrgNumber)
}

func TestLookup_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		handler http.HandlerFunc
	}{
		{
			name:    "404",
			query:   Query{OrgNumber: "1"},
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) },
		},
		{
			name:    "empty search",
			query:   Query{Name: "Nobody AB"},
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"results":[]}`)) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(t, tt.handler).Lookup(context.Background(), tt.query)
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestLookup_RetriesTransient(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"org_number":"1","name":"A"}`))
	})

	_, err := c.Lookup(context.Background(), Query{OrgNumber: "1"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestLookup_PermanentError(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`invalid key`))
	})

	_, err := c.Lookup(context.Background(), Query{OrgNumber: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "companydata: status 401")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestLookup_EmptyQuery(t *testing.T) {
	_, err := NewClient("k").Lookup(context.Background(), Query{Name: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "org number or name is required")
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "org:5566778899", Query{OrgNumber: "556677-8899", Name: "x"}.Key())
	assert.Equal(t, "name:acme ab", Query{Name: " Acme AB "}.Key())
}
