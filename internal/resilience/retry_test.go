package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   bool
	}{
		{name: "first attempt", failures: 0, wantCalls: 1},
		{name: "recovers after transient", failures: 2, err: NewTransientError(errors.New("503"), 503), wantCalls: 3},
		{name: "exhausts attempts", failures: 5, err: NewTransientError(errors.New("503"), 503), wantCalls: 3, wantErr: true},
		{name: "permanent error", failures: 5, err: errors.New("bad request"), wantCalls: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Do(context.Background(), fastRetry(3), func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	cfg := fastRetry(5)
	cfg.InitialBackoff = time.Second

	err := Do(ctx, cfg, func(context.Context) error {
		calls++
		cancel()
		return NewTransientError(errors.New("timeout"), 504)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_HooksAndOverride(t *testing.T) {
	var attempts []int
	cfg := fastRetry(3)
	cfg.ShouldRetry = func(error) bool { return true }
	cfg.OnRetry = func(attempt int, _ error) { attempts = append(attempts, attempt) }

	err := Do(context.Background(), cfg, func(context.Context) error {
		return errors.New("always")
	})
	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDoVal(t *testing.T) {
	calls := 0
	v, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, NewTransientError(errors.New("429"), 429)
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = DoVal(context.Background(), fastRetry(2), func(context.Context) (int, error) {
		return 7, errors.New("nope")
	})
	require.Error(t, err)
	assert.Zero(t, v)
}

func TestComputeBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, computeBackoff(0, cfg))
	assert.Equal(t, 200*time.Millisecond, computeBackoff(1, cfg))
	assert.Equal(t, 400*time.Millisecond, computeBackoff(2, cfg))
	assert.Equal(t, time.Second, computeBackoff(10, cfg))

	cfg.JitterFraction = 0.5
	for range 50 {
		d := computeBackoff(0, cfg)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestForService(t *testing.T) {
	cfg := ForService("companydata", "lookup")
	assert.Equal(t, 3, cfg.MaxAttempts)
	require.NotNil(t, cfg.OnRetry)
	cfg.OnRetry(1, errors.New("x"))
}
