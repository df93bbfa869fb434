package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *clock) {
	c := &clock{t: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("test", cfg)
	cb.now = c.now
	return cb, c
}

func fail(context.Context) (int, error) { return 0, errUpstream }
func succeed(context.Context) (int, error) { return 1, nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, Timeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := Execute(ctx, cb, fail)
		require.ErrorIs(t, err, errUpstream)
	}
	assert.Equal(t, CircuitOpen, cb.State())

	called := false
	_, err := Execute(ctx, cb, func(context.Context) (int, error) {
		called = true
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, int64(1), cb.Stats().TotalRejected)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute})
	ctx := context.Background()

	_, _ = Execute(ctx, cb, fail)
	_, _ = Execute(ctx, cb, succeed)
	_, _ = Execute(ctx, cb, fail)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clk := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Second})
	ctx := context.Background()

	_, _ = Execute(ctx, cb, fail)
	require.Equal(t, CircuitOpen, cb.State())

	clk.advance(11 * time.Second)
	v, err := Execute(ctx, cb, succeed)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	_, _ = Execute(ctx, cb, succeed)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clk := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Second})
	ctx := context.Background()

	_, _ = Execute(ctx, cb, fail)
	clk.advance(11 * time.Second)
	_, _ = Execute(ctx, cb, fail)
	assert.Equal(t, CircuitOpen, cb.State())

	_, err := Execute(ctx, cb, succeed)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_IsFailureFilter(t *testing.T) {
	notFound := errors.New("not found")
	cb, _ := newTestBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
		IsFailure:        func(err error) bool { return !errors.Is(err, notFound) },
	})

	_, err := Execute(context.Background(), cb, func(context.Context) (int, error) { return 0, notFound })
	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, int64(0), cb.Stats().TotalFailures)
}

func TestCircuitBreaker_CanceledContextNotCounted(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Execute(ctx, cb, func(ctx context.Context) (int, error) { return 0, ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_ResetAndStats(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Minute})
	_, _ = Execute(context.Background(), cb, fail)
	_, _ = Execute(context.Background(), cb, succeed)

	stats := cb.Stats()
	assert.Equal(t, "test", stats.Name)
	assert.Equal(t, int64(2), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.TotalFailures)
	assert.InDelta(t, 50.0, stats.FailureRate(), 1e-9)

	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Zero(t, CircuitBreakerStats{}.FailureRate())
}

func TestNewCircuitBreaker_ClampsThresholds(t *testing.T) {
	cb := NewCircuitBreaker("x", CircuitBreakerConfig{})
	assert.Equal(t, 1, cb.config.FailureThreshold)
	assert.Equal(t, 1, cb.config.SuccessThreshold)
}

func TestHealthMonitor_WorstStatusWins(t *testing.T) {
	m := NewHealthMonitor()
	m.RegisterComponent("a", func(context.Context) ComponentHealth {
		return ComponentHealth{Status: HealthStatusHealthy}
	})
	m.RegisterComponent("b", func(context.Context) ComponentHealth {
		return ComponentHealth{Status: HealthStatusDegraded, Message: "slow"}
	})

	h := m.Check(context.Background())
	assert.Equal(t, HealthStatusDegraded, h.Status)
	require.Len(t, h.Components, 2)
	assert.Equal(t, "a", h.Components[0].Name)
	assert.Equal(t, "b", h.Components[1].Name)

	m.RegisterComponent("c", func(context.Context) ComponentHealth {
		return ComponentHealth{Status: HealthStatusUnhealthy}
	})
	assert.Equal(t, HealthStatusUnhealthy, m.Check(context.Background()).Status)
}

func TestHealthMonitor_EmptyIsHealthy(t *testing.T) {
	h := NewHealthMonitor().Check(context.Background())
	assert.Equal(t, HealthStatusHealthy, h.Status)
	assert.Empty(t, h.Components)
}

func TestCircuitHealthCheck(t *testing.T) {
	cb, clk := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Second})
	check := CircuitHealthCheck(cb)

	assert.Equal(t, HealthStatusHealthy, check(context.Background()).Status)

	_, _ = Execute(context.Background(), cb, fail)
	h := check(context.Background())
	assert.Equal(t, HealthStatusDegraded, h.Status)
	assert.Equal(t, "upstream circuit open", h.Message)

	clk.advance(2 * time.Second)
	_, _ = Execute(context.Background(), cb, succeed)
	assert.Equal(t, "upstream recovering", check(context.Background()).Message)
}
