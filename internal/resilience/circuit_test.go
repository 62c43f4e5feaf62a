package resilience_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-commission/internal/resilience"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestBreakerTransitions(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	breaker := resilience.NewBreaker(2, 0.5, time.Second).WithClock(clock.Now)
	ctx := context.Background()

	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)

	require.False(t, breaker.Allow(ctx), "breaker should open after threshold exceeded")
	require.Equal(t, resilience.Open, breaker.State())

	clock.Advance(time.Second)
	require.True(t, breaker.Allow(ctx), "breaker should move to half-open after cool off")
	require.Equal(t, resilience.HalfOpen, breaker.State())
	breaker.Report(ctx, true)
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	breaker := resilience.NewBreaker(1, 0.5, time.Second).WithClock(clock.Now)
	ctx := context.Background()

	breaker.Report(ctx, false)
	clock.Advance(time.Second)
	require.True(t, breaker.Allow(ctx))
	breaker.Report(ctx, false)
	require.Equal(t, resilience.Open, breaker.State())
	require.False(t, breaker.Allow(ctx))
}

func TestBreakerDo(t *testing.T) {
	breaker := resilience.NewBreaker(1, 0.5, time.Minute)
	ctx := context.Background()
	domainErr := errors.New("invoice not found")

	err := breaker.Do(ctx, func(context.Context) error { return domainErr }, func(err error) bool {
		return !errors.Is(err, domainErr)
	})
	require.ErrorIs(t, err, domainErr)
	require.Equal(t, resilience.Closed, breaker.State())

	storeErr := errors.New("connection refused")
	err = breaker.Do(ctx, func(context.Context) error { return storeErr }, nil)
	require.ErrorIs(t, err, storeErr)
	require.Equal(t, resilience.Open, breaker.State())

	called := false
	err = breaker.Do(ctx, func(context.Context) error { called = true; return nil }, nil)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.False(t, called)
}

func TestNilBreakerPassesThrough(t *testing.T) {
	var breaker *resilience.Breaker
	require.NoError(t, breaker.Do(context.Background(), func(context.Context) error { return nil }, nil))
}
