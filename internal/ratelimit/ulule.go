package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// ULule adapts a ulule limiter to the Limiter interface.
type ULule struct {
	L *limiter.Limiter
}

// NewULule builds a limiter for a formatted rate such as "120-M" over store.
func NewULule(rate string, store limiter.Store) (ULule, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return ULule{}, fmt.Errorf("parse rate %q: %w", rate, err)
	}
	return ULule{L: limiter.New(store, parsed)}, nil
}

// NewRedisStore returns a ulule store keeping counters in Redis under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix, MaxRetry: 3})
}

// Allow implements Limiter.
func (u ULule) Allow(ctx context.Context, key string) (Decision, error) {
	if u.L == nil {
		return Decision{Allowed: true}, nil
	}
	lctx, err := u.L.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !lctx.Reached,
		Limit:     lctx.Limit,
		Remaining: lctx.Remaining,
		ResetAt:   time.Unix(lctx.Reset, 0),
	}, nil
}
