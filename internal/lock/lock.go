// Package lock provides the optional slot-key lock taken around a booking
// transaction. The database overlap check and unique index stay
// authoritative; the lock only keeps concurrent bookings for the same slot
// from queueing on the database. A caller that cannot obtain the lock still
// runs the database checks, which decide between the competing bookings.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when another holder owns the key.
var ErrNotObtained = errors.New("lock: not obtained")

// Locker obtains an exclusive lock on key. The returned release func is
// always non-nil on success and safe to call once.
type Locker interface {
	Obtain(ctx context.Context, key string) (release func(), err error)
}

type obtainer interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

// retryInterval is the pause between attempts on a contended key.
const retryInterval = 25 * time.Millisecond

// Redis is a Locker backed by bsm/redislock.
type Redis struct {
	client obtainer
	rdb    *redis.Client
	TTL    time.Duration

	// Wait bounds how long Obtain retries a contended key; zero means TTL.
	Wait time.Duration
}

// NewRedis parses a redis:// URL and returns a Locker with the given TTL.
func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	return &Redis{client: redislock.New(rdb), rdb: rdb, TTL: ttl}, nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

// Obtain retries a contended key with linear backoff for up to Wait, or
// until ctx is done, and then reports ErrNotObtained.
func (r *Redis) Obtain(ctx context.Context, key string) (func(), error) {
	l, err := r.client.Obtain(ctx, key, r.TTL, &redislock.Options{RetryStrategy: r.retryStrategy()})
	// redislock bounds retries with its own TTL deadline when ctx has none
	if errors.Is(err, redislock.ErrNotObtained) || (errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func() {
		// a lock that already expired returns ErrLockNotHeld; nothing to undo
		_ = l.Release(context.WithoutCancel(ctx))
	}, nil
}

func (r *Redis) retryStrategy() redislock.RetryStrategy {
	wait := r.Wait
	if wait <= 0 {
		wait = r.TTL
	}
	attempts := int(wait / retryInterval)
	if attempts < 1 {
		return redislock.NoRetry()
	}
	return redislock.LimitRetry(redislock.LinearBackoff(retryInterval), attempts)
}

// Noop always succeeds.
type Noop struct{}

// Obtain returns a no-op release.
func (Noop) Obtain(context.Context, string) (func(), error) { return func() {}, nil }
