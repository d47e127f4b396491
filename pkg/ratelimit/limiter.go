package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrLimitExceeded      = errors.New("rate limit exceeded")
	ErrLimiterUnavailable = errors.New("rate limiter unavailable")
)

// FixedWindow counts hits per key in windows that start with the first hit.
type FixedWindow struct {
	redis  *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewFixedWindow(client *redis.Client, prefix string, limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		redis:  client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (l *FixedWindow) key(key string) string {
	return l.prefix + ":" + key
}

// Allow counts a hit for key. The window TTL is set in the same transaction
// that creates the counter, so a counter never outlives its window.
func (l *FixedWindow) Allow(ctx context.Context, key string) error {
	k := l.key(key)

	var incr *redis.IntCmd

	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, k, 0, l.window)
		incr = pipe.Incr(ctx, k)

		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	if incr.Val() > int64(l.limit) {
		return ErrLimitExceeded
	}

	return nil
}

func (l *FixedWindow) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	return nil
}

func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
