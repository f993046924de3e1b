package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindow runs atomically on the server.
// KEYS[1] = counter key; ARGV[1] = max; ARGV[2] = window in ms.
// Returns {allowed, count, pttl}.
var fixedWindow = redis.NewScript(`
local max = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if cur >= max then
  local ttl = redis.call('PTTL', KEYS[1])
  if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], window)
    ttl = window
  end
  return {0, cur, ttl}
end
cur = redis.call('INCR', KEYS[1])
if cur == 1 or redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], window)
end
return {1, cur, redis.call('PTTL', KEYS[1])}
`)

// RedisOptions locates the shared counter store.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisCounter is a Counter shared by every instance pointing at the same
// Redis. Expired windows disappear with their keys.
type RedisCounter struct {
	client redis.UniversalClient
	opts   Options
	prefix string
	now    func() time.Time
	owned  bool
}

// NewRedisCounter dials Redis with the given options.
func NewRedisCounter(opts Options, ro RedisOptions) (*RedisCounter, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         ro.Addr,
		Password:     ro.Password,
		DB:           ro.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	c := NewRedisCounterFromClient(rdb, opts, ro.KeyPrefix)
	c.owned = true
	return c, nil
}

// NewRedisCounterFromClient wraps an existing client. The caller keeps
// ownership of it. opts must already be valid.
func NewRedisCounterFromClient(client redis.UniversalClient, opts Options, prefix string) *RedisCounter {
	return &RedisCounter{client: client, opts: opts, prefix: prefix, now: time.Now}
}

// Ping checks connectivity.
func (c *RedisCounter) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Allow implements Counter.
func (c *RedisCounter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := fixedWindow.Run(ctx, c.client,
		[]string{c.prefix + key},
		c.opts.Max, c.opts.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis script: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script reply %v", res)
	}
	count := int(res[1])
	ttl := time.Duration(res[2]) * time.Millisecond
	if ttl < 0 {
		ttl = 0
	}
	return Decision{
		Allowed:   res[0] == 1,
		Count:     count,
		Remaining: remaining(c.opts.Max, count),
		ResetAt:   c.now().Add(ttl),
	}, nil
}

// Close closes the client when this counter created it.
func (c *RedisCounter) Close() error {
	if c.owned && c.client != nil {
		return c.client.Close()
	}
	return nil
}
