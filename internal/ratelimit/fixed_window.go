// Package ratelimit counts events per key in fixed time windows.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter increments the counter for key and returns the new value. The
// counter expires after window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

var windowCounterScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RedisCounter shares counts between replicas.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter connects lazily; the first Incr reports connection errors.
func NewRedisCounter(addr, password string) (*RedisCounter, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	return &RedisCounter{client: redis.NewClient(&redis.Options{Addr: addr, Password: password})}, nil
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	return windowCounterScript.Run(ctx, c.client, []string{key}, window.Milliseconds()).Int64()
}

// Close releases the connection pool.
func (c *RedisCounter) Close() error {
	return c.client.Close()
}

// MemoryCounter keeps counts in process. Expired keys are pruned on write.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	count   int64
	expires time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	e, ok := c.entries[key]
	if !ok {
		e = memoryEntry{expires: now.Add(window)}
	}
	e.count++
	c.entries[key] = e
	return e.count, nil
}

// FixedWindowLimiter allows at most limit events per key per window.
type FixedWindowLimiter struct {
	counter Counter
	prefix  string
	limit   int64
	window  time.Duration
	now     func() time.Time
}

// NewFixedWindowLimiter builds a limiter over counter. prefix namespaces the
// keys so several limiters can share one Redis.
func NewFixedWindowLimiter(counter Counter, prefix string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	if counter == nil {
		return nil, errors.New("rate limiter requires a counter")
	}
	if limit <= 0 || window < time.Millisecond {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "alliancedash:ratelimit"
	}
	return &FixedWindowLimiter{counter: counter, prefix: prefix, limit: int64(limit), window: window, now: time.Now}, nil
}

// Allow reports whether key is still within quota. Counter failures deny.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil {
		return false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	slot := l.now().UTC().UnixMilli() / l.window.Milliseconds()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := l.counter.Incr(ctx, fmt.Sprintf("%s:%s:%d", l.prefix, key, slot), l.window)
	if err != nil {
		return false
	}
	return count <= l.limit
}

// Window is the length of one counting window.
func (l *FixedWindowLimiter) Window() time.Duration {
	return l.window
}
