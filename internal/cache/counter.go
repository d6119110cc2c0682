package cache

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Counter increments a key inside a fixed window and returns the new count.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

var incrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

type RedisCounter struct {
	rdb redis.UniversalClient
}

func NewRedisCounter(rdb redis.UniversalClient) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	return incrScript.Run(ctx, c.rdb, []string{"rezervi:rl:" + key}, window.Milliseconds()).Int64()
}

// LocalCounter is the in-process fallback used when Redis is not configured.
type LocalCounter struct {
	mu      sync.Mutex
	windows map[string]localWindow
	now     func() time.Time
}

type localWindow struct {
	count   int64
	expires time.Time
}

func NewLocalCounter() *LocalCounter {
	return &LocalCounter{windows: map[string]localWindow{}, now: time.Now}
}

func (c *LocalCounter) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	w, ok := c.windows[key]
	if !ok || !now.Before(w.expires) {
		w = localWindow{expires: now.Add(window)}
	}
	w.count++
	c.windows[key] = w

	if len(c.windows) > 10000 {
		for k, v := range c.windows {
			if !now.Before(v.expires) {
				delete(c.windows, k)
			}
		}
	}
	return w.count, nil
}

var (
	_ Counter = (*RedisCounter)(nil)
	_ Counter = (*LocalCounter)(nil)
)
