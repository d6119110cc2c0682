package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/domain/availability"
)

func openRedisOccupancy(t *testing.T) *RedisOccupancy {
	t.Helper()
	if testing.Short() {
		t.Skip("redis integration test skipped in short mode")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb, err := NewRedis(context.Background(), RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisOccupancy(rdb, time.Minute, zap.NewNop())
}

func TestRedisOccupancyRejectsStaleFill(t *testing.T) {
	c := openRedisOccupancy(t)
	ctx := context.Background()
	id := uuid.New()
	day := "2030-01-07"
	t.Cleanup(func() {
		c.rdb.Del(ctx, occupancyKey(id, day), generationKey(id, day))
	})
	booked := []availability.Booking{{Date: day, Start: "09:00", Status: "pending"}}

	_, gen, ok := c.Get(ctx, id, day)
	if ok || gen != 0 {
		t.Fatalf("fresh day ok=%v gen=%d", ok, gen)
	}

	c.Invalidate(ctx, id, day)
	c.Set(ctx, id, day, gen, nil)
	if _, _, ok := c.Get(ctx, id, day); ok {
		t.Fatal("fill with an outdated generation was stored")
	}

	_, gen, _ = c.Get(ctx, id, day)
	if gen != 1 {
		t.Fatalf("gen after one invalidation = %d", gen)
	}
	c.Set(ctx, id, day, gen, booked)
	got, _, ok := c.Get(ctx, id, day)
	if !ok || len(got) != 1 || got[0].Start != "09:00" {
		t.Fatalf("current fill = %v, %v", got, ok)
	}
}
