package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/domain/availability"
)

// Occupancy caches the capacity-relevant bookings of one business day.
// Implementations swallow their own errors: a miss is always safe.
//
// Every day carries a generation that Invalidate bumps. A miss returns the
// generation seen before the caller reads the store, and Set only stores the
// snapshot while that generation is still current, so a fill that raced a
// write is dropped instead of resurrecting the old occupancy.
type Occupancy interface {
	Get(ctx context.Context, businessID uuid.UUID, date string) (bookings []availability.Booking, gen int64, ok bool)
	Set(ctx context.Context, businessID uuid.UUID, date string, gen int64, bookings []availability.Booking)
	Invalidate(ctx context.Context, businessID uuid.UUID, dates ...string)
}

// NoGeneration is returned when the generation could not be read. Set
// ignores it.
const NoGeneration int64 = -1

// genTTL only bounds memory; an expired generation reads as 0 and any fill
// holding an older value is rejected.
const genTTL = 24 * time.Hour

type RedisOccupancy struct {
	rdb redis.UniversalClient
	ttl time.Duration
	log *zap.Logger
}

func NewRedisOccupancy(rdb redis.UniversalClient, ttl time.Duration, log *zap.Logger) *RedisOccupancy {
	return &RedisOccupancy{rdb: rdb, ttl: ttl, log: log}
}

func occupancyKey(businessID uuid.UUID, date string) string {
	return fmt.Sprintf("rezervi:occupancy:%s:%s", businessID, date)
}

func generationKey(businessID uuid.UUID, date string) string {
	return fmt.Sprintf("rezervi:occupancy:gen:%s:%s", businessID, date)
}

// setIfCurrent writes KEYS[1] only while KEYS[2] still holds ARGV[1].
var setIfCurrent = redis.NewScript(`
local gen = redis.call("GET", KEYS[2]) or "0"
if gen ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

func (c *RedisOccupancy) Get(ctx context.Context, businessID uuid.UUID, date string) ([]availability.Booking, int64, bool) {
	vals, err := c.rdb.MGet(ctx, occupancyKey(businessID, date), generationKey(businessID, date)).Result()
	if err != nil {
		c.log.Warn("occupancy cache read failed", zap.Error(err))
		return nil, NoGeneration, false
	}

	gen, err := parseGeneration(vals[1])
	if err != nil {
		c.log.Warn("occupancy generation corrupt", zap.Error(err))
		return nil, NoGeneration, false
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, false
	}

	var bookings []availability.Booking
	if err := json.Unmarshal([]byte(raw), &bookings); err != nil {
		c.log.Warn("occupancy cache entry corrupt", zap.Error(err))
		return nil, gen, false
	}
	return bookings, gen, true
}

func parseGeneration(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func (c *RedisOccupancy) Set(ctx context.Context, businessID uuid.UUID, date string, gen int64, bookings []availability.Booking) {
	if gen < 0 {
		return
	}
	raw, err := json.Marshal(bookings)
	if err != nil {
		return
	}

	keys := []string{occupancyKey(businessID, date), generationKey(businessID, date)}
	stored, err := setIfCurrent.Run(ctx, c.rdb, keys, strconv.FormatInt(gen, 10), raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.log.Warn("occupancy cache write failed", zap.Error(err))
		return
	}
	if stored == 0 {
		c.log.Debug("occupancy fill dropped, day changed meanwhile",
			zap.Stringer("business_id", businessID),
			zap.String("date", date),
		)
	}
}

func (c *RedisOccupancy) Invalidate(ctx context.Context, businessID uuid.UUID, dates ...string) {
	if len(dates) == 0 {
		return
	}
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, d := range dates {
			gk := generationKey(businessID, d)
			p.Incr(ctx, gk)
			p.Expire(ctx, gk, genTTL)
			p.Del(ctx, occupancyKey(businessID, d))
		}
		return nil
	})
	if err != nil {
		c.log.Warn("occupancy cache invalidation failed", zap.Strings("dates", dates), zap.Error(err))
	}
}

// Local is an in-process Occupancy for a single-instance deployment.
type Local struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]localEntry
	gens    map[string]int64
}

type localEntry struct {
	bookings []availability.Booking
	expires  time.Time
}

func NewLocal(ttl time.Duration) *Local {
	return &Local{
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]localEntry{},
		gens:    map[string]int64{},
	}
}

func (c *Local) Get(_ context.Context, businessID uuid.UUID, date string) ([]availability.Booking, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := occupancyKey(businessID, date)
	gen := c.gens[key]
	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, gen, false
	}
	return append([]availability.Booking(nil), e.bookings...), gen, true
}

func (c *Local) Set(_ context.Context, businessID uuid.UUID, date string, gen int64, bookings []availability.Booking) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := occupancyKey(businessID, date)
	if gen < 0 || c.gens[key] != gen {
		return
	}
	c.entries[key] = localEntry{
		bookings: append([]availability.Booking(nil), bookings...),
		expires:  c.now().Add(c.ttl),
	}
}

func (c *Local) Invalidate(_ context.Context, businessID uuid.UUID, dates ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, d := range dates {
		key := occupancyKey(businessID, d)
		c.gens[key]++
		delete(c.entries, key)
	}
}

// Noop never caches.
type Noop struct{}

func (Noop) Get(context.Context, uuid.UUID, string) ([]availability.Booking, int64, bool) {
	return nil, NoGeneration, false
}
func (Noop) Set(context.Context, uuid.UUID, string, int64, []availability.Booking) {}
func (Noop) Invalidate(context.Context, uuid.UUID, ...string)                      {}

var (
	_ Occupancy = (*RedisOccupancy)(nil)
	_ Occupancy = (*Local)(nil)
	_ Occupancy = Noop{}
)
