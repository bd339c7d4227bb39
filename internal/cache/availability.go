package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityCache keeps computed free-slot lists in Redis, keyed by
// doctor and calendar date. Bookings mutate availability, so every write
// path invalidates the affected keys. A nil cache is a valid no-op.
type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewAvailabilityCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *AvailabilityCache {
	if rdb == nil || ttl <= 0 {
		return nil
	}
	return &AvailabilityCache{rdb: rdb, ttl: ttl, log: log}
}

func key(doctorID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("availability:%s:%s", doctorID, day.Format("2006-01-02"))
}

// Get returns the cached slot list and whether it was present. Redis
// faults count as misses; the caller recomputes.
func (c *AvailabilityCache) Get(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, key(doctorID, day)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("availability cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var slots []string
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		return nil, false
	}
	return slots, true
}

func (c *AvailabilityCache) Put(ctx context.Context, doctorID uuid.UUID, day time.Time, slots []string) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(doctorID, day), raw, c.ttl).Err(); err != nil {
		c.log.Warn("availability cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached list for a doctor's day. Called on every
// booking, reschedule and cancellation touching that day.
func (c *AvailabilityCache) Invalidate(ctx context.Context, doctorID uuid.UUID, day time.Time) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, key(doctorID, day)).Err(); err != nil {
		c.log.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

// InvalidateDoctor drops every cached day for a doctor. Called when the
// availability template changes or the doctor is deleted, since those
// mutations affect all dates at once.
func (c *AvailabilityCache) InvalidateDoctor(ctx context.Context, doctorID uuid.UUID) {
	if c == nil {
		return
	}

	pattern := fmt.Sprintf("availability:%s:*", doctorID)
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.log.Warn("availability cache scan failed", zap.Error(err))
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				c.log.Warn("availability cache invalidation failed", zap.Error(err))
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
