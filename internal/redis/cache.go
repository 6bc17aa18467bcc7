package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lektora/slot-booking/internal/booking"
)

// DayOptionsCache caches a date's computed slot options under a per-date key.
// Entries expire after the configured TTL and are dropped eagerly whenever a
// booking or override for the date changes.
type DayOptionsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDayOptionsCache(client *redis.Client, ttl time.Duration) *DayOptionsCache {
	return &DayOptionsCache{
		client: client,
		ttl:    ttl,
	}
}

func dayKey(date string) string {
	return fmt.Sprintf("dayopts:%s", date)
}

// GetOptions returns the cached options for a date, or (nil, nil) on a miss.
func (c *DayOptionsCache) GetOptions(ctx context.Context, date string) ([]booking.SlotOption, error) {
	raw, err := c.client.Get(ctx, dayKey(date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("read day options: %w", err)
	}

	var opts []booking.SlotOption
	if err := json.Unmarshal(raw, &opts); err != nil {
		// stale or corrupt entry, treat as a miss and drop it
		_ = c.client.Del(ctx, dayKey(date)).Err()
		return nil, nil
	}
	return opts, nil
}

func (c *DayOptionsCache) SetOptions(ctx context.Context, date string, opts []booking.SlotOption) error {
	raw, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("encode day options: %w", err)
	}
	if err := c.client.Set(ctx, dayKey(date), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write day options: %w", err)
	}
	return nil
}

func (c *DayOptionsCache) Invalidate(ctx context.Context, dates ...string) error {
	if len(dates) == 0 {
		return nil
	}
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = dayKey(d)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate day options: %w", err)
	}
	return nil
}
