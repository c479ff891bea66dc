package fxrates

import (
	"context"
	"strconv"
	"time"

	"github.com/angelmondragon/campaign-attribution/pkg/redis"
)

// Cache keeps resolved rates in Redis for ttl.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get reports a cached rate. A miss is not an error.
func (c *Cache) Get(ctx context.Context, from, to string) (float64, bool, error) {
	if c == nil || c.client == nil {
		return 0, false, nil
	}
	raw, err := c.client.Get(ctx, c.client.FXRateKey(from, to))
	if redis.IsMiss(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate <= 0 {
		return 0, false, nil
	}
	return rate, true, nil
}

func (c *Cache) Put(ctx context.Context, from, to string, rate float64) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.client.FXRateKey(from, to), strconv.FormatFloat(rate, 'f', -1, 64), c.ttl)
}
