package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"mes-dashboard/internal/consumption"
)

const RECIPE_TOTALS_CACHE_PREFIX = "consumption:recipe-totals:"

// RedisTotalsCache shares recipe totals between service instances.
type RedisTotalsCache struct {
	client redis.Cmdable
}

func NewRedisTotalsCache(client redis.Cmdable) *RedisTotalsCache {
	return &RedisTotalsCache{client: client}
}

func cacheKey(orderNumber string) string {
	return RECIPE_TOTALS_CACHE_PREFIX + orderNumber
}

func (c *RedisTotalsCache) Get(ctx context.Context, orderNumber string) (consumption.RecipeTotals, bool, error) {
	val, err := c.client.Get(ctx, cacheKey(orderNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	totals, err := decodeTotals(val)
	if err != nil {
		return nil, false, err
	}
	return totals, true, nil
}

func (c *RedisTotalsCache) Set(ctx context.Context, orderNumber string, totals consumption.RecipeTotals, ttl time.Duration) error {
	data, err := json.Marshal(totals)
	if err != nil {
		return fmt.Errorf("encode recipe totals: %w", err)
	}
	return c.client.Set(ctx, cacheKey(orderNumber), data, ttl).Err()
}

func (c *RedisTotalsCache) Delete(ctx context.Context, orderNumber string) error {
	return c.client.Del(ctx, cacheKey(orderNumber)).Err()
}

func decodeTotals(data []byte) (consumption.RecipeTotals, error) {
	var totals consumption.RecipeTotals
	if err := json.Unmarshal(data, &totals); err != nil {
		return nil, fmt.Errorf("decode recipe totals: %w", err)
	}
	if totals == nil {
		totals = consumption.RecipeTotals{}
	}
	return totals, nil
}
