package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ProductCache is a cache-aside layer over product reads. Concurrent misses
// for the same product collapse into a single loader call.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewProductCache constructs ProductCache.
func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{client: client, ttl: ttl}
}

func productKey(productID int64) string {
	return fmt.Sprintf("catalog:product:%d", productID)
}

// GetProduct returns the cached product or loads and caches it. Cache errors
// degrade to the loader; a broken redis never blocks reads.
func (c *ProductCache) GetProduct(ctx context.Context, productID int64, load func(context.Context) (Product, error)) (Product, error) {
	key := productKey(productID)
	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			var product Product
			if jsonErr := json.Unmarshal(raw, &product); jsonErr == nil {
				return product, nil
			}
			_ = c.client.Del(ctx, key).Err()
		}
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		product, err := load(ctx)
		if err != nil {
			return Product{}, err
		}
		if c.client != nil {
			if raw, jsonErr := json.Marshal(product); jsonErr == nil {
				_ = c.client.Set(ctx, key, raw, c.ttl).Err()
			}
		}
		return product, nil
	})
	if err != nil {
		return Product{}, err
	}
	return value.(Product), nil
}

// InvalidateProduct drops the cached entry. Called by the inventory ledger
// after every movement.
func (c *ProductCache) InvalidateProduct(ctx context.Context, productID int64) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, productKey(productID)).Err()
}
