package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewProductCache(client, time.Minute), mr
}

func TestCacheAsideLoadsOnce(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	var loads atomic.Int32
	load := func(ctx context.Context) (Product, error) {
		loads.Add(1)
		return Product{ID: 1, Name: "Riz local", SKU: "RIZ-50", Price: 350000, Stock: 40}, nil
	}

	first, err := cache.GetProduct(ctx, 1, load)
	require.NoError(t, err)
	require.Equal(t, "Riz local", first.Name)
	require.EqualValues(t, 1, loads.Load())

	second, err := cache.GetProduct(ctx, 1, load)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.EqualValues(t, 1, loads.Load())
}

func TestInvalidateForcesReload(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	var loads atomic.Int32
	load := func(ctx context.Context) (Product, error) {
		loads.Add(1)
		return Product{ID: 2, Name: "Huile", Stock: float64(loads.Load())}, nil
	}

	product, err := cache.GetProduct(ctx, 2, load)
	require.NoError(t, err)
	require.InDelta(t, 1, product.Stock, 0.0001)

	require.NoError(t, cache.InvalidateProduct(ctx, 2))

	product, err = cache.GetProduct(ctx, 2, load)
	require.NoError(t, err)
	require.InDelta(t, 2, product.Stock, 0.0001)
	require.EqualValues(t, 2, loads.Load())
}

func TestConcurrentMissesCollapse(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewProductCache(client, time.Minute)
	ctx := context.Background()

	var loads atomic.Int32
	release := make(chan struct{})
	load := func(ctx context.Context) (Product, error) {
		loads.Add(1)
		<-release
		return Product{ID: 3, Name: "Savon"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			product, err := cache.GetProduct(ctx, 3, load)
			require.NoError(t, err)
			require.Equal(t, "Savon", product.Name)
		}()
	}
	// Give the goroutines time to pile onto the singleflight key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, loads.Load())
}

func TestCacheSkipsBrokenPayload(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("catalog:product:9", "not-json"))

	product, err := cache.GetProduct(ctx, 9, func(ctx context.Context) (Product, error) {
		return Product{ID: 9, Name: "Sucre"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "Sucre", product.Name)
}
