// Package redis provides a cache-aside layer for carts on top of another
// cart.Repository.
package redis

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/storefront/internal/domain/cart"
)

// ErrCacheMiss is returned when a cart is not cached.
var ErrCacheMiss = errors.New("cache miss")

// CartCache stores serialized carts in Redis with a jittered TTL.
type CartCache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	jitter time.Duration
}

// NewCartCache creates a CartCache. Entries live for ttl plus a random
// jitter up to jitter.
func NewCartCache(client *goredis.Client, prefix string, ttl, jitter time.Duration) *CartCache {
	return &CartCache{client: client, prefix: prefix, ttl: ttl, jitter: jitter}
}

func (c *CartCache) key(id string) string {
	return c.prefix + "cart:" + id
}

// Get returns the cached cart or ErrCacheMiss.
func (c *CartCache) Get(ctx context.Context, id string) (*cart.Cart, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}

	var out cart.Cart
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "unmarshal cart")
	}
	return &out, nil
}

// Set caches crt.
func (c *CartCache) Set(ctx context.Context, crt *cart.Cart) error {
	data, err := json.Marshal(crt)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}
	ttl := c.ttl
	if c.jitter > 0 {
		ttl += rand.N(c.jitter)
	}
	if err := c.client.Set(ctx, c.key(crt.ID), data, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Delete evicts a cart.
func (c *CartCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return errors.Wrap(err, "redis delete")
	}
	return nil
}

var _ cart.Repository = (*CachedCartRepository)(nil)

// CachedCartRepository reads carts through the cache and invalidates it on
// every write. Cache errors are logged and never fail the call.
type CachedCartRepository struct {
	next  cart.Repository
	cache *CartCache
	sfg   singleflight.Group
}

// NewCachedCartRepository wraps next with cache.
func NewCachedCartRepository(next cart.Repository, cache *CartCache) *CachedCartRepository {
	return &CachedCartRepository{next: next, cache: cache}
}

func (r *CachedCartRepository) Create(ctx context.Context, c *cart.Cart) error {
	if err := r.next.Create(ctx, c); err != nil {
		return err
	}
	if err := r.cache.Set(ctx, c); err != nil {
		zctx.From(ctx).Warn("Cache cart", zap.String("cart_id", c.ID), zap.Error(err))
	}
	return nil
}

func (r *CachedCartRepository) Get(ctx context.Context, id string) (*cart.Cart, error) {
	v, err, _ := r.sfg.Do(id, func() (any, error) {
		c, err := r.cache.Get(ctx, id)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			zctx.From(ctx).Warn("Read cached cart", zap.String("cart_id", id), zap.Error(err))
		}

		c, err = r.next.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Set(ctx, c); err != nil {
			zctx.From(ctx).Warn("Cache cart", zap.String("cart_id", id), zap.Error(err))
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cart.Cart).Clone(), nil
}

func (r *CachedCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	r.evict(ctx, c.ID)
	if err := r.next.Save(ctx, c); err != nil {
		return err
	}
	r.evict(ctx, c.ID)
	return nil
}

func (r *CachedCartRepository) Delete(ctx context.Context, id string) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

func (r *CachedCartRepository) evict(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, id); err != nil {
		zctx.From(ctx).Warn("Evict cached cart", zap.String("cart_id", id), zap.Error(err))
	}
}
