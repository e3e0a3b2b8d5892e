// internal/domain/catalog/cache.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// CachedLookup serves product snapshots from redis and falls back to the
// wrapped Lookup on a miss. Redis failures degrade to the fallback.
type CachedLookup struct {
	next    Lookup
	client  *redis.Client
	baseTTL time.Duration
	log     logrus.FieldLogger
	sfg     singleflight.Group
}

// NewCachedLookup creates a new cached lookup
func NewCachedLookup(next Lookup, client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *CachedLookup {
	return &CachedLookup{
		next:    next,
		client:  client,
		baseTTL: ttl,
		log:     log,
	}
}

// GetProduct returns the product snapshot for id
func (c *CachedLookup) GetProduct(ctx context.Context, id uint) (*Snapshot, error) {
	key := cacheKey(id)

	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		data, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			var snap Snapshot
			if jsonErr := json.Unmarshal(data, &snap); jsonErr == nil {
				return &snap, nil
			}
			c.log.WithField("key", key).Warn("discarding undecodable catalog cache entry")
		} else if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("key", key).Warn("catalog cache read failed")
		}

		snap, err := c.next.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := c.set(ctx, key, snap); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("catalog cache write failed")
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the cached snapshot for id
func (c *CachedLookup) Invalidate(ctx context.Context, id uint) error {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Reconcile compares an authoritative read against the cached entry and
// drops the entry when price, stock or name moved. A nil fresh snapshot
// means the product is gone.
func (c *CachedLookup) Reconcile(ctx context.Context, id uint, fresh *Snapshot) {
	key := cacheKey(id)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return
	}
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("catalog cache read failed")
		return
	}

	var cached Snapshot
	if fresh != nil && json.Unmarshal(data, &cached) == nil && !staleAgainst(&cached, fresh) {
		return
	}
	if err := c.Invalidate(ctx, id); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("catalog cache invalidation failed")
		return
	}
	c.log.WithField("product_id", id).Debug("evicted stale catalog cache entry")
}

func staleAgainst(cached, fresh *Snapshot) bool {
	return !cached.Price.Equal(fresh.Price) ||
		cached.CountInStock != fresh.CountInStock ||
		cached.Name != fresh.Name
}

func (c *CachedLookup) set(ctx context.Context, key string, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}
	jitter := time.Duration(rand.Int63n(int64(c.baseTTL)/5 + 1))
	return c.client.Set(ctx, key, data, c.baseTTL+jitter).Err()
}

func cacheKey(id uint) string {
	return "catalog:product:" + strconv.FormatUint(uint64(id), 10)
}
