// Package cache keeps deal listings in Redis. Listings are tagged so a board
// can drop every cached query that may include a deal it just moved.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/dealboard/internal/board"
	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	listPrefix = "dealboard:deals:"
	tagPrefix  = "dealboard:tag:"
)

// DealCache wraps a deal store with a read-through cache for List. Reads of
// single deals always go to the store, so a dispatched move merges into the
// latest record.
type DealCache struct {
	base   board.DealStore
	redis  *redis.Client
	ttl    time.Duration
	logger logrus.FieldLogger
}

// New creates a caching wrapper around base. A nil client disables caching.
func New(base board.DealStore, client *redis.Client, ttl time.Duration, logger logrus.FieldLogger) *DealCache {
	if base == nil {
		panic("cache.New: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DealCache{base: base, redis: client, ttl: ttl, logger: logger}
}

func (c *DealCache) GetByID(ctx context.Context, id string) (*domain.Deal, error) {
	return c.base.GetByID(ctx, id)
}

// Update writes through and then invalidates every listing the deal may
// appear in.
func (c *DealCache) Update(ctx context.Context, d *domain.Deal) (*domain.Deal, error) {
	stored, err := c.base.Update(ctx, d)
	if err != nil {
		return nil, err
	}
	if err := c.Invalidate(ctx, tagsFor(d.PipelineID)...); err != nil {
		c.logger.WithError(err).WithField("deal_id", d.ID).Warn("cache invalidation failed")
	}
	return stored, nil
}

func (c *DealCache) List(ctx context.Context, f domain.DealFilter) ([]*domain.Deal, error) {
	if deals, ok := c.load(ctx, f); ok {
		return deals, nil
	}
	deals, err := c.base.List(ctx, f)
	if err != nil {
		return nil, err
	}
	c.store(ctx, f, deals)
	return deals, nil
}

// Refetch drops the cached listing for f and reads it again from the store.
func (c *DealCache) Refetch(ctx context.Context, f domain.DealFilter) ([]*domain.Deal, error) {
	if c.redis != nil {
		if err := c.redis.Del(ctx, listKey(f)).Err(); err != nil {
			c.logger.WithError(err).Debug("cache delete failed")
		}
	}
	return c.List(ctx, f)
}

// Invalidate deletes every listing registered under any of tags.
func (c *DealCache) Invalidate(ctx context.Context, tags ...string) error {
	if c.redis == nil || len(tags) == 0 {
		return nil
	}
	var errs []error
	for _, tag := range tags {
		setKey := tagPrefix + tag
		keys, err := c.redis.SMembers(ctx, setKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			errs = append(errs, fmt.Errorf("reading tag %s: %w", tag, err))
			continue
		}
		keys = append(keys, setKey)
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			errs = append(errs, fmt.Errorf("deleting tag %s: %w", tag, err))
		}
	}
	return errors.Join(errs...)
}

func (c *DealCache) load(ctx context.Context, f domain.DealFilter) ([]*domain.Deal, bool) {
	if c.redis == nil {
		return nil, false
	}
	key := listKey(f)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).Debug("cache read failed")
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var deals []*domain.Deal
	if err := sonic.ConfigStd.Unmarshal(data, &deals); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return deals, true
}

func (c *DealCache) store(ctx context.Context, f domain.DealFilter, deals []*domain.Deal) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.ConfigStd.Marshal(deals)
	if err != nil {
		return
	}
	key := listKey(f)
	_, err = c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, c.ttl)
		for _, tag := range tagsFor(f.PipelineID) {
			pipe.SAdd(ctx, tagPrefix+tag, key)
			pipe.Expire(ctx, tagPrefix+tag, c.ttl)
		}
		return nil
	})
	if err != nil {
		c.logger.WithError(err).Debug("cache write failed")
	}
}

func tagsFor(pipelineID string) []string {
	if pipelineID == "" {
		return []string{board.TagDeals}
	}
	return []string{board.TagDeals, board.PipelineTag(pipelineID)}
}

func listKey(f domain.DealFilter) string {
	return listPrefix + f.Key()
}
