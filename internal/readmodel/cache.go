// Package readmodel caches the home aggregate.  A snapshot younger than
// the TTL is served without touching the ledger or the catalog; anything
// else triggers a rebuild that replaces the snapshot whole.
package readmodel

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/cinecrypto/internal/clock"
	"github.com/iliyamo/cinecrypto/internal/model"
)

// DefaultTTL is how long a snapshot stays fresh.
const DefaultTTL = time.Hour

// RebuildTimeout bounds one shared rebuild, independent of the callers
// waiting on it.
const RebuildTimeout = 2 * time.Minute

// Builder recomputes the aggregate from the gateways.
type Builder interface {
	Build(ctx context.Context) (model.Aggregate, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context) (model.Aggregate, error)

func (f BuilderFunc) Build(ctx context.Context) (model.Aggregate, error) { return f(ctx) }

// Source says where a Get result came from.
type Source string

const (
	SourceCache   Source = "cache"
	SourceRebuilt Source = "rebuilt"
)

// Cache is the TTL-bounded read-model cache.  Concurrent rebuilds of the
// same key share one Build call.
type Cache struct {
	store   Store
	builder Builder
	key     string
	ttl     time.Duration
	clock   clock.Clock
	logger  *logrus.Logger
	group   singleflight.Group
}

// New builds a Cache.  ttl <= 0 selects DefaultTTL.
func New(store Store, builder Builder, key string, ttl time.Duration, clk clock.Clock, logger *logrus.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, builder: builder, key: key, ttl: ttl, clock: clk, logger: logger}
}

// Get returns the cached aggregate when it is fresh and force is false.
// Otherwise it rebuilds, stamps the result with the current time, stores
// it and returns it.  A failed build returns the error and leaves the
// stored snapshot untouched.
func (c *Cache) Get(ctx context.Context, force bool) (model.Aggregate, Source, error) {
	if !force {
		if agg, ok := c.load(ctx); ok {
			return agg, SourceCache, nil
		}
	}

	ch := c.group.DoChan(c.key, func() (interface{}, error) {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RebuildTimeout)
		defer cancel()
		return c.rebuild(bctx)
	})
	select {
	case <-ctx.Done():
		return model.Aggregate{}, "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return model.Aggregate{}, "", res.Err
		}
		return res.Val.(model.Aggregate), SourceRebuilt, nil
	}
}

func (c *Cache) load(ctx context.Context) (model.Aggregate, bool) {
	log := c.logger.WithField("key", c.key)
	raw, err := c.store.Load(ctx, c.key)
	if err != nil {
		if !errors.Is(err, ErrSnapshotNotFound) {
			log.WithError(err).Warn("readmodel: snapshot read failed")
		} else {
			log.Debug("readmodel: cache miss")
		}
		return model.Aggregate{}, false
	}
	var agg model.Aggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		log.WithError(err).Warn("readmodel: discarding malformed snapshot")
		return model.Aggregate{}, false
	}
	if !agg.FreshAt(c.clock.Now(), c.ttl) {
		log.WithField("built_at", agg.BuiltAt()).Debug("readmodel: cache stale")
		return model.Aggregate{}, false
	}
	return agg, true
}

func (c *Cache) rebuild(ctx context.Context) (model.Aggregate, error) {
	agg, err := c.builder.Build(ctx)
	if err != nil {
		return model.Aggregate{}, err
	}
	now := c.clock.Now()
	agg.Timestamp = now.UnixMilli()

	raw, err := json.Marshal(agg)
	if err != nil {
		return model.Aggregate{}, err
	}
	if err := c.store.Save(ctx, c.key, raw, now); err != nil {
		c.logger.WithError(err).WithField("key", c.key).Error("readmodel: snapshot write failed")
	}
	return agg, nil
}
