package registry

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Resolver performs one expensive platform operation and answers a whole
// batch of related keys from it.
type Resolver interface {
	// Name identifies the underlying operation. Resolvers sharing a name
	// share one cache entry.
	Name() string
	// Resolve runs the operation. Keys a resolver cannot answer are left
	// out of the batch (or set to nil).
	Resolve(ctx context.Context) (map[string]any, error)
}

// Func adapts a function to Resolver.
func Func(name string, fn func(ctx context.Context) (map[string]any, error)) Resolver {
	return funcResolver{name: name, fn: fn}
}

type funcResolver struct {
	name string
	fn   func(ctx context.Context) (map[string]any, error)
}

func (f funcResolver) Name() string { return f.name }

func (f funcResolver) Resolve(ctx context.Context) (map[string]any, error) {
	return f.fn(ctx)
}

// Cache memoizes resolver batches for its own lifetime. The first lookup
// of any key runs the resolver once, even under concurrent demand; every
// later lookup of a key the same resolver answers is served from memory.
// There is no expiry: a process that needs fresh values builds a new
// Cache.
type Cache struct {
	logger  *zap.Logger
	timings *Timings

	group singleflight.Group

	mu      sync.RWMutex
	batches map[string]map[string]any
}

// NewCache creates an empty cache. Both arguments may be nil.
func NewCache(logger *zap.Logger, timings *Timings) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		logger:  logger,
		timings: timings,
		batches: make(map[string]map[string]any),
	}
}

// Lookup returns the value r produces for key, or nil when r cannot
// answer it on this host.
func (c *Cache) Lookup(ctx context.Context, r Resolver, key string) any {
	return c.batch(ctx, r)[key]
}

// Batch returns a copy of every value r produced.
func (c *Cache) Batch(ctx context.Context, r Resolver) map[string]any {
	return maps.Clone(c.batch(ctx, r))
}

// Resolved reports whether the resolver called name already ran.
func (c *Cache) Resolved(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.batches[name]
	return ok
}

// Len returns the number of resolvers that ran.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.batches)
}

func (c *Cache) batch(ctx context.Context, r Resolver) map[string]any {
	name := r.Name()

	c.mu.RLock()
	batch, ok := c.batches[name]
	c.mu.RUnlock()
	if ok {
		return batch
	}

	result, _, _ := c.group.Do(name, func() (any, error) {
		// a concurrent caller may have stored the batch between the
		// read above and entering the flight
		c.mu.RLock()
		stored, ok := c.batches[name]
		c.mu.RUnlock()
		if ok {
			return stored, nil
		}

		resolved, keep := c.run(ctx, r)
		if !keep {
			return resolved, nil
		}

		c.mu.Lock()
		c.batches[name] = resolved
		c.mu.Unlock()
		return resolved, nil
	})
	return result.(map[string]any)
}

// run executes the resolver. Failures and panics become an empty batch so
// every key reads as absent and the probe is not retried. A failure while
// the caller's context is done says nothing about the resolver: that batch
// is answered empty but not kept, so the next lookup runs the resolver
// again.
func (c *Cache) run(ctx context.Context, r Resolver) (batch map[string]any, keep bool) {
	name := r.Name()
	start := time.Now()

	defer func() {
		if recovered := recover(); recovered != nil {
			err := fmt.Errorf("resolver panicked: %v", recovered)
			c.logger.Debug("resolver failed", zap.String("resolver", name), zap.Error(err))
			c.timings.TrackFailure(name, time.Since(start), err.Error())
			batch, keep = map[string]any{}, true
		}
	}()

	values, err := r.Resolve(ctx)
	latency := time.Since(start)
	if err != nil && ctx.Err() != nil {
		c.logger.Debug("resolver interrupted",
			zap.String("resolver", name),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return map[string]any{}, false
	}
	if err != nil {
		c.logger.Debug("resolver failed",
			zap.String("resolver", name),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		c.timings.TrackFailure(name, latency, err.Error())
		return map[string]any{}, true
	}

	c.logger.Debug("resolver finished",
		zap.String("resolver", name),
		zap.Duration("latency", latency),
		zap.Int("keys", len(values)),
	)
	c.timings.TrackSuccess(name, latency)
	if values == nil {
		values = map[string]any{}
	}
	return values, true
}
