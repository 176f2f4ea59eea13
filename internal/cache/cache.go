package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/andresuchdata/salesflow-analytics/internal/config"
)

const DefaultAnalyticsTTL = 5 * time.Minute

// Cache stores opaque payloads under caller-built keys. It is a hint: callers
// treat every error as a miss and recompute.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Observer is notified of lookups that reach a driver.
type Observer interface {
	CacheHit()
	CacheMiss()
}

// New selects a driver from cfg.Driver: "redis", "none", or the bounded
// in-memory map (default).
func New(cfg config.CacheConfig, obs Observer) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch cfg.Driver {
	case "redis":
		c, err = newRedisCache(cfg)
		if err != nil {
			return nil, err
		}
	case "none", "noop", "disabled":
		return NewNoop(), nil
	case "", "memory":
		c = NewMemory(cfg.MemoryMaxEntries)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
	if obs != nil {
		c = &observed{Cache: c, obs: obs}
	}
	return c, nil
}

type observed struct {
	Cache
	obs Observer
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := o.Cache.Get(ctx, key)
	if ok && err == nil {
		o.obs.CacheHit()
	} else {
		o.obs.CacheMiss()
	}
	return v, ok, err
}

func (o *observed) Close() error { return Close(o.Cache) }

// Close releases the connections held by c, if its driver holds any.
func Close(c Cache) error {
	if cl, ok := c.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

type noopCache struct{}

func NewNoop() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (noopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (noopCache) DeletePrefix(context.Context, string) error { return nil }
