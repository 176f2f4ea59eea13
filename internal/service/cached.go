package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesflow-analytics/internal/cache"
)

// cached reads a JSON entry. Every failure is a miss.
func cached[T any](ctx context.Context, c cache.Cache, key string) (*T, bool) {
	var v T
	ok, err := cache.GetJSON(ctx, c, key, &v)
	if err != nil {
		log.Warn().Err(err).Str("cache_key", key).Msg("service: cache get failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &v, true
}

func store(ctx context.Context, c cache.Cache, key string, v any, ttl time.Duration) {
	if err := cache.SetJSON(ctx, c, key, v, ttl); err != nil {
		log.Warn().Err(err).Str("cache_key", key).Msg("service: cache set failed")
	}
}
