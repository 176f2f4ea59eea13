package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesflow-analytics/internal/domain"
)

// GetJSON decodes the entry at key into dst. A payload that fails to decode
// is logged and reported as a miss.
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	payload, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		log.Warn().Err(err).Str("cache_key", key).Msg("cache: discarding undecodable entry")
		return false, nil
	}
	return true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return domain.SerializationFailure(err, "encode cache entry %s", key)
	}
	return c.Set(ctx, key, payload, ttl)
}
