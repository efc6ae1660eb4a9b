// Package cache memoizes merged presence day sets in Redis. Keys embed a
// hash of the subject's interval collection, so a changed collection simply
// misses instead of serving stale ranges (arena+index style invalidation).
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"staywatch/internal/engine"
	"staywatch/pkg/domain"
	dErrors "staywatch/pkg/domain-errors"
)

// RedisCache implements ports.DaySetCache on a Redis client.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func cacheKey(subjectID domain.SubjectID, key string) string {
	return fmt.Sprintf("dayset:%s:%s", subjectID, key)
}

func (c *RedisCache) Get(ctx context.Context, subjectID domain.SubjectID, key string) (engine.DaySet, bool, error) {
	payload, err := c.client.Get(ctx, cacheKey(subjectID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return engine.DaySet{}, false, nil
		}
		return engine.DaySet{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "get cached day set")
	}

	var ranges []engine.DayRange
	if err := json.Unmarshal(payload, &ranges); err != nil {
		// A corrupt entry is a miss; the caller rebuilds and overwrites.
		return engine.DaySet{}, false, nil
	}
	return engine.NewDaySet(ranges), true, nil
}

func (c *RedisCache) Set(ctx context.Context, subjectID domain.SubjectID, key string, set engine.DaySet, ttl time.Duration) error {
	payload, err := json.Marshal(set.Ranges())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "marshal day set")
	}
	if err := c.client.Set(ctx, cacheKey(subjectID, key), payload, ttl).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "cache day set")
	}
	return nil
}
