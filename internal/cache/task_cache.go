package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	dom "studytodo/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyList = "task:list"

// TaskCache caches the full task list in Redis.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// GetList returns the cached list, or nil on a miss.
func (c *TaskCache) GetList(ctx context.Context) ([]dom.Task, error) {
	b, err := c.rdb.Get(ctx, keyList).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := []dom.Task{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores the list in cache. An empty list is stored as "[]" so it
// still counts as a hit.
func (c *TaskCache) SetList(ctx context.Context, list []dom.Task) error {
	if list == nil {
		list = []dom.Task{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyList, b, c.ttl).Err()
}

// Invalidate drops the cached list (called on every write).
func (c *TaskCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, keyList).Err()
}
