// Package cache stores computed employee rankings in Redis.
//
// Entries are namespaced by a generation counter. Every completed sale bumps the
// counter, which orphans all earlier entries at once; they then expire by TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/FMABr/ducks-demo/internal/dto"

	"github.com/redis/go-redis/v9"
)

const (
	generationKey = "ranking:gen"
	entryPrefix   = "ranking:"
)

type RankingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRankingCache(rdb *redis.Client, ttl time.Duration) *RankingCache {
	return &RankingCache{rdb: rdb, ttl: ttl}
}

// Key resolves the entry key for a ranking query under the current generation.
// Resolve it before aggregating so a sale committed mid-query orphans the entry.
func (c *RankingCache) Key(ctx context.Context, mode string, from, toExclusive time.Time, limit int) (string, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("ranking cache: read generation: %w", err)
	}
	return fmt.Sprintf("%s%d:%s:%d:%d:%d", entryPrefix, gen, mode,
		from.Unix(), toExclusive.Unix(), limit), nil
}

// Get returns the cached ranking for key; ok is false on a miss.
func (c *RankingCache) Get(ctx context.Context, key string) (items []dto.EmployeeRankingItem, ok bool, err error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ranking cache: get: %w", err)
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("ranking cache: decode: %w", err)
	}
	return items, true, nil
}

func (c *RankingCache) Set(ctx context.Context, key string, items []dto.EmployeeRankingItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("ranking cache: encode: %w", err)
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("ranking cache: set: %w", err)
	}
	return nil
}

// Invalidate starts a new generation.
func (c *RankingCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("ranking cache: bump generation: %w", err)
	}
	return nil
}
