// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// query.go caches the results of the two whole-table reads, the prompt
// list and the stats aggregate. Any write invalidates both, so a cached
// read never outlives the data it was computed from.
//
// Invalidation bumps a generation counter. Callers read the generation
// before querying the database and pass it back when storing the result;
// a result computed before an invalidation is dropped instead of cached.
//
// Every method is safe on a nil *QueryCache, which behaves as an always
// empty cache. Cache failures are logged and treated as misses.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"promptvault/internal/models"
)

const (
	// queryKeyPrefix is the Valkey key prefix for cached query results.
	queryKeyPrefix = "prompts:"

	listKey       = queryKeyPrefix + "list"
	statsKey      = queryKeyPrefix + "stats"
	generationKey = queryKeyPrefix + "generation"

	// DefaultQueryTTL bounds staleness if an invalidation is lost.
	DefaultQueryTTL = time.Minute
)

// QueryCache stores list and stats results in Valkey.
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQueryCache creates a query cache backed by the given Valkey client.
func NewQueryCache(client *redis.Client, ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultQueryTTL
	}
	return &QueryCache{client: client, ttl: ttl}
}

// List returns the cached prompt list.
func (qc *QueryCache) List(ctx context.Context) ([]models.Prompt, bool) {
	var prompts []models.Prompt
	if !qc.get(ctx, listKey, &prompts) {
		return nil, false
	}
	if prompts == nil {
		prompts = []models.Prompt{}
	}
	return prompts, true
}

// Generation returns the current invalidation generation. Read it before
// the database query whose result is passed to SetList or SetStats.
func (qc *QueryCache) Generation(ctx context.Context) int64 {
	if qc == nil {
		return 0
	}

	gen, err := qc.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		slog.Warn("query cache generation error", "error", err)
		return -1
	}
	return gen
}

// SetList caches the prompt list read at generation gen.
func (qc *QueryCache) SetList(ctx context.Context, gen int64, prompts []models.Prompt) {
	qc.set(ctx, gen, listKey, prompts)
}

// Stats returns the cached stats aggregate.
func (qc *QueryCache) Stats(ctx context.Context) (*models.PromptStats, bool) {
	var stats models.PromptStats
	if !qc.get(ctx, statsKey, &stats) {
		return nil, false
	}
	return &stats, true
}

// SetStats caches the stats aggregate read at generation gen.
func (qc *QueryCache) SetStats(ctx context.Context, gen int64, stats *models.PromptStats) {
	qc.set(ctx, gen, statsKey, stats)
}

// InvalidateAll bumps the generation, then removes every cached query
// result by scanning for the prefix.
func (qc *QueryCache) InvalidateAll(ctx context.Context) {
	if qc == nil {
		return
	}

	if err := qc.client.Incr(ctx, generationKey).Err(); err != nil {
		slog.Warn("query cache generation bump error", "error", err)
	}

	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := qc.client.Scan(ctx, cursor, queryKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("query cache scan error", "error", err)
			return
		}
		keys = slices.DeleteFunc(keys, func(k string) bool { return k == generationKey })
		if len(keys) > 0 {
			if err := qc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("query cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	slog.Debug("query cache invalidated", "deleted", deleted)
}

func (qc *QueryCache) get(ctx context.Context, key string, dst any) bool {
	if qc == nil {
		return false
	}

	val, err := qc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		slog.Warn("query cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		slog.Warn("query cache decode error", "key", key, "error", err)
		return false
	}
	slog.Debug("query cache hit", "key", key)
	return true
}

// set stores v under key only while the generation is still gen. The
// WATCH makes an invalidation racing with the write abort it.
func (qc *QueryCache) set(ctx context.Context, gen int64, key string, v any) {
	if qc == nil || gen < 0 {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("query cache encode error", "key", key, "error", err)
		return
	}

	err = qc.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, generationKey).Int64()
		if errors.Is(err, redis.Nil) {
			cur, err = 0, nil
		}
		if err != nil {
			return err
		}
		if cur != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, qc.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		slog.Debug("query cache write skipped, invalidated since read", "key", key)
	default:
		slog.Warn("query cache set error", "key", key, "error", err)
	}
}

// errStale marks a result computed before the latest invalidation.
var errStale = errors.New("query cache: stale generation")
