// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptvault/internal/models"
)

// testRedis starts an in-process Redis server and a client for it.
func testRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectValkey(mr.Host(), mr.Port(), "", 0)
	require.NoError(t, err)
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	require.NoError(t, err)
	assert.Equal(t, "PONG", pong)
}

func TestConnectValkeyPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	_, err := ConnectValkey(mr.Host(), mr.Port(), "wrong", 0)
	assert.Error(t, err)

	client, err := ConnectValkey(mr.Host(), mr.Port(), "s3cret", 0)
	require.NoError(t, err)
	client.Close()
}

func TestConnectValkeyUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	_, err := ConnectValkey(host, port, "", 0)
	assert.Error(t, err)
}

// TestConnectValkeyServer checks against a real server when one is
// configured.
func TestConnectValkeyServer(t *testing.T) {
	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	db, _ := strconv.Atoi(envOr("VALKEY_TEST_DB", "15"))

	client, err := ConnectValkey(host, port, os.Getenv("VALKEY_PASSWORD"), db)
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	client.Close()
}

func samplePrompts() []models.Prompt {
	model := "gpt-4o"
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC)
	return []models.Prompt{
		{ID: 2, Title: "b", Category: "x", PromptText: "t", Priority: models.PriorityHigh,
			Status: models.StatusActive, AIModel: &model, CreatedAt: ts, UpdatedAt: ts},
		{ID: 1, Title: "a", Category: "x", PromptText: "t", Priority: models.PriorityLow,
			Status: models.StatusDraft, CreatedAt: ts, UpdatedAt: ts, ExportedToSheets: true},
	}
}

func TestQueryCacheList(t *testing.T) {
	client, _ := testRedis(t)
	qc := NewQueryCache(client, time.Minute)
	ctx := context.Background()

	_, ok := qc.List(ctx)
	assert.False(t, ok, "expected miss")

	want := samplePrompts()
	qc.SetList(ctx, qc.Generation(ctx), want)

	got, ok := qc.List(ctx)
	require.True(t, ok, "expected hit")
	require.Len(t, got, 2)
	assert.Equal(t, want[0].ID, got[0].ID)
	assert.Equal(t, "gpt-4o", *got[0].AIModel)
	assert.Nil(t, got[1].AIModel)
	assert.True(t, got[1].ExportedToSheets)
	assert.True(t, want[0].CreatedAt.Equal(got[0].CreatedAt))
}

func TestQueryCacheEmptyList(t *testing.T) {
	client, _ := testRedis(t)
	qc := NewQueryCache(client, time.Minute)
	ctx := context.Background()

	qc.SetList(ctx, qc.Generation(ctx), []models.Prompt{})
	got, ok := qc.List(ctx)
	require.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestQueryCacheStats(t *testing.T) {
	client, _ := testRedis(t)
	qc := NewQueryCache(client, time.Minute)
	ctx := context.Background()

	_, ok := qc.Stats(ctx)
	assert.False(t, ok)

	want := &models.PromptStats{
		Total:      3,
		ByStatus:   []models.StatusCount{{Status: models.StatusDraft, Count: 3}},
		ByCategory: []models.CategoryCount{{Category: "x", Count: 3}},
		ByPriority: []models.PriorityCount{{Priority: models.PriorityLow, Count: 3}},
	}
	qc.SetStats(ctx, qc.Generation(ctx), want)

	got, ok := qc.Stats(ctx)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestQueryCacheTTL(t *testing.T) {
	client, mr := testRedis(t)
	qc := NewQueryCache(client, 30*time.Second)
	ctx := context.Background()

	qc.SetList(ctx, qc.Generation(ctx), samplePrompts())
	assert.Equal(t, 30*time.Second, mr.TTL(listKey))

	mr.FastForward(31 * time.Second)
	_, ok := qc.List(ctx)
	assert.False(t, ok, "expected miss after expiry")
}

func TestNewQueryCacheDefaultTTL(t *testing.T) {
	client, _ := testRedis(t)
	qc := NewQueryCache(client, 0)
	assert.Equal(t, DefaultQueryTTL, qc.ttl)
}

func TestQueryCacheInvalidateAll(t *testing.T) {
	client, mr := testRedis(t)
	qc := NewQueryCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "unrelated", "keep", 0).Err())
	qc.SetList(ctx, qc.Generation(ctx), samplePrompts())
	qc.SetStats(ctx, qc.Generation(ctx), &models.PromptStats{Total: 2})

	qc.InvalidateAll(ctx)

	_, ok := qc.List(ctx)
	assert.False(t, ok)
	_, ok = qc.Stats(ctx)
	assert.False(t, ok)
	assert.True(t, mr.Exists("unrelated"), "keys outside the prefix must survive")
}

func TestQueryCacheDropsWriteAfterInvalidate(t *testing.T) {
	client, mr := testRedis(t)
	qc := NewQueryCache(client, time.Minute)
	ctx := context.Background()

	gen := qc.Generation(ctx)
	qc.InvalidateAll(ctx)

	qc.SetList(ctx, gen, samplePrompts())
	qc.SetStats(ctx, gen, &models.PromptStats{Total: 2})

	_, ok := qc.List(ctx)
	assert.False(t, ok, "a list read before the invalidation must not be cached")
	_, ok = qc.Stats(ctx)
	assert.False(t, ok)
	assert.True(t, mr.Exists(generationKey), "the generation survives invalidation")

	// A fresh read is cached again.
	qc.SetList(ctx, qc.Generation(ctx), samplePrompts())
	_, ok = qc.List(ctx)
	assert.True(t, ok)
}

func TestQueryCacheCorruptEntry(t *testing.T) {
	client, _ := testRedis(t)
	qc := NewQueryCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, listKey, "not json", 0).Err())
	_, ok := qc.List(ctx)
	assert.False(t, ok)
}

func TestQueryCacheServerDown(t *testing.T) {
	client, mr := testRedis(t)
	qc := NewQueryCache(client, time.Minute)
	ctx := context.Background()

	qc.SetList(ctx, qc.Generation(ctx), samplePrompts())
	mr.Close()

	_, ok := qc.List(ctx)
	assert.False(t, ok, "errors are misses")
	qc.SetStats(ctx, qc.Generation(ctx), &models.PromptStats{})
	qc.InvalidateAll(ctx)
}

func TestQueryCacheNil(t *testing.T) {
	var qc *QueryCache
	ctx := context.Background()

	qc.SetList(ctx, qc.Generation(ctx), samplePrompts())
	qc.SetStats(ctx, qc.Generation(ctx), &models.PromptStats{})
	qc.InvalidateAll(ctx)

	_, ok := qc.List(ctx)
	assert.False(t, ok)
	_, ok = qc.Stats(ctx)
	assert.False(t, ok)
}
