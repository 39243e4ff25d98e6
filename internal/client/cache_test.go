// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptvault/internal/models"
)

func TestCache(t *testing.T) {
	var c Cache
	c.Replace([]models.Prompt{{ID: 2, Title: "b"}, {ID: 1, Title: "a"}})

	c.Add(models.Prompt{ID: 3, Title: "c"})
	assert.Equal(t, []int64{3, 2, 1}, ids(c.Prompts()))

	c.Put(models.Prompt{ID: 2, Title: "B"})
	p, ok := c.Get(2)
	require.True(t, ok)
	assert.Equal(t, "B", p.Title)
	assert.Equal(t, []int64{3, 2, 1}, ids(c.Prompts()), "replace keeps position")

	c.Put(models.Prompt{ID: 99})
	assert.Equal(t, 3, c.Len(), "unknown ids are not added")

	c.Remove(3)
	c.Remove(42)
	assert.Equal(t, []int64{2, 1}, ids(c.Prompts()))

	_, ok = c.Get(3)
	assert.False(t, ok)
}

func TestCachePromptsIsACopy(t *testing.T) {
	var c Cache
	c.Replace([]models.Prompt{{ID: 1, Title: "a"}})

	got := c.Prompts()
	got[0].Title = "mutated"

	p, _ := c.Get(1)
	assert.Equal(t, "a", p.Title)
}

func TestSessionTracksMutations(t *testing.T) {
	s := NewSession(testServer(t, nil))
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 0, s.Cache.Len())

	first, err := s.Create(ctx, input("first"))
	require.NoError(t, err)
	second, err := s.Create(ctx, input("second"))
	require.NoError(t, err)
	assert.Equal(t, []int64{second.ID, first.ID}, ids(s.Cache.Prompts()))

	_, err = s.Update(ctx, first.ID, &models.PromptPatch{Title: ptr("renamed")})
	require.NoError(t, err)
	p, _ := s.Cache.Get(first.ID)
	assert.Equal(t, "renamed", p.Title)

	require.NoError(t, s.Delete(ctx, second.ID))
	assert.Equal(t, []int64{first.ID}, ids(s.Cache.Prompts()))

	// The local copy matches a fresh fetch.
	server, err := s.Client.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids(server), ids(s.Cache.Prompts()))
	assert.Len(t, s.Filtered("RENAMED", "", ""), 1)
}

func TestSessionFailedMutationLeavesCache(t *testing.T) {
	s := NewSession(testServer(t, nil))
	ctx := context.Background()

	created, err := s.Create(ctx, input("keep"))
	require.NoError(t, err)

	err = s.Delete(ctx, created.ID+100)
	require.Error(t, err)
	_, err = s.Update(ctx, created.ID, &models.PromptPatch{Status: ptr(models.Status("bogus"))})
	require.Error(t, err)

	p, ok := s.Cache.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusDraft, p.Status)
}

func TestSessionExportRefreshes(t *testing.T) {
	s := NewSession(testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	ctx := context.Background()

	created, err := s.Create(ctx, input("to export"))
	require.NoError(t, err)

	res, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExportedCount)

	p, ok := s.Cache.Get(created.ID)
	require.True(t, ok)
	assert.True(t, p.ExportedToSheets)
}

func ids(prompts []models.Prompt) []int64 {
	out := make([]int64, len(prompts))
	for i, p := range prompts {
		out[i] = p.ID
	}
	return out
}
