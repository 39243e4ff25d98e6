// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptvault/internal/database"
	"promptvault/internal/export"
	"promptvault/internal/handlers"
	"promptvault/internal/models"
	"promptvault/internal/router"
	"promptvault/internal/store"
)

func ptr[T any](v T) *T { return &v }

// testServer runs the real router over a fresh SQLite database. When
// webhook is non-nil exports go to it.
func testServer(t *testing.T, webhook http.Handler) *Client {
	t.Helper()

	db, err := database.Connect(database.DriverSQLite,
		database.SQLiteDSN(filepath.Join(t.TempDir(), "client.db")))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, database.DriverSQLite))
	t.Cleanup(func() { db.Close() })

	var sink export.Sink
	if webhook != nil {
		hook := httptest.NewServer(webhook)
		t.Cleanup(hook.Close)
		sink = export.NewWebhookSink(hook.URL, hook.Client())
	}

	promptStore := store.NewPromptStore(db)
	prompts := handlers.NewPrompts(promptStore, nil, export.NewWorkflow(promptStore, sink))
	srv := httptest.NewServer(router.New(prompts, promptStore, nil, nil))
	t.Cleanup(srv.Close)

	return New(srv.URL+"/", srv.Client())
}

func input(title string) *models.PromptInput {
	return &models.PromptInput{
		Title:      title,
		Category:   "chatbot",
		PromptText: "Answer politely.",
		Priority:   models.PriorityMedium,
		Status:     models.StatusDraft,
	}
}

func TestClientCRUD(t *testing.T) {
	c := testServer(t, nil)
	ctx := context.Background()

	created, err := c.Create(ctx, input("Greeter"))
	require.NoError(t, err)
	assert.Equal(t, "Greeter", created.Title)

	got, err := c.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	updated, err := c.Update(ctx, created.ID, &models.PromptPatch{Status: ptr(models.StatusTesting)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTesting, updated.Status)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, c.Delete(ctx, created.ID))

	_, err = c.Get(ctx, created.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Prompt not found", apiErr.Message)
}

func TestClientValidationError(t *testing.T) {
	c := testServer(t, nil)

	in := input("")
	_, err := c.Create(context.Background(), in)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Title is required.", apiErr.Message)

	_, err = c.Update(context.Background(), 1, &models.PromptPatch{})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "No fields to update", apiErr.Message)
}

func TestClientSearchAndStats(t *testing.T) {
	c := testServer(t, nil)
	ctx := context.Background()

	_, err := c.Create(ctx, input("Support Bot"))
	require.NoError(t, err)
	writer := input("Essay writer")
	writer.Category = "content"
	_, err = c.Create(ctx, writer)
	require.NoError(t, err)

	found, err := c.Search(ctx, models.SearchFilter{Text: "BOT"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Support Bot", found[0].Title)

	found, err = c.Search(ctx, models.SearchFilter{Category: "content", Status: models.StatusDraft})
	require.NoError(t, err)
	require.Len(t, found, 1)

	all, err := c.Search(ctx, models.SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Len(t, stats.ByCategory, 2)
}

func TestClientExportUnconfigured(t *testing.T) {
	c := testServer(t, nil)
	ctx := context.Background()

	_, err := c.Create(ctx, input("a"))
	require.NoError(t, err)

	_, err = c.Export(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.SetupInstructions)
}

func TestClientExport(t *testing.T) {
	c := testServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	ctx := context.Background()

	res, err := c.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExportedCount)

	_, err = c.Create(ctx, input("a"))
	require.NoError(t, err)

	res, err = c.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExportedCount)
}

func TestClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).List(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "HTTP error! status: 502", apiErr.Message)
}

func TestClientUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).List(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClientResponseTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prompts":[{"id":1,"title":"a long enough title"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	c.maxBody = 16
	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")

	c.maxBody = maxResponseBytes
	prompts, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, prompts, 1)
}
