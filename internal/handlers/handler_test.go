// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Every test gets a fresh SQLite database and an
// in-process Redis server.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"promptvault/internal/cache"
	"promptvault/internal/database"
	"promptvault/internal/export"
	"promptvault/internal/store"
)

// testDB opens a migrated SQLite database in a temp dir.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Connect(database.DriverSQLite,
		database.SQLiteDSN(filepath.Join(t.TempDir(), "handlers.db")))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, database.DriverSQLite))

	t.Cleanup(func() { db.Close() })
	return db
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB      *sqlx.DB
	Redis   *miniredis.Miniredis
	Store   *store.PromptStore
	Cache   *cache.QueryCache
	Prompts *Prompts
	Router  http.Handler
}

// newTestEnv creates a test environment exporting to sink. A nil sink
// leaves exporting unconfigured.
func newTestEnv(t *testing.T, sink export.Sink) *testEnv {
	t.Helper()

	db := testDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	promptStore := store.NewPromptStore(db)
	queryCache := cache.NewQueryCache(client, time.Minute)
	prompts := NewPrompts(promptStore, queryCache, export.NewWorkflow(promptStore, sink))

	return &testEnv{
		DB:      db,
		Redis:   mr,
		Store:   promptStore,
		Cache:   queryCache,
		Prompts: prompts,
		Router:  testRouter(prompts),
	}
}

// testRouter mounts the handlers on the same paths the server uses.
func testRouter(h *Prompts) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/prompts", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/search", h.Search)
		r.Get("/stats", h.Stats)
		r.Post("/export-to-sheets", h.Export)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
	return r
}

// do sends a request through the test router. body is JSON-encoded
// unless it is a string, which is sent as is.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.Router.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals a recorded JSON response.
func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// createBody is a valid create request.
func createBody(title string) map[string]any {
	return map[string]any{
		"title":       title,
		"category":    "chatbot",
		"prompt_text": "You are a helpful assistant.",
		"priority":    "high",
		"status":      "draft",
	}
}

// recordingSink is an export.Sink that records batches and fails on
// demand.
type recordingSink struct {
	batches []*export.Batch
	err     error
}

func (s *recordingSink) Send(_ context.Context, b *export.Batch) (*export.Ack, error) {
	s.batches = append(s.batches, b)
	if s.err != nil {
		return nil, s.err
	}
	return &export.Ack{StatusCode: http.StatusOK, Body: json.RawMessage(`{"success":true}`)}, nil
}
