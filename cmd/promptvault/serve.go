// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"promptvault/internal/cache"
	"promptvault/internal/database"
	"promptvault/internal/export"
	"promptvault/internal/handlers"
	"promptvault/internal/middleware"
	"promptvault/internal/router"
	"promptvault/internal/store"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

// newWorkflow builds the export workflow from the configuration. Without
// a webhook URL the workflow reports exporting as not configured.
func newWorkflow(promptStore *store.PromptStore) *export.Workflow {
	var sink export.Sink
	if cfg.ExportEnabled() {
		sink = export.NewWebhookSink(cfg.SheetsWebhookURL, nil)
	} else {
		slog.Warn("sheets webhook not configured, export disabled")
	}
	return export.NewWorkflow(promptStore, sink)
}

func runServe() error {
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"db_driver", cfg.DBDriver,
	)

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(context.Background(), db); err != nil {
			return err
		}
	}

	// The query cache is optional; the API works without it.
	var queryCache *cache.QueryCache
	if cfg.CacheEnabled() {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			return err
		}
		defer valkeyClient.Close()
		queryCache = cache.NewQueryCache(valkeyClient, cfg.CacheTTL)
	} else {
		slog.Warn("valkey not configured, query cache disabled")
	}

	promptStore := store.NewPromptStore(db)
	prompts := handlers.NewPrompts(promptStore, queryCache, newWorkflow(promptStore))

	var limiter *middleware.RateLimiter
	if cfg.ExportRatePerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.ExportRatePerMinute, time.Minute)
		defer limiter.Stop()
	}

	r := router.New(prompts, promptStore, limiter, cfg.CORSAllowedOrigins)

	// WriteTimeout must cover an export, which waits on the webhook
	// (up to its 30s client timeout).
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	slog.Info("server stopped gracefully")
	return nil
}
