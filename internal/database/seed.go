// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// examplePrompt is a row inserted by Seed.
type examplePrompt struct {
	title, category, aiModel, text, priority, status, useCase, tags string
}

var examplePrompts = []examplePrompt{
	{
		title:    "Customer support triage",
		category: "chatbot",
		aiModel:  "gpt-4o",
		text:     "You are a support agent. Classify the customer message into billing, technical or account and reply with a short acknowledgement.",
		priority: "high",
		status:   "active",
		useCase:  "First-line support inbox",
		tags:     "support,classification,bot",
	},
	{
		title:    "Release notes summarizer",
		category: "writing",
		aiModel:  "claude-sonnet",
		text:     "Summarize the following changelog into five bullet points for a non-technical audience.",
		priority: "medium",
		status:   "draft",
		tags:     "summaries,changelog",
	},
}

// Seed populates an empty prompts table with a few example prompts so a
// fresh development database has something to show. It is a no-op when
// any prompt already exists.
func Seed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM prompts"); err != nil {
		return fmt.Errorf("seed check prompts: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	insert := db.Rebind(`
		INSERT INTO prompts (title, category, ai_model, prompt_text, priority, status,
			use_case, tags, created_at, updated_at, exported_to_sheets)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE)`)

	for _, p := range examplePrompts {
		now := time.Now().UTC().Truncate(time.Microsecond)
		_, err := db.ExecContext(ctx, insert,
			p.title, p.category, nullIfEmpty(p.aiModel), p.text, p.priority, p.status,
			nullIfEmpty(p.useCase), nullIfEmpty(p.tags), now, now,
		)
		if err != nil {
			return fmt.Errorf("seed insert %q: %w", p.title, err)
		}
	}

	slog.Info("database seeded with example prompts", "count", len(examplePrompts))
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
