// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package export pushes newly created or updated prompts to an external
// spreadsheet through a webhook. A run selects every unexported prompt,
// sends them as one batch to the Sink, and marks them exported only after
// the Sink acknowledged the batch. A failed send changes nothing, so the
// next run resends the same batch.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"promptvault/internal/models"
)

// ActionAddPrompts is the action name the spreadsheet script dispatches on.
const ActionAddPrompts = "addPrompts"

// timestampLayout matches JavaScript's Date.toISOString, which the
// spreadsheet script parses.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// SetupInstructions tells an operator how to enable exporting.
const SetupInstructions = "Deploy the Google Apps Script web app that appends prompts to your sheet, " +
	"copy its /exec URL into SHEETS_WEBHOOK_URL and restart the server."

// ErrNotConfigured is returned when no webhook destination is configured.
// No network call is made in that case.
var ErrNotConfigured = errors.New("sheets webhook URL is not configured; set SHEETS_WEBHOOK_URL")

// UpstreamError reports a webhook call that failed or was not acknowledged
// with a 2xx status. StatusCode is 0 when no response was received.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("webhook request failed: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("webhook returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("webhook returned status %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// PartialError reports a batch the webhook accepted but that could only
// be partly marked exported. The unmarked remainder is sent again by the
// next run.
type PartialError struct {
	Marked int
	Total  int
	Err    error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("exported %d prompts but marked only %d: %v", e.Total, e.Marked, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// Record is one prompt as the spreadsheet receives it. Missing optional
// fields are sent as empty strings, never null.
type Record struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	AIModel      string `json:"ai_model"`
	PromptText   string `json:"prompt_text"`
	Priority     string `json:"priority"`
	Status       string `json:"status"`
	UseCase      string `json:"use_case"`
	DeadlineDate string `json:"deadline_date"`
	Tags         string `json:"tags"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// Batch is the webhook request body.
type Batch struct {
	Action  string   `json:"action"`
	Prompts []Record `json:"prompts"`
}

// NewBatch flattens prompts into an addPrompts batch, preserving order.
func NewBatch(prompts []models.Prompt) *Batch {
	b := &Batch{Action: ActionAddPrompts, Prompts: make([]Record, 0, len(prompts))}
	for _, p := range prompts {
		b.Prompts = append(b.Prompts, Record{
			ID:           p.ID,
			Title:        p.Title,
			Category:     p.Category,
			AIModel:      deref(p.AIModel),
			PromptText:   p.PromptText,
			Priority:     string(p.Priority),
			Status:       string(p.Status),
			UseCase:      deref(p.UseCase),
			DeadlineDate: deref(p.DeadlineDate),
			Tags:         deref(p.Tags),
			CreatedAt:    p.CreatedAt.UTC().Format(timestampLayout),
			UpdatedAt:    p.UpdatedAt.UTC().Format(timestampLayout),
		})
	}
	return b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ack is a webhook's acknowledgement of a batch.
type Ack struct {
	StatusCode int
	// Body is the response body when it is valid JSON, nil otherwise.
	Body json.RawMessage
}

// Sink delivers a batch to the external system.
type Sink interface {
	Send(ctx context.Context, batch *Batch) (*Ack, error)
}

// Source is the slice of the query layer the workflow reads and marks.
type Source interface {
	SelectUnexported(ctx context.Context) ([]models.Prompt, error)
	MarkExported(ctx context.Context, ids []int64, at time.Time) (int, error)
}

// Result summarizes a run.
type Result struct {
	Message       string          `json:"message"`
	ExportedCount int             `json:"exportedCount,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
}

// Workflow runs exports. It holds no locks: two concurrent runs may both
// send an overlapping batch, and the receiving sheet must tolerate
// duplicates.
type Workflow struct {
	source Source
	sink   Sink
	now    func() time.Time
}

// NewWorkflow returns a workflow reading from source and sending to sink.
// A nil sink means exporting is not configured.
func NewWorkflow(source Source, sink Sink) *Workflow {
	return &Workflow{source: source, sink: sink, now: time.Now}
}

// Configured reports whether a sink is set.
func (w *Workflow) Configured() bool {
	return w.sink != nil
}

// Run exports every unexported prompt. With nothing to export it succeeds
// without contacting the sink, whether or not a sink is configured.
func (w *Workflow) Run(ctx context.Context) (*Result, error) {
	pending, err := w.source.SelectUnexported(ctx)
	if err != nil {
		return nil, err
	}

	if len(pending) == 0 {
		return &Result{Message: "No new prompts to export"}, nil
	}

	if w.sink == nil {
		return nil, ErrNotConfigured
	}

	ack, err := w.sink.Send(ctx, NewBatch(pending))
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(pending))
	for i, p := range pending {
		ids[i] = p.ID
	}

	marked, err := w.source.MarkExported(ctx, ids, w.now())
	if err != nil {
		slog.Error("mark exported failed",
			"marked", marked,
			"total", len(ids),
			"error", err,
		)
		return nil, &PartialError{Marked: marked, Total: len(ids), Err: err}
	}

	slog.Info("prompts exported",
		"count", len(pending),
		"marked", marked,
		"webhook_status", ack.StatusCode,
	)

	return &Result{
		Message:       fmt.Sprintf("%d prompts exported to Google Sheets", len(pending)),
		ExportedCount: len(pending),
		Details:       ack.Body,
	}, nil
}
