// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store implements the query layer over the prompts table. The
// statements are written once with ? placeholders and rebound by sqlx for
// the connected engine, so the same PromptStore serves PostgreSQL and
// SQLite alike.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"promptvault/internal/models"
)

var (
	// ErrNotFound is returned when no prompt has the requested id.
	ErrNotFound = errors.New("prompt not found")

	// ErrNoFields is returned by Update for a patch that changes nothing.
	ErrNoFields = errors.New("no fields to update")
)

// PromptStore manages prompts in the database.
type PromptStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPromptStore returns a new PromptStore.
func NewPromptStore(db *sqlx.DB) *PromptStore {
	return &PromptStore{db: db, now: utcNow}
}

// utcNow truncates to microseconds, the finest precision PostgreSQL keeps,
// so a written timestamp reads back unchanged from either engine.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// A NULL export flag counts as not exported.
const promptColumns = `id, title, category, ai_model, prompt_text, priority, status,
	use_case, deadline_date, tags, created_at, updated_at,
	COALESCE(exported_to_sheets, FALSE) AS exported_to_sheets`

// Ping verifies the database is reachable.
func (s *PromptStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// List returns all prompts, newest first.
func (s *PromptStore) List(ctx context.Context) ([]models.Prompt, error) {
	items := []models.Prompt{}
	err := sqlx.SelectContext(ctx, s.db, &items,
		`SELECT `+promptColumns+` FROM prompts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	normalizeAll(items)
	return items, nil
}

// FindByID retrieves a prompt by id. Returns ErrNotFound if absent.
func (s *PromptStore) FindByID(ctx context.Context, id int64) (*models.Prompt, error) {
	return s.findByID(ctx, s.db, id)
}

func (s *PromptStore) findByID(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Prompt, error) {
	var p models.Prompt
	err := sqlx.GetContext(ctx, q, &p,
		s.db.Rebind(`SELECT `+promptColumns+` FROM prompts WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find prompt %d: %w", id, err)
	}
	normalize(&p)
	return &p, nil
}

// Create inserts a new prompt with created_at and updated_at both set to
// now, and returns the stored row.
func (s *PromptStore) Create(ctx context.Context, in *models.PromptInput) (*models.Prompt, error) {
	now := s.now()

	var id int64
	err := sqlx.GetContext(ctx, s.db, &id, s.db.Rebind(`
		INSERT INTO prompts (title, category, ai_model, prompt_text, priority, status,
			use_case, deadline_date, tags, created_at, updated_at, exported_to_sheets)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE)
		RETURNING id`),
		in.Title, in.Category, nullable(in.AIModel), in.PromptText,
		string(in.Priority), string(in.Status), nullable(in.UseCase),
		nullable(in.DeadlineDate), nullable(in.Tags), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create prompt: %w", err)
	}

	return s.FindByID(ctx, id)
}

// patchColumn maps one PromptPatch field to its column.
type patchColumn struct {
	column string
	value  func(p *models.PromptPatch) (any, bool)
}

var patchColumns = []patchColumn{
	{"title", func(p *models.PromptPatch) (any, bool) { return required(p.Title) }},
	{"category", func(p *models.PromptPatch) (any, bool) { return required(p.Category) }},
	{"ai_model", func(p *models.PromptPatch) (any, bool) { return optional(p.AIModel) }},
	{"prompt_text", func(p *models.PromptPatch) (any, bool) { return required(p.PromptText) }},
	{"priority", func(p *models.PromptPatch) (any, bool) {
		if p.Priority == nil {
			return nil, false
		}
		return string(*p.Priority), true
	}},
	{"status", func(p *models.PromptPatch) (any, bool) {
		if p.Status == nil {
			return nil, false
		}
		return string(*p.Status), true
	}},
	{"use_case", func(p *models.PromptPatch) (any, bool) { return optional(p.UseCase) }},
	{"deadline_date", func(p *models.PromptPatch) (any, bool) { return optional(p.DeadlineDate) }},
	{"tags", func(p *models.PromptPatch) (any, bool) { return optional(p.Tags) }},
}

// Update writes the fields present in patch plus updated_at and returns
// the full updated prompt. An empty patch fails with ErrNoFields before the
// prompt is looked up; a missing prompt fails with ErrNotFound.
func (s *PromptStore) Update(ctx context.Context, id int64, patch *models.PromptPatch) (*models.Prompt, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, ErrNoFields
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := s.findByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	// updated_at must strictly increase even if the clock has not moved.
	now := s.now()
	if !now.After(current.UpdatedAt) {
		now = current.UpdatedAt.Add(time.Microsecond)
	}

	var (
		sets []string
		args []any
	)
	for _, pc := range patchColumns {
		if v, ok := pc.value(patch); ok {
			sets = append(sets, pc.column+" = ?")
			args = append(args, v)
		}
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now, id)

	query := s.db.Rebind(`UPDATE prompts SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update prompt %d: %w", id, err)
	}

	updated, err := s.findByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update prompt %d: %w", id, err)
	}
	return updated, nil
}

// Delete removes a prompt by id. Returns ErrNotFound if absent.
func (s *PromptStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM prompts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete prompt %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete prompt %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Search returns the prompts matching f, newest first. Text matches
// title, prompt_text or tags as a case-insensitive substring; category and
// status must match exactly. A zero filter returns every prompt.
func (s *PromptStore) Search(ctx context.Context, f models.SearchFilter) ([]models.Prompt, error) {
	var (
		where []string
		args  []any
	)

	if f.Text != "" {
		term := "%" + escapeLike(strings.ToLower(f.Text)) + "%"
		where = append(where, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(prompt_text) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\')`)
		args = append(args, term, term, term)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `SELECT ` + promptColumns + ` FROM prompts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	items := []models.Prompt{}
	if err := sqlx.SelectContext(ctx, s.db, &items, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("search prompts: %w", err)
	}
	normalizeAll(items)
	return items, nil
}

// Stats returns the total prompt count and per-status, per-category and
// per-priority breakdowns, each ordered by key.
func (s *PromptStore) Stats(ctx context.Context) (*models.PromptStats, error) {
	stats := &models.PromptStats{
		ByStatus:   []models.StatusCount{},
		ByCategory: []models.CategoryCount{},
		ByPriority: []models.PriorityCount{},
	}

	if err := sqlx.GetContext(ctx, s.db, &stats.Total, `SELECT COUNT(*) FROM prompts`); err != nil {
		return nil, fmt.Errorf("count prompts: %w", err)
	}
	if err := sqlx.SelectContext(ctx, s.db, &stats.ByStatus,
		`SELECT status, COUNT(*) AS count FROM prompts GROUP BY status ORDER BY status`); err != nil {
		return nil, fmt.Errorf("count prompts by status: %w", err)
	}
	if err := sqlx.SelectContext(ctx, s.db, &stats.ByCategory,
		`SELECT category, COUNT(*) AS count FROM prompts GROUP BY category ORDER BY category`); err != nil {
		return nil, fmt.Errorf("count prompts by category: %w", err)
	}
	if err := sqlx.SelectContext(ctx, s.db, &stats.ByPriority,
		`SELECT priority, COUNT(*) AS count FROM prompts GROUP BY priority ORDER BY priority`); err != nil {
		return nil, fmt.Errorf("count prompts by priority: %w", err)
	}
	return stats, nil
}

// SelectUnexported returns prompts whose export flag is false or unset,
// oldest first.
func (s *PromptStore) SelectUnexported(ctx context.Context) ([]models.Prompt, error) {
	items := []models.Prompt{}
	err := sqlx.SelectContext(ctx, s.db, &items, `
		SELECT `+promptColumns+` FROM prompts
		WHERE exported_to_sheets = FALSE OR exported_to_sheets IS NULL
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("select unexported prompts: %w", err)
	}
	normalizeAll(items)
	return items, nil
}

// MarkExported flags each prompt in ids as exported and sets its
// updated_at to at, or to just after the stored updated_at when that is
// not earlier than at. Ids are written one transaction at a time, so a
// failure or cancellation part-way leaves the earlier ids marked. It
// returns the number of prompts marked; ids that no longer exist are
// skipped.
func (s *PromptStore) MarkExported(ctx context.Context, ids []int64, at time.Time) (int, error) {
	at = at.UTC().Truncate(time.Microsecond)

	marked := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return marked, err
		}
		ok, err := s.markExported(ctx, id, at)
		if err != nil {
			return marked, err
		}
		if ok {
			marked++
		}
	}
	return marked, nil
}

func (s *PromptStore) markExported(ctx context.Context, id int64, at time.Time) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := s.findByID(ctx, tx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !at.After(current.UpdatedAt) {
		at = current.UpdatedAt.Add(time.Microsecond)
	}

	query := s.db.Rebind(`UPDATE prompts SET exported_to_sheets = TRUE, updated_at = ? WHERE id = ?`)
	if _, err := tx.ExecContext(ctx, query, at, id); err != nil {
		return false, fmt.Errorf("mark prompt %d exported: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit mark prompt %d exported: %w", id, err)
	}
	return true, nil
}

// normalize puts scanned timestamps in UTC; SQLite hands them back with a
// fixed zero offset rather than time.UTC.
func normalize(p *models.Prompt) {
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
}

func normalizeAll(items []models.Prompt) {
	for i := range items {
		normalize(&items[i])
	}
}

// nullable maps an empty optional field to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func required(s *string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return *s, true
}

func optional(s *string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return nullable(*s), true
}

// escapeLike escapes LIKE wildcards so the term matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
