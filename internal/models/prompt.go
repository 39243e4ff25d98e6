// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Priority ranks how urgent a prompt is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status represents the lifecycle state of a prompt.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusTesting  Status = "testing"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived, StatusTesting:
		return true
	}
	return false
}

// DeadlineLayout is the wire and storage format of Prompt.DeadlineDate.
const DeadlineLayout = "2006-01-02"

// Prompt is a single AI prompt record. Optional text fields are nil when
// unset and serialize as JSON null.
type Prompt struct {
	ID               int64     `json:"id" db:"id"`
	Title            string    `json:"title" db:"title"`
	Category         string    `json:"category" db:"category"`
	AIModel          *string   `json:"ai_model" db:"ai_model"`
	PromptText       string    `json:"prompt_text" db:"prompt_text"`
	Priority         Priority  `json:"priority" db:"priority"`
	Status           Status    `json:"status" db:"status"`
	UseCase          *string   `json:"use_case" db:"use_case"`
	DeadlineDate     *string   `json:"deadline_date" db:"deadline_date"`
	Tags             *string   `json:"tags" db:"tags"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
	ExportedToSheets bool      `json:"exported_to_sheets" db:"exported_to_sheets"`
}

// PromptInput carries the fields of a new prompt. Empty optional fields are
// persisted as NULL.
type PromptInput struct {
	Title        string   `json:"title"`
	Category     string   `json:"category"`
	AIModel      string   `json:"ai_model"`
	PromptText   string   `json:"prompt_text"`
	Priority     Priority `json:"priority"`
	Status       Status   `json:"status"`
	UseCase      string   `json:"use_case"`
	DeadlineDate string   `json:"deadline_date"`
	Tags         string   `json:"tags"`
}

// PromptPatch is a partial update. Only non-nil fields are written; a
// non-nil pointer to an empty optional field clears it.
type PromptPatch struct {
	Title        *string   `json:"title,omitempty"`
	Category     *string   `json:"category,omitempty"`
	AIModel      *string   `json:"ai_model,omitempty"`
	PromptText   *string   `json:"prompt_text,omitempty"`
	Priority     *Priority `json:"priority,omitempty"`
	Status       *Status   `json:"status,omitempty"`
	UseCase      *string   `json:"use_case,omitempty"`
	DeadlineDate *string   `json:"deadline_date,omitempty"`
	Tags         *string   `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p *PromptPatch) IsEmpty() bool {
	return p.Title == nil && p.Category == nil && p.AIModel == nil &&
		p.PromptText == nil && p.Priority == nil && p.Status == nil &&
		p.UseCase == nil && p.DeadlineDate == nil && p.Tags == nil
}

// SearchFilter narrows a prompt listing. Zero-valued fields do not filter.
type SearchFilter struct {
	Text     string
	Category string
	Status   Status
}

// IsZero reports whether the filter matches every prompt.
func (f SearchFilter) IsZero() bool {
	return f.Text == "" && f.Category == "" && f.Status == ""
}

// StatusCount is one row of the per-status breakdown.
type StatusCount struct {
	Status Status `json:"status" db:"status"`
	Count  int    `json:"count" db:"count"`
}

// CategoryCount is one row of the per-category breakdown.
type CategoryCount struct {
	Category string `json:"category" db:"category"`
	Count    int    `json:"count" db:"count"`
}

// PriorityCount is one row of the per-priority breakdown.
type PriorityCount struct {
	Priority Priority `json:"priority" db:"priority"`
	Count    int      `json:"count" db:"count"`
}

// PromptStats aggregates prompt counts for the dashboard.
type PromptStats struct {
	Total      int             `json:"total"`
	ByStatus   []StatusCount   `json:"byStatus"`
	ByCategory []CategoryCount `json:"byCategory"`
	ByPriority []PriorityCount `json:"byPriority"`
}
