// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"promptvault/internal/models"
)

// Validation limits for prompt fields.
const (
	maxTitleLen      = 300
	maxCategoryLen   = 100
	maxAIModelLen    = 100
	maxPromptTextLen = 100_000
	maxUseCaseLen    = 1_000
	maxTagsLen       = 500
)

// validateCreate checks a new prompt and returns the first error found.
func validateCreate(in *models.PromptInput) string {
	if msg := checkRequired("Title", in.Title, maxTitleLen); msg != "" {
		return msg
	}
	if msg := checkRequired("Category", in.Category, maxCategoryLen); msg != "" {
		return msg
	}
	if msg := checkRequired("Prompt text", in.PromptText, maxPromptTextLen); msg != "" {
		return msg
	}
	if in.Priority == "" {
		return "Priority is required."
	}
	if !in.Priority.Valid() {
		return invalidPriority(in.Priority)
	}
	if in.Status == "" {
		return "Status is required."
	}
	if !in.Status.Valid() {
		return invalidStatus(in.Status)
	}
	return checkOptionalFields(in.AIModel, in.UseCase, in.DeadlineDate, in.Tags)
}

// validatePatch applies the create rules to the fields a patch carries.
func validatePatch(p *models.PromptPatch) string {
	if p.Title != nil {
		if msg := checkRequired("Title", *p.Title, maxTitleLen); msg != "" {
			return msg
		}
	}
	if p.Category != nil {
		if msg := checkRequired("Category", *p.Category, maxCategoryLen); msg != "" {
			return msg
		}
	}
	if p.PromptText != nil {
		if msg := checkRequired("Prompt text", *p.PromptText, maxPromptTextLen); msg != "" {
			return msg
		}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return invalidPriority(*p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalidStatus(*p.Status)
	}
	return checkOptionalFields(deref(p.AIModel), deref(p.UseCase), deref(p.DeadlineDate), deref(p.Tags))
}

func checkOptionalFields(aiModel, useCase, deadline, tags string) string {
	if utf8.RuneCountInString(aiModel) > maxAIModelLen {
		return "AI model is too long (max 100 characters)."
	}
	if utf8.RuneCountInString(useCase) > maxUseCaseLen {
		return "Use case is too long (max 1,000 characters)."
	}
	if utf8.RuneCountInString(tags) > maxTagsLen {
		return "Tags are too long (max 500 characters)."
	}
	if deadline != "" {
		if _, err := time.Parse(models.DeadlineLayout, deadline); err != nil {
			return "Deadline date must be a valid date in YYYY-MM-DD format."
		}
	}
	return ""
}

func checkRequired(label, value string, max int) string {
	if strings.TrimSpace(value) == "" {
		return label + " is required."
	}
	if utf8.RuneCountInString(value) > max {
		return fmt.Sprintf("%s is too long (max %s characters).", label, groupThousands(max))
	}
	return ""
}

func invalidPriority(p models.Priority) string {
	return fmt.Sprintf("Invalid priority %q (expected low, medium or high).", p)
}

func invalidStatus(s models.Status) string {
	return fmt.Sprintf("Invalid status %q (expected draft, active, archived or testing).", s)
}

// groupThousands formats n with comma separators, e.g. 100000 as "100,000".
func groupThousands(n int) string {
	s := fmt.Sprint(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
