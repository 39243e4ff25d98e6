// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package client

import (
	"strings"

	"promptvault/internal/models"
)

// Filter narrows prompts locally the way the server's search does: q is a
// case-insensitive substring of the title, prompt text or tags, and
// category and status must match exactly. Empty arguments do not filter.
// The input order is preserved.
func Filter(prompts []models.Prompt, q, category string, status models.Status) []models.Prompt {
	q = strings.ToLower(q)

	out := make([]models.Prompt, 0, len(prompts))
	for _, p := range prompts {
		if q != "" && !matchesText(p, q) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesText(p models.Prompt, q string) bool {
	if strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.PromptText), q) {
		return true
	}
	return p.Tags != nil && strings.Contains(strings.ToLower(*p.Tags), q)
}
