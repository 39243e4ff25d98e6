// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the prompt API.
// Handlers receive their dependencies through the handler struct and
// answer with JSON only.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"promptvault/internal/cache"
	"promptvault/internal/export"
	"promptvault/internal/middleware"
	"promptvault/internal/models"
	"promptvault/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

const webhookUnreachable = "Could not reach the spreadsheet webhook"

// Prompts groups the prompt API handlers and their dependencies.
type Prompts struct {
	store    *store.PromptStore
	cache    *cache.QueryCache
	exporter *export.Workflow
}

// NewPrompts creates the prompt handlers. queryCache may be nil, which
// disables caching.
func NewPrompts(promptStore *store.PromptStore, queryCache *cache.QueryCache, exporter *export.Workflow) *Prompts {
	return &Prompts{
		store:    promptStore,
		cache:    queryCache,
		exporter: exporter,
	}
}

type promptsResponse struct {
	Prompts []models.Prompt `json:"prompts"`
}

type promptResponse struct {
	Prompt *models.Prompt `json:"prompt"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error             string `json:"error"`
	SetupInstructions string `json:"setupInstructions,omitempty"`
}

// List returns every prompt, newest first.
func (h *Prompts) List(w http.ResponseWriter, r *http.Request) {
	if prompts, ok := h.cache.List(r.Context()); ok {
		writeJSON(w, http.StatusOK, promptsResponse{Prompts: prompts})
		return
	}

	gen := h.cache.Generation(r.Context())
	prompts, err := h.store.List(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to fetch prompts", err)
		return
	}

	h.cache.SetList(r.Context(), gen, prompts)
	writeJSON(w, http.StatusOK, promptsResponse{Prompts: prompts})
}

// Get returns a single prompt.
func (h *Prompts) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}

	p, err := h.store.FindByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Prompt not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "Failed to fetch prompt", err)
		return
	}

	writeJSON(w, http.StatusOK, promptResponse{Prompt: p})
}

// Create stores a new prompt and returns it with 201.
func (h *Prompts) Create(w http.ResponseWriter, r *http.Request) {
	var in models.PromptInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if msg := validateCreate(&in); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	p, err := h.store.Create(r.Context(), &in)
	if err != nil {
		h.serverError(w, r, "Failed to create prompt", err)
		return
	}

	h.cache.InvalidateAll(r.Context())
	slog.Info("prompt created", "id", p.ID, "request_id", middleware.GetRequestID(r.Context()))
	writeJSON(w, http.StatusCreated, promptResponse{Prompt: p})
}

// Update applies a partial update and returns the full updated prompt.
func (h *Prompts) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}

	var patch models.PromptPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	if msg := validatePatch(&patch); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	p, err := h.store.Update(r.Context(), id, &patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Prompt not found")
		return
	case errors.Is(err, store.ErrNoFields):
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	case err != nil:
		h.serverError(w, r, "Failed to update prompt", err)
		return
	}

	h.cache.InvalidateAll(r.Context())
	writeJSON(w, http.StatusOK, promptResponse{Prompt: p})
}

// Delete removes a prompt.
func (h *Prompts) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}

	err := h.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Prompt not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "Failed to delete prompt", err)
		return
	}

	h.cache.InvalidateAll(r.Context())
	slog.Info("prompt deleted", "id", id, "request_id", middleware.GetRequestID(r.Context()))
	writeJSON(w, http.StatusOK, messageResponse{Message: "Prompt deleted successfully"})
}

// Search filters prompts by the q, category and status query parameters.
// An empty result is not an error.
func (h *Prompts) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.SearchFilter{
		Text:     q.Get("q"),
		Category: q.Get("category"),
		Status:   models.Status(q.Get("status")),
	}

	prompts, err := h.store.Search(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, "Failed to search prompts", err)
		return
	}

	writeJSON(w, http.StatusOK, promptsResponse{Prompts: prompts})
}

// Stats returns the total and per-status, per-category and per-priority
// counts.
func (h *Prompts) Stats(w http.ResponseWriter, r *http.Request) {
	if stats, ok := h.cache.Stats(r.Context()); ok {
		writeJSON(w, http.StatusOK, stats)
		return
	}

	gen := h.cache.Generation(r.Context())
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to fetch statistics", err)
		return
	}

	h.cache.SetStats(r.Context(), gen, stats)
	writeJSON(w, http.StatusOK, stats)
}

// Export pushes every unexported prompt to the spreadsheet webhook.
func (h *Prompts) Export(w http.ResponseWriter, r *http.Request) {
	res, err := h.exporter.Run(r.Context())

	var (
		upErr   *export.UpstreamError
		partial *export.PartialError
	)
	switch {
	case err == nil:
		if res.ExportedCount > 0 {
			h.cache.InvalidateAll(r.Context())
		}
		writeJSON(w, http.StatusOK, res)

	case errors.Is(err, export.ErrNotConfigured):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:             err.Error(),
			SetupInstructions: export.SetupInstructions,
		})

	case errors.As(err, &upErr):
		slog.Error("export webhook failed",
			"status", upErr.StatusCode,
			"error", upErr,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		// Transport errors name the webhook URL, which is a credential.
		msg := upErr.Error()
		if upErr.StatusCode == 0 {
			msg = webhookUnreachable
		}
		writeError(w, http.StatusInternalServerError, msg)

	case errors.As(err, &partial):
		h.cache.InvalidateAll(r.Context())
		writeError(w, http.StatusInternalServerError, fmt.Sprintf(
			"Exported %d prompts but only %d were marked as exported; the rest will be sent again on the next export",
			partial.Total, partial.Marked))

	default:
		h.serverError(w, r, "Failed to export to Google Sheets", err)
	}
}

// serverError logs err and answers 500 with a message safe to show.
func (h *Prompts) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg,
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	writeError(w, http.StatusInternalServerError, msg)
}

// promptID parses the {id} URL parameter, answering 400 when it is not
// an integer.
func promptID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid prompt ID")
		return 0, false
	}
	return id, true
}

// decodeJSON reads a size-limited JSON body into dst, answering 400 on
// malformed input. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "Request body is required")
	default:
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
	}
	return false
}

// writeJSON encodes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
