// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package client is a Go client for the prompt API. It speaks only the
// HTTP contract and shares the record types with the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"promptvault/internal/export"
	"promptvault/internal/models"
)

// APIError is a non-2xx answer from the server. Message is the server's
// error text verbatim.
type APIError struct {
	StatusCode        int
	Message           string
	SetupInstructions string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// maxResponseBytes caps how much of an API response is read. The list
// endpoint is unbounded, so the cap is far above the webhook's.
const maxResponseBytes = 32 << 20

// Client calls the prompt API at a base URL such as http://localhost:8080.
type Client struct {
	baseURL string
	http    *http.Client
	maxBody int64
}

// New creates a client. A nil httpClient gets a default one with a
// 60 second timeout, long enough for an export round trip.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		maxBody: maxResponseBytes,
	}
}

type promptsBody struct {
	Prompts []models.Prompt `json:"prompts"`
}

type promptBody struct {
	Prompt *models.Prompt `json:"prompt"`
}

// List returns every prompt, newest first.
func (c *Client) List(ctx context.Context) ([]models.Prompt, error) {
	var out promptsBody
	if err := c.do(ctx, http.MethodGet, "/api/prompts", nil, &out); err != nil {
		return nil, err
	}
	return out.Prompts, nil
}

// Get returns one prompt.
func (c *Client) Get(ctx context.Context, id int64) (*models.Prompt, error) {
	var out promptBody
	if err := c.do(ctx, http.MethodGet, promptPath(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Prompt, nil
}

// Create stores a new prompt and returns it as persisted.
func (c *Client) Create(ctx context.Context, in *models.PromptInput) (*models.Prompt, error) {
	var out promptBody
	if err := c.do(ctx, http.MethodPost, "/api/prompts", in, &out); err != nil {
		return nil, err
	}
	return out.Prompt, nil
}

// Update applies a partial update and returns the full updated prompt.
func (c *Client) Update(ctx context.Context, id int64, patch *models.PromptPatch) (*models.Prompt, error) {
	var out promptBody
	if err := c.do(ctx, http.MethodPut, promptPath(id), patch, &out); err != nil {
		return nil, err
	}
	return out.Prompt, nil
}

// Delete removes a prompt.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, promptPath(id), nil, nil)
}

// Search runs a server-side search.
func (c *Client) Search(ctx context.Context, f models.SearchFilter) ([]models.Prompt, error) {
	q := url.Values{}
	if f.Text != "" {
		q.Set("q", f.Text)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}

	path := "/api/prompts/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out promptsBody
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Prompts, nil
}

// Stats returns the aggregate counts.
func (c *Client) Stats(ctx context.Context) (*models.PromptStats, error) {
	var out models.PromptStats
	if err := c.do(ctx, http.MethodGet, "/api/prompts/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export asks the server to push unexported prompts to the spreadsheet.
func (c *Client) Export(ctx context.Context) (*export.Result, error) {
	var out export.Result
	if err := c.do(ctx, http.MethodPost, "/api/prompts/export-to-sheets", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func promptPath(id int64) string {
	return "/api/prompts/" + strconv.FormatInt(id, 10)
}

// do sends in as the JSON body (when non-nil) and decodes a 2xx answer
// into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client marshal: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return fmt.Errorf("client read body: %w", err)
	}
	if int64(len(respBody)) > c.maxBody {
		return fmt.Errorf("client read body: response exceeds %d bytes", c.maxBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Error             string `json:"error"`
			SetupInstructions string `json:"setupInstructions"`
		}
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
			apiErr.SetupInstructions = e.SetupInstructions
		} else {
			apiErr.Message = fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("client unmarshal: %w", err)
	}
	return nil
}
