// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package client

import (
	"context"
	"slices"
	"sync"

	"promptvault/internal/export"
	"promptvault/internal/models"
)

// Cache is a local copy of the prompt list, newest first, keyed by id.
type Cache struct {
	mu      sync.RWMutex
	prompts []models.Prompt
}

// Replace swaps the whole cached list.
func (c *Cache) Replace(prompts []models.Prompt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = slices.Clone(prompts)
}

// Prompts returns a copy of the cached list.
func (c *Cache) Prompts() []models.Prompt {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.prompts)
}

// Get returns the cached prompt with id.
func (c *Cache) Get(id int64) (models.Prompt, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.prompts[i], true
	}
	return models.Prompt{}, false
}

// Add puts a newly created prompt at the front.
func (c *Cache) Add(p models.Prompt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = slices.Insert(c.prompts, 0, p)
}

// Put replaces the cached prompt with the same id, in place. Unknown ids
// are ignored.
func (c *Cache) Put(p models.Prompt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(p.ID); i >= 0 {
		c.prompts[i] = p
	}
}

// Remove drops the prompt with id.
func (c *Cache) Remove(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(id); i >= 0 {
		c.prompts = slices.Delete(c.prompts, i, i+1)
	}
}

// Len returns the number of cached prompts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prompts)
}

func (c *Cache) index(id int64) int {
	return slices.IndexFunc(c.prompts, func(p models.Prompt) bool { return p.ID == id })
}

// Session keeps a Cache in step with a Client: each successful mutation
// is applied to the cache without refetching the list. A failed call
// leaves the cache untouched.
type Session struct {
	Client *Client
	Cache  *Cache
}

// NewSession creates a session with an empty cache.
func NewSession(c *Client) *Session {
	return &Session{Client: c, Cache: &Cache{}}
}

// Refresh reloads the cache from the server.
func (s *Session) Refresh(ctx context.Context) error {
	prompts, err := s.Client.List(ctx)
	if err != nil {
		return err
	}
	s.Cache.Replace(prompts)
	return nil
}

// Create stores a prompt and adds it to the cache.
func (s *Session) Create(ctx context.Context, in *models.PromptInput) (*models.Prompt, error) {
	p, err := s.Client.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.Cache.Add(*p)
	return p, nil
}

// Update patches a prompt and replaces the cached copy.
func (s *Session) Update(ctx context.Context, id int64, patch *models.PromptPatch) (*models.Prompt, error) {
	p, err := s.Client.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.Cache.Put(*p)
	return p, nil
}

// Delete removes a prompt and drops it from the cache.
func (s *Session) Delete(ctx context.Context, id int64) error {
	if err := s.Client.Delete(ctx, id); err != nil {
		return err
	}
	s.Cache.Remove(id)
	return nil
}

// Export runs an export and then reloads the cache so the exported flags
// are current.
func (s *Session) Export(ctx context.Context) (*export.Result, error) {
	res, err := s.Client.Export(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// Filtered applies Filter to the cached list.
func (s *Session) Filtered(q, category string, status models.Status) []models.Prompt {
	return Filter(s.Cache.Prompts(), q, category, status)
}
