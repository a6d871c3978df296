// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package extensions

import (
	"context"
	"fmt"
	"sync"
)

// Catalog is the host's in-memory view of the extensions installed on the
// server. Reads are served from the cached snapshot until the catalog is
// invalidated, after which the next read refetches from the management API.
// Nothing is persisted locally.
type Catalog struct {
	client *ManagementClient

	mu       sync.Mutex
	entries  []*Extension
	valid    bool
	inflight chan struct{}
}

// NewCatalog creates a catalog backed by the given management client. The
// catalog starts invalid, the first read populates it.
func NewCatalog(client *ManagementClient) *Catalog {
	return &Catalog{
		client: client,
	}
}

// List returns every extension, refetching from the server when the cached
// snapshot has been invalidated. Concurrent callers share a single refetch.
func (c *Catalog) List(ctx context.Context) ([]*Extension, error) {
	for {
		c.mu.Lock()
		if c.valid {
			snapshot := c.entries
			c.mu.Unlock()
			return snapshot, nil
		}

		if c.inflight != nil {
			wait := c.inflight
			c.mu.Unlock()

			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		done := make(chan struct{})
		c.inflight = done
		c.mu.Unlock()

		entries, err := c.client.ListExtensions(ctx)

		c.mu.Lock()
		c.inflight = nil
		if err == nil {
			c.entries = entries
			c.valid = true
		}
		c.mu.Unlock()
		close(done)

		return entries, err
	}
}

// Get returns the named extension from the catalog.
func (c *Catalog) Get(ctx context.Context, name string) (*Extension, error) {
	entries, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, extension := range entries {
		if extension.Name == name {
			return extension, nil
		}
	}

	return nil, fmt.Errorf("'%s' %w", name, ErrExtensionNotFound)
}

// Invalidate marks the cached snapshot stale. The next read refetches. The
// snapshot itself stays untouched so readers holding it are unaffected.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
}

// Refresh forces a refetch, bypassing a still-valid snapshot.
func (c *Catalog) Refresh(ctx context.Context) ([]*Extension, error) {
	c.Invalidate()
	return c.List(ctx)
}
