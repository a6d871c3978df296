// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package microfrontend

import (
	"strings"
	"sync"
)

// Container is the render surface a mounted bundle owns. The bundle writes
// into it through its capability bindings and the host reads the result,
// nothing outside the container is writable by the bundle.
type Container struct {
	id        string
	extension string

	mu    sync.Mutex
	lines []string
}

// NewContainer creates an empty render surface for the given extension,
// identified by the extension's declared root id.
func NewContainer(extension string, rootID string) *Container {
	return &Container{
		id:        rootID,
		extension: extension,
	}
}

// ID returns the root identifier the extension declared for its surface.
func (c *Container) ID() string {
	return c.id
}

// Extension returns the identity of the extension owning the surface.
func (c *Container) Extension() string {
	return c.extension
}

// SetContent replaces the surface's content.
func (c *Container) SetContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if content == "" {
		c.lines = nil
		return
	}

	c.lines = strings.Split(content, "\n")
}

// AppendLine adds a line to the surface.
func (c *Container) AppendLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = append(c.lines, line)
}

// Clear empties the surface.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
}

// Content returns the surface's current content.
func (c *Container) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return strings.Join(c.lines, "\n")
}

// Lines returns a copy of the surface's lines.
func (c *Container) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]string, len(c.lines))
	copy(snapshot, c.lines)
	return snapshot
}
