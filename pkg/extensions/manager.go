// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package extensions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/kubelens/kubelens/pkg/async"
)

var (
	ErrExtensionNotFound = errors.New("extension not found")
	ErrInvalidArchive    = errors.New("extension archives must be .tar.gz or .tgz files")
	ErrEmptyArchive      = errors.New("extension archive is empty")
)

// archiveSuffixes are the upload formats the server accepts. The check runs
// client side so an obviously wrong file never leaves the machine.
var archiveSuffixes = []string{".tar.gz", ".tgz"}

// Manager drives extension lifecycle operations against the management API
// and keeps the catalog consistent afterwards. Lifecycle calls are
// fire-and-forget: the manager reports the outcome of the request itself and
// relies on catalog refreshes to observe the server's progress.
type Manager struct {
	client  *ManagementClient
	catalog *Catalog
}

// NewManager creates a new extension lifecycle manager.
func NewManager(client *ManagementClient, catalog *Catalog) *Manager {
	return &Manager{
		client:  client,
		catalog: catalog,
	}
}

// Install uploads the archive at archivePath to the server, reporting percent
// progress. New extensions appear in the catalog disabled and stopped, a
// separate Enable call starts them.
func (m *Manager) Install(ctx context.Context, archivePath string, progress *async.Progress[int]) (*UploadResult, error) {
	if !hasArchiveSuffix(archivePath) {
		return nil, fmt.Errorf("'%s' %w", archivePath, ErrInvalidArchive)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("reading extension archive: %w", err)
	}

	if info.Size() == 0 {
		return nil, fmt.Errorf("'%s' %w", archivePath, ErrEmptyArchive)
	}

	result, err := m.client.UploadExtension(ctx, archivePath, progress)
	if err != nil {
		return nil, err
	}

	log.Printf("installed extension archive %s", archivePath)
	m.catalog.Invalidate()

	return result, nil
}

// Enable requests the extension be started. The request is idempotent:
// enabling an already enabled extension succeeds without side effects.
func (m *Manager) Enable(ctx context.Context, name string) error {
	if err := m.client.EnableExtension(ctx, name); err != nil {
		return err
	}

	m.catalog.Invalidate()
	return nil
}

// Disable requests the extension be stopped. Any mounted UI belonging to the
// extension should be torn down by the caller, the server only stops the
// backend part.
func (m *Manager) Disable(ctx context.Context, name string) error {
	if err := m.client.DisableExtension(ctx, name); err != nil {
		return err
	}

	m.catalog.Invalidate()
	return nil
}

// Uninstall removes the extension from the server. Confirmation must happen
// before calling: this operation is destructive and takes effect immediately.
func (m *Manager) Uninstall(ctx context.Context, name string) error {
	if err := m.client.DeleteExtension(ctx, name); err != nil {
		return err
	}

	log.Printf("uninstalled extension %s", name)
	m.catalog.Invalidate()

	return nil
}

// SaveConfig replaces the extension's configuration on the server. On
// success the catalog entry is invalidated so the next read observes the new
// configuration. On failure the server keeps its previous configuration and
// the caller keeps its local edits.
func (m *Manager) SaveConfig(ctx context.Context, name string, cfg map[string]string) error {
	if err := m.client.UpdateConfig(ctx, name, cfg); err != nil {
		return err
	}

	m.catalog.Invalidate()
	return nil
}

func hasArchiveSuffix(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	return false
}
