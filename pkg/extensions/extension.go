// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package extensions manages the dashboard's installed extensions: the
// catalog of what the server reports, lifecycle actions (install, enable,
// disable, uninstall) and extension configuration editing.
package extensions

// Status is the observed runtime state of an extension as reported by the
// server. It is distinct from the desired state expressed by Enabled: an
// extension that was just enabled may legitimately report StatusStopped
// until the server brings it up.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusError   Status = "error"
)

// UIDescriptor describes the optional micro-frontend an extension ships.
type UIDescriptor struct {
	// AssetsURL is the base URL the extension's bundle assets are served
	// from. An empty value means the extension has no UI.
	AssetsURL string `json:"assets_url"`

	// RootID is the identifier of the render surface the extension mounts
	// into.
	RootID string `json:"root_id"`
}

// Extension is a single installed extension as reported by the management
// API.
type Extension struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Description      string            `json:"description"`
	Author           string            `json:"author"`
	MinServerVersion string            `json:"min_server_version"`
	Permissions      []string          `json:"permissions"`
	Status           Status            `json:"status"`
	Enabled          bool              `json:"enabled"`
	Config           map[string]string `json:"config"`
	UI               *UIDescriptor     `json:"ui,omitempty"`
}

// HasUI reports whether the extension ships a loadable micro-frontend.
// Extensions without one are headless, which is a supported state and not an
// error.
func (e *Extension) HasUI() bool {
	return e.UI != nil && e.UI.AssetsURL != ""
}

// ConfigValue returns the configuration value stored under key.
func (e *Extension) ConfigValue(key string) (string, bool) {
	if e.Config == nil {
		return "", false
	}

	value, ok := e.Config[key]
	return value, ok
}
