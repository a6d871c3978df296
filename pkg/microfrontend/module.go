// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package microfrontend loads extension UI bundles and manages their mount
// lifecycle. A bundle is fetched from the extension's asset location,
// executed exactly once per extension identity inside a sandboxed engine,
// and mounted into a host-owned container through a narrow, validated hook
// surface. Bundles are untrusted: nothing they do may crash the host.
package microfrontend

import (
	"context"
	"log"
)

// Severity classifies a notification raised by a bundle.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity maps a bundle-supplied severity string onto a known
// severity. Unknown values degrade to info, a bad argument from untrusted
// code is not an error.
func ParseSeverity(value string) Severity {
	switch Severity(value) {
	case SeveritySuccess, SeverityWarning, SeverityError:
		return Severity(value)
	default:
		return SeverityInfo
	}
}

// Module is the host-side view of an executed bundle: the narrow capability
// surface the loader manages. Implementations adapt whatever the bundle
// registered, the loader checks HasMount/HasUnmount before invoking since
// registered members of untrusted code may not be callable.
type Module interface {
	// HasMount reports whether the bundle registered a callable mount hook.
	HasMount() bool

	// HasUnmount reports whether the bundle registered a callable unmount
	// hook.
	HasUnmount() bool

	// Mount hands the container and mount context to the bundle's mount
	// hook.
	Mount(ctx context.Context, container *Container, mountCtx *MountContext) error

	// Unmount invokes the bundle's unmount hook.
	Unmount(ctx context.Context) error
}

// Engine executes bundle source and adapts the result into a Module.
type Engine interface {
	Execute(ctx context.Context, identity string, source []byte) (Module, error)
}

// Notifier receives user-visible notifications raised by bundles through
// their capability API.
type Notifier interface {
	Notify(extension string, message string, severity Severity)
}

// LogNotifier is a Notifier that writes notifications to the diagnostic log.
// Hosts that surface notifications to the user install their own.
type LogNotifier struct{}

func (LogNotifier) Notify(extension string, message string, severity Severity) {
	log.Printf("[%s] %s: %s", severity, extension, message)
}

// HostAPI is the restricted capability surface a mounted bundle receives:
// user-visible notifications and a read-only view of the extension's
// configuration. Nothing else of the host is reachable through it.
type HostAPI interface {
	// Notify raises a user-visible message.
	Notify(message string, severity Severity)

	// Config returns the configuration snapshot taken at mount time. The
	// bundle must re-mount to observe configuration changes.
	Config() map[string]string
}

type hostAPI struct {
	extension string
	notifier  Notifier
	config    map[string]string
}

func newHostAPI(extension string, notifier Notifier, config map[string]string) HostAPI {
	snapshot := make(map[string]string, len(config))
	for k, v := range config {
		snapshot[k] = v
	}

	return &hostAPI{
		extension: extension,
		notifier:  notifier,
		config:    snapshot,
	}
}

func (a *hostAPI) Notify(message string, severity Severity) {
	a.notifier.Notify(a.extension, message, severity)
}

func (a *hostAPI) Config() map[string]string {
	snapshot := make(map[string]string, len(a.config))
	for k, v := range a.config {
		snapshot[k] = v
	}

	return snapshot
}

// MountContext is everything a bundle receives when it mounts: its identity,
// the render surface id, a configuration snapshot and the capability API.
type MountContext struct {
	Extension string
	RootID    string

	// Config is the extension's configuration at mount time, not live-bound.
	Config map[string]string

	API HostAPI
}
