// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package microfrontend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"dario.cat/mergo"
	"github.com/google/uuid"
	"github.com/kubelens/kubelens/pkg/extensions"
)

// State is a load attempt's lifecycle state.
type State string

const (
	// StateIdle is the initial state before loading begins.
	StateIdle State = "idle"

	// StateLoading covers asset fetching and bundle execution.
	StateLoading State = "loading"

	// StateMounted means the bundle's mount hook ran and the matching
	// unmount will run at teardown.
	StateMounted State = "mounted"

	// StateSelfRendering means the bundle executed but registered no mount
	// hook: it renders as a side effect of execution. Not an error.
	StateSelfRendering State = "self-rendering"

	// StateNoUI means the extension declares no assets. Not an error.
	StateNoUI State = "no-ui"

	// StateError means the script failed to fetch or execute, or the mount
	// hook failed.
	StateError State = "error"
)

// ErrAlreadyLoaded is returned when an instance is loaded a second time.
// Each instance represents exactly one load attempt.
var ErrAlreadyLoaded = errors.New("extension instance already loaded")

// LoaderOptions tunes asset naming. The zero value selects the standard
// bundle layout.
type LoaderOptions struct {
	// ScriptName is the bundle's script asset, relative to the asset base.
	ScriptName string

	// StylesheetName is the bundle's stylesheet asset, relative to the
	// asset base.
	StylesheetName string
}

// DefaultLoaderOptions is the standard bundle asset layout.
var DefaultLoaderOptions = LoaderOptions{
	ScriptName:     "index.js",
	StylesheetName: "index.css",
}

// Loader drives the bundle loading protocol: stylesheet (non-fatal), script
// (fetched and executed exactly once per extension identity), then mount
// into a host-owned container. Loads of different extensions are
// independent, concurrent loads of the same identity collapse onto a single
// script execution.
type Loader struct {
	document *Document
	registry *Registry
	engine   Engine
	source   AssetSource
	notifier Notifier
	options  LoaderOptions

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

// NewLoader creates a loader. The document, registry, engine and asset
// source are injectable so hosts and tests control every boundary.
func NewLoader(
	document *Document,
	registry *Registry,
	engine Engine,
	source AssetSource,
	notifier Notifier,
	options *LoaderOptions,
) *Loader {
	mergedOptions := LoaderOptions{}
	if options != nil {
		if err := mergo.Merge(&mergedOptions, options); err != nil {
			panic(err)
		}
	}
	if err := mergo.Merge(&mergedOptions, DefaultLoaderOptions); err != nil {
		panic(err)
	}

	if notifier == nil {
		notifier = LogNotifier{}
	}

	return &Loader{
		document: document,
		registry: registry,
		engine:   engine,
		source:   source,
		notifier: notifier,
		options:  mergedOptions,
		inflight: map[string]chan struct{}{},
	}
}

// Instance is one load attempt of one extension's UI. The host creates it
// with [NewInstance] before loading so teardown can reach a load still in
// flight: once [Loader.Unload] runs, late completions no longer mount.
type Instance struct {
	id         string
	descriptor *extensions.Extension
	container  *Container

	mu      sync.Mutex
	state   State
	loadErr error
	module  Module
	mounted bool
	done    bool
}

// NewInstance prepares a load attempt for the extension. The returned
// instance is the host's handle for observing state and tearing down.
func NewInstance(extension *extensions.Extension) *Instance {
	rootID := ""
	if extension.UI != nil {
		rootID = extension.UI.RootID
	}

	return &Instance{
		id:         uuid.NewString(),
		descriptor: extension,
		container:  NewContainer(extension.Name, rootID),
		state:      StateIdle,
	}
}

// ID is the unique identifier of this load attempt.
func (i *Instance) ID() string {
	return i.id
}

// Extension is the identity of the extension being loaded.
func (i *Instance) Extension() string {
	return i.descriptor.Name
}

// Container is the render surface owned by this instance.
func (i *Instance) Container() *Container {
	return i.container
}

// State returns the instance's current lifecycle state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.state
}

// Err returns the failure that moved the instance into StateError.
func (i *Instance) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.loadErr
}

// begin moves the instance from idle to loading. It reports false when the
// instance was already used or torn down.
func (i *Instance) begin() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.done || i.state != StateIdle {
		return false
	}

	i.state = StateLoading
	return true
}

func (i *Instance) setState(state State) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.state = state
}

func (i *Instance) fail(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.state = StateError
	i.loadErr = err
}

func (i *Instance) isDone() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.done
}

// markMounted records a successful mount. It reports false when the
// instance was torn down while the mount hook ran, in which case the caller
// owes the module an immediate unmount.
func (i *Instance) markMounted(module Module) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.done {
		return false
	}

	i.state = StateMounted
	i.module = module
	i.mounted = true
	return true
}

// finish marks the instance torn down and reports whether an unmount is
// owed. Idempotent, only the first call owes the unmount.
func (i *Instance) finish() (Module, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.done {
		return nil, false
	}

	i.done = true
	return i.module, i.mounted
}

// Load runs the loading protocol for the instance's extension. The returned
// error mirrors the instance's StateError for callers that branch, it never
// panics and never affects other extensions.
func (l *Loader) Load(ctx context.Context, instance *Instance) error {
	if !instance.begin() {
		return ErrAlreadyLoaded
	}

	extension := instance.descriptor
	if !extension.HasUI() {
		instance.setState(StateNoUI)
		return nil
	}

	identity := extension.Name
	base := extension.UI.AssetsURL

	l.attachStylesheet(ctx, identity, base)

	if err := l.ensureScript(ctx, identity, base); err != nil {
		instance.fail(err)
		return err
	}

	// The owning view may have been torn down while assets were in flight.
	// A late completion must not mount into a dead container.
	if instance.isDone() {
		return nil
	}

	module, ok := l.registry.Lookup(identity)
	if !ok || !module.HasMount() {
		instance.setState(StateSelfRendering)
		return nil
	}

	mountCtx := &MountContext{
		Extension: identity,
		RootID:    instance.container.ID(),
		Config:    snapshotConfig(extension.Config),
		API:       newHostAPI(identity, l.notifier, extension.Config),
	}

	if err := invokeMount(ctx, module, instance.container, mountCtx); err != nil {
		err = fmt.Errorf("mounting '%s': %w", identity, err)
		instance.fail(err)
		return err
	}

	if !instance.markMounted(module) {
		l.unmount(ctx, identity, module)
		return nil
	}

	return nil
}

// Unload tears the instance down. If the instance recorded a successful
// mount, the bundle's unmount hook runs, its failures are logged and
// swallowed: a misbehaving extension must not disturb the teardown.
func (l *Loader) Unload(ctx context.Context, instance *Instance) {
	module, mounted := instance.finish()
	if mounted && module != nil {
		l.unmount(ctx, instance.Extension(), module)
	}

	instance.container.Clear()
}

// Invalidate drops the identity's attached assets so the next load fetches
// and executes the bundle again. Development mode calls this when bundle
// files change.
func (l *Loader) Invalidate(identity string) {
	l.document.Remove(identity)
}

func (l *Loader) unmount(ctx context.Context, identity string, module Module) {
	if !module.HasUnmount() {
		return
	}

	if err := invokeUnmount(ctx, module); err != nil {
		log.Printf("unmount of '%s' failed: %v", identity, err)
	}
}

// attachStylesheet fetches and records the identity's stylesheet. Failures
// are logged and swallowed: missing style never blocks mounting.
func (l *Loader) attachStylesheet(ctx context.Context, identity string, base string) {
	if l.document.HasStylesheet(identity) {
		return
	}

	location := l.source.Resolve(base, l.options.StylesheetName)
	if _, err := l.source.Fetch(ctx, location); err != nil {
		log.Printf("stylesheet for '%s' unavailable: %v", identity, err)
		return
	}

	l.document.AttachStylesheet(identity, location)
}

// ensureScript fetches, executes and records the identity's script exactly
// once. Concurrent callers for the same identity wait for the in-flight
// execution instead of fetching again.
func (l *Loader) ensureScript(ctx context.Context, identity string, base string) error {
	for {
		l.mu.Lock()
		if l.document.HasScript(identity) {
			l.mu.Unlock()
			return nil
		}

		if wait, ok := l.inflight[identity]; ok {
			l.mu.Unlock()

			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		done := make(chan struct{})
		l.inflight[identity] = done
		l.mu.Unlock()

		err := l.loadScript(ctx, identity, base)

		l.mu.Lock()
		delete(l.inflight, identity)
		l.mu.Unlock()
		close(done)

		return err
	}
}

func (l *Loader) loadScript(ctx context.Context, identity string, base string) error {
	location := l.source.Resolve(base, l.options.ScriptName)

	source, err := l.source.Fetch(ctx, location)
	if err != nil {
		return fmt.Errorf("loading script '%s': %w", location, err)
	}

	module, err := l.engine.Execute(ctx, identity, source)
	if err != nil {
		return fmt.Errorf("executing script '%s': %w", location, err)
	}

	l.registry.Register(identity, module)
	l.document.AttachScript(identity, location)

	return nil
}

// invokeMount runs the bundle's mount hook, converting a panic into an
// error. Bundle code is untrusted, nothing it does may escape this call.
func invokeMount(ctx context.Context, module Module, container *Container, mountCtx *MountContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mount panicked: %v", r)
		}
	}()

	return module.Mount(ctx, container, mountCtx)
}

func invokeUnmount(ctx context.Context, module Module) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unmount panicked: %v", r)
		}
	}()

	return module.Unmount(ctx)
}

func snapshotConfig(config map[string]string) map[string]string {
	snapshot := make(map[string]string, len(config))
	for k, v := range config {
		snapshot[k] = v
	}

	return snapshot
}
