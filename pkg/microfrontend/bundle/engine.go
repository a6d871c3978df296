// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package bundle executes extension UI bundles with the tengo script
// engine.
//
// A bundle is a tengo script. On load it runs once, top to bottom, and may
// register lifecycle hooks by assigning functions into the provided
// kubelens map:
//
//	kubelens.mount = func(container, context) { ... }
//	kubelens.unmount = func() { ... }
//
// Bundles that register no hooks render as a side effect of the load pass.
// Mount and unmount re-enter the same compiled program, so state the bundle
// builds during load stays live. The load body itself is guarded and never
// executes twice.
package bundle

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"dario.cat/mergo"
	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/kubelens/kubelens/pkg/microfrontend"
)

const (
	eventLoad    = "load"
	eventMount   = "mount"
	eventUnmount = "unmount"

	varHost       = "kubelens"
	varEvent      = "__event__"
	varContainer  = "__container__"
	varContext    = "__context__"
	varHasMount   = "__has_mount__"
	varHasUnmount = "__has_unmount__"
)

// allowedModules is the stdlib subset bundles may import. os and rand stay
// out of the sandbox.
var allowedModules = []string{"text", "math", "times", "fmt", "json", "enum"}

// RuntimeError is a failure raised by a bundle's own code.
type RuntimeError struct {
	// Identity is the extension the bundle belongs to.
	Identity string

	// Event is the lifecycle pass that failed: compile, load, mount or
	// unmount.
	Event string

	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("bundle '%s': %s failed: %v", e.Identity, e.Event, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// EngineOptions tunes bundle execution limits.
type EngineOptions struct {
	// MaxAllocs caps the number of objects a single bundle run may
	// allocate.
	MaxAllocs int64
}

// DefaultEngineOptions bounds runaway bundles without getting in the way of
// real ones.
var DefaultEngineOptions = EngineOptions{
	MaxAllocs: 512 * 1024,
}

// Engine compiles and runs bundles in-process. It implements
// [microfrontend.Engine].
type Engine struct {
	options EngineOptions
}

// NewEngine creates a bundle engine.
func NewEngine(options *EngineOptions) *Engine {
	mergedOptions := EngineOptions{}
	if options != nil {
		if err := mergo.Merge(&mergedOptions, options); err != nil {
			panic(err)
		}
	}
	if err := mergo.Merge(&mergedOptions, DefaultEngineOptions); err != nil {
		panic(err)
	}

	return &Engine{options: mergedOptions}
}

// Execute compiles the bundle and runs its load pass. The returned module
// re-enters the same program for mount and unmount.
func (e *Engine) Execute(ctx context.Context, identity string, source []byte) (microfrontend.Module, error) {
	script := tengo.NewScript(wrapSource(source))
	script.SetImports(stdlib.GetModuleMap(allowedModules...))
	script.SetMaxAllocs(e.options.MaxAllocs)

	_ = script.Add(varHost, map[string]interface{}{})
	_ = script.Add(varEvent, eventLoad)
	_ = script.Add(varContainer, nil)
	_ = script.Add(varContext, nil)

	compiled, err := script.Compile()
	if err != nil {
		return nil, &RuntimeError{Identity: identity, Event: "compile", Err: err}
	}

	if err := compiled.RunContext(ctx); err != nil {
		return nil, &RuntimeError{Identity: identity, Event: eventLoad, Err: err}
	}

	return &module{identity: identity, compiled: compiled}, nil
}

// wrapSource guards the bundle body so it only executes on the load pass,
// then appends the dispatcher the engine re-enters for mount and unmount.
func wrapSource(source []byte) []byte {
	var wrapped bytes.Buffer
	wrapped.Grow(len(sourcePrologue) + len(source) + len(sourceEpilogue))
	wrapped.WriteString(sourcePrologue)
	wrapped.Write(source)
	wrapped.WriteString(sourceEpilogue)

	return wrapped.Bytes()
}

const sourcePrologue = `if __event__ == "load" {
`

const sourceEpilogue = `
}
if __event__ == "mount" && is_callable(kubelens.mount) {
	kubelens.mount(__container__, __context__)
}
if __event__ == "unmount" && is_callable(kubelens.unmount) {
	kubelens.unmount()
}
__has_mount__ := is_callable(kubelens.mount)
__has_unmount__ := is_callable(kubelens.unmount)
`

// module is a loaded bundle. Runs share one compiled program and are
// serialized, the tengo VM is not reentrant.
type module struct {
	identity string

	mu       sync.Mutex
	compiled *tengo.Compiled
}

// HasMount reports whether the bundle currently holds a callable mount
// hook. A non-function assigned to kubelens.mount does not count.
func (m *module) HasMount() bool {
	return m.sentinel(varHasMount)
}

func (m *module) HasUnmount() bool {
	return m.sentinel(varHasUnmount)
}

// sentinel reads a hook flag recomputed by the dispatcher on every run, so
// hooks registered as late as the mount pass are still honored.
func (m *module) sentinel(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.compiled.Get(name).Bool()
}

func (m *module) Mount(ctx context.Context, container *microfrontend.Container, mountCtx *microfrontend.MountContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.compiled.Set(varContainer, containerObject(container)); err != nil {
		return &RuntimeError{Identity: m.identity, Event: eventMount, Err: err}
	}
	if err := m.compiled.Set(varContext, contextObject(mountCtx)); err != nil {
		return &RuntimeError{Identity: m.identity, Event: eventMount, Err: err}
	}

	return m.run(ctx, eventMount)
}

func (m *module) Unmount(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.run(ctx, eventUnmount)
}

func (m *module) run(ctx context.Context, event string) error {
	if err := m.compiled.Set(varEvent, event); err != nil {
		return &RuntimeError{Identity: m.identity, Event: event, Err: err}
	}

	if err := m.compiled.RunContext(ctx); err != nil {
		return &RuntimeError{Identity: m.identity, Event: event, Err: err}
	}

	return nil
}
