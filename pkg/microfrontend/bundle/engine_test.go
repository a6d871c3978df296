// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package bundle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kubelens/kubelens/pkg/microfrontend"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	mu     sync.Mutex
	notes  []string
	config map[string]string
}

func (a *testAPI) Notify(message string, severity microfrontend.Severity) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.notes = append(a.notes, fmt.Sprintf("%s/%s", severity, message))
}

func (a *testAPI) Config() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := make(map[string]string, len(a.config))
	for k, v := range a.config {
		snapshot[k] = v
	}

	return snapshot
}

func (a *testAPI) recorded() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string{}, a.notes...)
}

func testMountContext(api *testAPI) *microfrontend.MountContext {
	return &microfrontend.MountContext{
		Extension: "metrics",
		RootID:    "root-metrics",
		Config:    api.Config(),
		API:       api,
	}
}

func Test_Engine_MountLifecycle(t *testing.T) {
	source := `
kubelens.mount = func(container, context) {
	container.set_content("extension " + context.extension + " in " + container.id)
}
kubelens.unmount = func() {
	kubelens.torn_down = true
}
`

	engine := NewEngine(nil)
	mod, err := engine.Execute(context.Background(), "metrics", []byte(source))
	require.NoError(t, err)
	require.True(t, mod.HasMount())
	require.True(t, mod.HasUnmount())

	api := &testAPI{}
	container := microfrontend.NewContainer("metrics", "root-metrics")
	require.NoError(t, mod.Mount(context.Background(), container, testMountContext(api)))
	require.Equal(t, "extension metrics in root-metrics", container.Content())

	require.NoError(t, mod.Unmount(context.Background()))
}

func Test_Engine_StatePersistsAcrossRuns(t *testing.T) {
	source := `
kubelens.mounts = 0
kubelens.mount = func(container, context) {
	kubelens.mounts += 1
	container.set_content(format("mount count: %d", kubelens.mounts))
}
`

	engine := NewEngine(nil)
	mod, err := engine.Execute(context.Background(), "metrics", []byte(source))
	require.NoError(t, err)

	api := &testAPI{}

	first := microfrontend.NewContainer("metrics", "panel-1")
	require.NoError(t, mod.Mount(context.Background(), first, testMountContext(api)))
	require.Equal(t, "mount count: 1", first.Content())

	// The load body is guarded, re-entering for a second mount must not
	// reset the bundle's state.
	second := microfrontend.NewContainer("metrics", "panel-2")
	require.NoError(t, mod.Mount(context.Background(), second, testMountContext(api)))
	require.Equal(t, "mount count: 2", second.Content())
	require.Equal(t, "mount count: 1", first.Content())
}

func Test_Engine_SelfRenderingBundle(t *testing.T) {
	source := `
greeting := "computed during load"
`

	engine := NewEngine(nil)
	mod, err := engine.Execute(context.Background(), "banner", []byte(source))
	require.NoError(t, err)
	require.False(t, mod.HasMount())
	require.False(t, mod.HasUnmount())
}

func Test_Engine_NonCallableHookDoesNotCount(t *testing.T) {
	source := `
kubelens.mount = "definitely not a function"
`

	engine := NewEngine(nil)
	mod, err := engine.Execute(context.Background(), "broken", []byte(source))
	require.NoError(t, err)
	require.False(t, mod.HasMount())
}

func Test_Engine_CompileError(t *testing.T) {
	source := `
kubelens.mount = func(container {
`

	engine := NewEngine(nil)
	_, err := engine.Execute(context.Background(), "broken", []byte(source))
	require.Error(t, err)

	var runtimeErr *RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	require.Equal(t, "broken", runtimeErr.Identity)
	require.Equal(t, "compile", runtimeErr.Event)
}

func Test_Engine_LoadError(t *testing.T) {
	source := `
not_a_function := 42
not_a_function()
`

	engine := NewEngine(nil)
	_, err := engine.Execute(context.Background(), "broken", []byte(source))
	require.Error(t, err)

	var runtimeErr *RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	require.Equal(t, eventLoad, runtimeErr.Event)
}

func Test_Engine_MountError(t *testing.T) {
	source := `
kubelens.mount = func(container, context) {
	not_a_function := 42
	not_a_function()
}
`

	engine := NewEngine(nil)
	mod, err := engine.Execute(context.Background(), "broken", []byte(source))
	require.NoError(t, err)

	container := microfrontend.NewContainer("broken", "root")
	err = mod.Mount(context.Background(), container, testMountContext(&testAPI{}))
	require.Error(t, err)

	var runtimeErr *RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	require.Equal(t, eventMount, runtimeErr.Event)
	require.Equal(t, "broken", runtimeErr.Identity)
}

func Test_Engine_NotifyCapability(t *testing.T) {
	source := `
kubelens.mount = func(container, context) {
	context.notify("deployment ready")
	context.notify("disk almost full", "warning")
}
`

	engine := NewEngine(nil)
	mod, err := engine.Execute(context.Background(), "notifier", []byte(source))
	require.NoError(t, err)

	api := &testAPI{}
	container := microfrontend.NewContainer("notifier", "root")
	require.NoError(t, mod.Mount(context.Background(), container, testMountContext(api)))

	require.Equal(t, []string{
		"info/deployment ready",
		"warning/disk almost full",
	}, api.recorded())
}

func Test_Engine_NotifyRequiresMessage(t *testing.T) {
	source := `
kubelens.mount = func(container, context) {
	context.notify()
}
`

	engine := NewEngine(nil)
	mod, err := engine.Execute(context.Background(), "notifier", []byte(source))
	require.NoError(t, err)

	container := microfrontend.NewContainer("notifier", "root")
	err = mod.Mount(context.Background(), container, testMountContext(&testAPI{}))
	require.Error(t, err)
	require.ErrorContains(t, err, "wrong number of arguments")
}

func Test_Engine_GetConfigCapability(t *testing.T) {
	source := `
kubelens.mount = func(container, context) {
	cfg := context.get_config()
	container.append_line("endpoint: " + cfg.endpoint)
	container.append_line("static: " + context.config.endpoint)
}
`

	engine := NewEngine(nil)
	mod, err := engine.Execute(context.Background(), "metrics", []byte(source))
	require.NoError(t, err)

	api := &testAPI{config: map[string]string{"endpoint": "https://prometheus.local"}}
	container := microfrontend.NewContainer("metrics", "root")
	require.NoError(t, mod.Mount(context.Background(), container, testMountContext(api)))

	require.Equal(t,
		"endpoint: https://prometheus.local\nstatic: https://prometheus.local",
		container.Content(),
	)
}

func Test_Engine_ImportsRestricted(t *testing.T) {
	t.Run("os is unavailable", func(t *testing.T) {
		source := `
os := import("os")
`
		engine := NewEngine(nil)
		_, err := engine.Execute(context.Background(), "escape", []byte(source))
		require.Error(t, err)
		require.ErrorContains(t, err, "os")
	})

	t.Run("text is available", func(t *testing.T) {
		source := `
text := import("text")
kubelens.mount = func(container, context) {
	container.set_content(text.to_upper("shouting"))
}
`
		engine := NewEngine(nil)
		mod, err := engine.Execute(context.Background(), "shouter", []byte(source))
		require.NoError(t, err)

		container := microfrontend.NewContainer("shouter", "root")
		require.NoError(t, mod.Mount(context.Background(), container, testMountContext(&testAPI{})))
		require.Equal(t, "SHOUTING", container.Content())
	})
}

func Test_Engine_AllocationBudget(t *testing.T) {
	source := `
items := []
for i := 0; i < 100000; i++ {
	items = append(items, i)
}
`

	engine := NewEngine(&EngineOptions{MaxAllocs: 64})
	_, err := engine.Execute(context.Background(), "greedy", []byte(source))
	require.Error(t, err)

	var runtimeErr *RuntimeError
	require.ErrorAs(t, err, &runtimeErr)
	require.Equal(t, eventLoad, runtimeErr.Event)
}

func Test_Engine_MountHonorsContext(t *testing.T) {
	source := `
kubelens.mount = func(container, context) {
	for true {
	}
}
`

	engine := NewEngine(nil)
	mod, err := engine.Execute(context.Background(), "spinner", []byte(source))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	container := microfrontend.NewContainer("spinner", "root")
	err = mod.Mount(ctx, container, testMountContext(&testAPI{}))
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}
