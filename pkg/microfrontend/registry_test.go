// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package microfrontend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Registry_RegisterAndLookup(t *testing.T) {
	registry := NewRegistry()

	_, ok := registry.Lookup("metrics")
	require.False(t, ok)

	module := &fakeModule{hasMount: true}
	registry.Register("metrics", module)

	found, ok := registry.Lookup("metrics")
	require.True(t, ok)
	require.Same(t, module, found.(*fakeModule))
}

func Test_Registry_ReRegisterReplaces(t *testing.T) {
	registry := NewRegistry()

	first := &fakeModule{}
	second := &fakeModule{hasMount: true}
	registry.Register("metrics", first)
	registry.Register("metrics", second)

	found, ok := registry.Lookup("metrics")
	require.True(t, ok)
	require.Same(t, second, found.(*fakeModule))
	require.Len(t, registry.Identities(), 1)
}

func Test_Registry_IdentitiesSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register("zeta", &fakeModule{})
	registry.Register("alpha", &fakeModule{})
	registry.Register("mid", &fakeModule{})

	require.Equal(t, []string{"alpha", "mid", "zeta"}, registry.Identities())
}
