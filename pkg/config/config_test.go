// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_SetGetUnset(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value any
	}{
		{
			name:  "RootValue",
			path:  "server",
			value: "https://kubelens.local:8443",
		},
		{
			name:  "NestedValue",
			path:  "extension.dev.bundleDir",
			value: "/tmp/bundles",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := NewConfig(nil)
			err := cfg.Set(test.path, test.value)
			require.NoError(t, err)

			value, ok := cfg.Get(test.path)
			require.True(t, ok)
			require.Equal(t, test.value, value)

			err = cfg.Unset(test.path)
			require.NoError(t, err)

			value, ok = cfg.Get(test.path)
			require.False(t, ok)
			require.Nil(t, value)
		})
	}
}

func Test_GetMissingPath(t *testing.T) {
	cfg := NewConfig(map[string]any{
		"server": "https://kubelens.local:8443",
	})

	value, ok := cfg.Get("server.nested")
	require.False(t, ok)
	require.Nil(t, value)

	value, ok = cfg.Get("missing")
	require.False(t, ok)
	require.Nil(t, value)
}

func Test_UnsetMissingPathIsNoop(t *testing.T) {
	cfg := NewEmptyConfig()
	require.NoError(t, cfg.Unset("does.not.exist"))
	require.True(t, cfg.IsEmpty())
}

func Test_GetString(t *testing.T) {
	cfg := NewConfig(map[string]any{
		"server": "https://kubelens.local:8443",
		"poll": map[string]any{
			"seconds": 30,
		},
	})

	value, ok := cfg.GetString("server")
	require.True(t, ok)
	require.Equal(t, "https://kubelens.local:8443", value)

	// exists but is not a string
	value, ok = cfg.GetString("poll.seconds")
	require.False(t, ok)
	require.Equal(t, "", value)
}

func Test_GetSection(t *testing.T) {
	type devSection struct {
		BundleDir string `json:"bundleDir"`
		AutoMount bool   `json:"autoMount"`
	}

	cfg := NewEmptyConfig()
	err := cfg.Set("extension.dev", map[string]any{
		"bundleDir": "/tmp/bundles",
		"autoMount": true,
	})
	require.NoError(t, err)

	var section devSection
	ok, err := cfg.GetSection("extension.dev", &section)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/tmp/bundles", section.BundleDir)
	require.True(t, section.AutoMount)

	ok, err = cfg.GetSection("extension.missing", &section)
	require.NoError(t, err)
	require.False(t, ok)
}

func Test_SetOverIntermediateValue(t *testing.T) {
	cfg := NewConfig(map[string]any{
		"server": "https://kubelens.local:8443",
	})

	// "server" holds a string, so it cannot be traversed as a node
	err := cfg.Set("server.timeout", 30)
	require.Error(t, err)
}
