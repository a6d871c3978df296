// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package extensions

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/require"
)

func Test_ServerIsCompatible(t *testing.T) {
	tests := []struct {
		name             string
		minServerVersion string
		serverVersion    string
		expectCompatible bool
	}{
		{
			name:             "no min version set",
			minServerVersion: "",
			serverVersion:    "1.0.0",
			expectCompatible: true,
		},
		{
			name:             "server meets minimum",
			minServerVersion: "1.24.0",
			serverVersion:    "1.24.0",
			expectCompatible: true,
		},
		{
			name:             "server exceeds minimum",
			minServerVersion: "1.24.0",
			serverVersion:    "1.25.0",
			expectCompatible: true,
		},
		{
			name:             "server below minimum",
			minServerVersion: "1.24.0",
			serverVersion:    "1.23.0",
			expectCompatible: false,
		},
		{
			name:             "constraint expression",
			minServerVersion: ">= 1.20.0, < 2.0.0",
			serverVersion:    "1.25.0",
			expectCompatible: true,
		},
		{
			name:             "constraint expression excludes",
			minServerVersion: ">= 1.20.0, < 2.0.0",
			serverVersion:    "2.1.0",
			expectCompatible: false,
		},
		{
			name:             "invalid min version is compatible",
			minServerVersion: "not-a-version",
			serverVersion:    "1.0.0",
			expectCompatible: true,
		},
		{
			name:             "server prerelease below minimum",
			minServerVersion: "1.24.0",
			serverVersion:    "1.24.0-rc.1",
			expectCompatible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extension := &Extension{
				Name:             "ext",
				MinServerVersion: tt.minServerVersion,
			}
			serverVersion := semver.MustParse(tt.serverVersion)
			result := ServerIsCompatible(extension, serverVersion)
			require.Equal(t, tt.expectCompatible, result)
		})
	}
}

func Test_ServerIsCompatible_NilServerVersion(t *testing.T) {
	extension := &Extension{Name: "ext", MinServerVersion: "99.0.0"}
	require.True(t, ServerIsCompatible(extension, nil))
}

func Test_CheckCompatibility(t *testing.T) {
	entries := []*Extension{
		{Name: "old-friendly"},
		{Name: "needs-121", MinServerVersion: "1.21.0"},
		{Name: "needs-200", MinServerVersion: "2.0.0"},
	}

	t.Run("mixed entries", func(t *testing.T) {
		report := CheckCompatibility(entries, "1.22.0")
		require.NotNil(t, report.ServerVersion)
		require.Len(t, report.Incompatible, 1)
		require.Equal(t, "2.0.0", report.Incompatible["needs-200"])
	})

	t.Run("empty server version yields empty report", func(t *testing.T) {
		report := CheckCompatibility(entries, "")
		require.Nil(t, report.ServerVersion)
		require.Empty(t, report.Incompatible)
	})

	t.Run("unparseable server version yields empty report", func(t *testing.T) {
		report := CheckCompatibility(entries, "devel")
		require.Nil(t, report.ServerVersion)
		require.Empty(t, report.Incompatible)
	})

	t.Run("no entries", func(t *testing.T) {
		report := CheckCompatibility(nil, "1.22.0")
		require.Empty(t, report.Incompatible)
	})
}
