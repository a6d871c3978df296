// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package internal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetVersionNumber(t *testing.T) {
	require.Equal(t, "0.0.0-dev.0", GetVersionNumber())

	orig := Version
	defer func() { Version = orig }()

	Version = "1.4.2 (commit 4f9d1e)"
	require.Equal(t, "1.4.2", GetVersionNumber())

	Version = "invalid"
	require.Equal(t, "unknown", GetVersionNumber())

	Version = ""
	require.Equal(t, "unknown", GetVersionNumber())
}

func TestVersionInfo(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "0.4.0-beta.1 (commit 8a7b9c)"
	info := VersionInfo()
	require.NotNil(t, info)
	require.Equal(t, uint64(0), info.Major())
	require.Equal(t, uint64(4), info.Minor())
	require.Equal(t, "beta.1", info.Prerelease())

	Version = "not-a-version"
	require.Nil(t, VersionInfo())
}
