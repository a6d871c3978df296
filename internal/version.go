// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package internal

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is the version string printed out by the `version` command.
// It's updated using ldflags at build time, for example:
//
//	go build -ldflags="-X 'github.com/kubelens/kubelens/internal.Version=0.1.0 (commit 8a7b...)'"
var Version = "0.0.0-dev.0 (commit 0000000000000000000000000000000000000000)"

// GetVersionNumber returns the semantic version portion of [Version],
// or "unknown" when the version string does not carry a valid version.
func GetVersionNumber() string {
	ver := VersionInfo()
	if ver == nil {
		return "unknown"
	}

	return ver.String()
}

// VersionInfo returns the parsed version of the CLI, or nil when the
// embedded version string is not valid semver.
func VersionInfo() *semver.Version {
	pieces := strings.SplitN(Version, " ", 2)
	if len(pieces) == 0 || pieces[0] == "" {
		return nil
	}

	ver, err := semver.StrictNewVersion(pieces[0])
	if err != nil {
		return nil
	}

	return ver
}
