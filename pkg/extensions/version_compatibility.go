// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package extensions

import (
	"log"

	"github.com/Masterminds/semver/v3"
)

// ServerIsCompatible checks if the connected server satisfies an extension's
// declared minimum server version. Returns true if:
// - The extension declares no min_server_version
// - The server version satisfies the declared constraint
//
// min_server_version supports semantic versioning constraint expressions
// (e.g. ">= 1.24.0") as well as a bare version, which is treated as a
// minimum.
func ServerIsCompatible(extension *Extension, serverVersion *semver.Version) bool {
	if extension.MinServerVersion == "" || serverVersion == nil {
		return true
	}

	required := extension.MinServerVersion
	if _, err := semver.NewVersion(required); err == nil {
		required = ">= " + required
	}

	constraint, err := semver.NewConstraint(required)
	if err != nil {
		log.Printf(
			"Warning: failed to parse min_server_version constraint '%s', skipping compatibility check",
			extension.MinServerVersion,
		)
		return true
	}

	return constraint.Check(serverVersion)
}

// CompatibilityReport annotates extensions that declare a minimum server
// version newer than the connected server. The annotation is advisory only,
// lifecycle operations stay available for incompatible extensions.
type CompatibilityReport struct {
	// Incompatible maps extension names to their declared minimum server
	// version.
	Incompatible map[string]string

	// ServerVersion is the version the report was computed against, nil
	// when the server did not report one.
	ServerVersion *semver.Version
}

// CheckCompatibility builds a report of extensions whose min_server_version
// the given server version does not satisfy. An unparseable server version
// yields an empty report: a misbehaving server must not block extension
// management.
func CheckCompatibility(entries []*Extension, serverVersion string) *CompatibilityReport {
	report := &CompatibilityReport{
		Incompatible: map[string]string{},
	}

	if serverVersion == "" {
		return report
	}

	parsed, err := semver.NewVersion(serverVersion)
	if err != nil {
		log.Printf("Warning: server reported unparseable version '%s'", serverVersion)
		return report
	}

	report.ServerVersion = parsed
	for _, extension := range entries {
		if !ServerIsCompatible(extension, parsed) {
			report.Incompatible[extension.Name] = extension.MinServerVersion
		}
	}

	return report
}
