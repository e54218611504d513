/*
Copyright The Modfetch Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metadata

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/modfetch/modfetch/pkg/module"
	"github.com/modfetch/modfetch/pkg/version"
)

// NoMatchingVersionError is returned when a requested version token cannot be
// satisfied by the metadata document.
type NoMatchingVersionError struct {
	Requested string
	Module    string
}

func (e *NoMatchingVersionError) Error() string {
	return fmt.Sprintf("no version of %s matching %q", e.Module, e.Requested)
}

// Select resolves a requested version token against the metadata document.
//
// The latest and release markers return the corresponding versioning fields.
// Anything else is treated as a range constraint: the version list is
// filtered to versions satisfying the constraint and the maximum under the
// segment ordering wins. Exact versions never need a metadata lookup; callers
// are expected to short-circuit them before reaching here, but an exact token
// passed in is matched against the version list all the same.
func (m *Metadata) Select(requested string) (string, error) {
	mod := m.GroupID + ":" + m.ArtifactID

	switch requested {
	case module.MarkerLatest:
		if m.Versioning.Latest == "" {
			return "", &NoMatchingVersionError{Requested: requested, Module: mod}
		}
		return m.Versioning.Latest, nil
	case module.MarkerRelease:
		if m.Versioning.Release == "" {
			return "", &NoMatchingVersionError{Requested: requested, Module: mod}
		}
		return m.Versioning.Release, nil
	}

	constraint, err := semver.NewConstraint(requested)
	if err != nil {
		// Not a parseable range: treat the token as an exact version and
		// require it to be listed.
		for _, v := range m.Versioning.Versions {
			if v == requested {
				return v, nil
			}
		}
		return "", &NoMatchingVersionError{Requested: requested, Module: mod}
	}

	var matching []string
	for _, v := range m.Versioning.Versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			// Versions that do not parse as semver cannot satisfy a range.
			continue
		}
		if constraint.Check(sv) {
			matching = append(matching, v)
		}
	}

	if len(matching) == 0 {
		return "", &NoMatchingVersionError{Requested: requested, Module: mod}
	}
	return version.Max(matching), nil
}
