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

// Package module defines the coordinate triple that identifies a dependency.
package module // import "github.com/modfetch/modfetch/pkg/module"

import (
	"fmt"
	"strings"
)

// Version markers resolved against repository metadata rather than used
// verbatim.
const (
	MarkerLatest  = "latest"
	MarkerRelease = "release"
)

// rangeChars are the characters that make a version token a range constraint
// instead of an exact version.
const rangeChars = "><=^~*|, "

// Coordinate identifies a module as an organization:name:version triple.
// The version may be an exact version, a range constraint, or one of the
// latest/release markers.
type Coordinate struct {
	Organization string
	Name         string
	Version      string
}

// InvalidCoordinateError is returned when a coordinate string cannot be
// parsed into an organization:name:version triple.
type InvalidCoordinateError struct {
	Coordinate string
	Reason     string
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate %q: %s", e.Coordinate, e.Reason)
}

// Parse parses a colon-delimited organization:name:version triple.
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Coordinate{}, &InvalidCoordinateError{
			Coordinate: s,
			Reason:     fmt.Sprintf("expected organization:name:version, got %d part(s)", len(parts)),
		}
	}
	for i, field := range []string{"organization", "name", "version"} {
		if strings.TrimSpace(parts[i]) == "" {
			return Coordinate{}, &InvalidCoordinateError{
				Coordinate: s,
				Reason:     field + " is empty",
			}
		}
	}
	return Coordinate{
		Organization: parts[0],
		Name:         parts[1],
		Version:      parts[2],
	}, nil
}

// String formats the coordinate back into its organization:name:version form.
func (c Coordinate) String() string {
	return c.Organization + ":" + c.Name + ":" + c.Version
}

// IsMarker reports whether the version token is one of the latest/release
// markers.
func (c Coordinate) IsMarker() bool {
	return c.Version == MarkerLatest || c.Version == MarkerRelease
}

// IsRange reports whether the version token is a range constraint.
func (c Coordinate) IsRange() bool {
	return !c.IsMarker() && strings.ContainsAny(c.Version, rangeChars)
}

// IsExact reports whether the version token names a concrete version that
// requires no repository metadata lookup.
func (c Coordinate) IsExact() bool {
	return !c.IsMarker() && !c.IsRange()
}

// Path returns the organization as a repository path fragment, with dots
// replaced by slashes.
func (c Coordinate) Path() string {
	return strings.ReplaceAll(c.Organization, ".", "/")
}
