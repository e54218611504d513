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

package module

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse("com.example:test-artifact:1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "com.example", c.Organization)
	assert.Equal(t, "test-artifact", c.Name)
	assert.Equal(t, "1.0.0", c.Version)
	assert.Equal(t, "com.example:test-artifact:1.0.0", c.String())
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"com.example",
		"com.example:name",
		"com.example:name:1.0.0:extra",
		"bad::coord",
		":name:1.0.0",
		"com.example:name:",
	} {
		_, err := Parse(in)
		require.Errorf(t, err, "Parse(%q)", in)

		var cerr *InvalidCoordinateError
		assert.Truef(t, errors.As(err, &cerr), "Parse(%q) should return *InvalidCoordinateError", in)
		assert.Equal(t, in, cerr.Coordinate)
	}
}

func TestVersionKind(t *testing.T) {
	tests := []struct {
		version string
		exact   bool
		marker  bool
		rnge    bool
	}{
		{"1.0.0", true, false, false},
		{"1.0.0-beta.1", true, false, false},
		{"latest", false, true, false},
		{"release", false, true, false},
		{">=1.0.0", false, false, true},
		{"^1.2.0", false, false, true},
		{"~1.2", false, false, true},
		{"1.x", true, false, false}, // x-wildcards are not a supported range syntax
		{">=1.0.0, <2.0.0", false, false, true},
	}

	for _, tt := range tests {
		c := Coordinate{Organization: "org", Name: "name", Version: tt.version}
		assert.Equalf(t, tt.exact, c.IsExact(), "IsExact(%q)", tt.version)
		assert.Equalf(t, tt.marker, c.IsMarker(), "IsMarker(%q)", tt.version)
		assert.Equalf(t, tt.rnge, c.IsRange(), "IsRange(%q)", tt.version)
	}
}

func TestPath(t *testing.T) {
	c := Coordinate{Organization: "com.example.deep", Name: "n", Version: "1"}
	assert.Equal(t, "com/example/deep", c.Path())
}
