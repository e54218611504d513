// Copyright The Modfetch Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

// http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package modpath

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modfetch/modfetch/pkg/modpath/xdg"
)

func TestCachePathPrecedence(t *testing.T) {
	// The app-specific variable wins over XDG and is used verbatim,
	// without the app subdirectory.
	t.Setenv(CacheHomeEnvVar, "/tmp/modfetch-cache")
	t.Setenv(xdg.CacheHomeEnvVar, "/tmp/xdg-cache")
	assert.Equal(t, filepath.Join("/tmp/modfetch-cache", "artifacts"), CachePath("artifacts"))

	t.Setenv(CacheHomeEnvVar, "")
	assert.Equal(t, filepath.Join("/tmp/xdg-cache", "modfetch", "artifacts"), CachePath("artifacts"))
}

func TestConfigPathPrecedence(t *testing.T) {
	t.Setenv(ConfigHomeEnvVar, "")
	t.Setenv(xdg.ConfigHomeEnvVar, "/tmp/xdg-config")
	assert.Equal(t, filepath.Join("/tmp/xdg-config", "modfetch", "repositories.yaml"), RepositoryFile())
}
