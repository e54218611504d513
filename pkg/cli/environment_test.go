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

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvSettings(t *testing.T) {
	tests := []struct {
		name string

		// input
		args    string
		envvars map[string]string

		// expected values
		cacheDir   string
		repoConfig string
		debug      bool
		maxWorkers int
	}{
		{
			name:       "defaults",
			maxWorkers: 0,
		},
		{
			name:       "with flags set",
			args:       "--debug --cache-dir /tmp/mc --repository-config /tmp/repos.yaml --max-workers 8",
			cacheDir:   "/tmp/mc",
			repoConfig: "/tmp/repos.yaml",
			debug:      true,
			maxWorkers: 8,
		},
		{
			name: "with envvars set",
			envvars: map[string]string{
				"MODFETCH_DEBUG":             "1",
				"MODFETCH_CACHE":             "/tmp/env-mc",
				"MODFETCH_REPOSITORY_CONFIG": "/tmp/env-repos.yaml",
				"MODFETCH_MAX_WORKERS":       "12",
			},
			cacheDir:   "/tmp/env-mc",
			repoConfig: "/tmp/env-repos.yaml",
			debug:      true,
			maxWorkers: 12,
		},
		{
			name: "with flags and envvars set",
			args: "--debug --max-workers 8",
			envvars: map[string]string{
				"MODFETCH_CACHE":       "/tmp/env-mc",
				"MODFETCH_MAX_WORKERS": "12",
			},
			cacheDir:   "/tmp/env-mc",
			debug:      true,
			maxWorkers: 8,
		},
		{
			name: "invalid max-workers envvar falls back to default",
			envvars: map[string]string{
				"MODFETCH_MAX_WORKERS": "not-a-number",
			},
			maxWorkers: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envvars {
				t.Setenv(k, v)
			}

			flags := pflag.NewFlagSet("modfetch-env", pflag.ContinueOnError)

			settings := New()
			settings.AddFlags(flags)
			require.NoError(t, flags.Parse(strings.Split(tt.args, " ")))

			if tt.cacheDir != "" {
				assert.Equal(t, tt.cacheDir, settings.CacheDir)
			}
			if tt.repoConfig != "" {
				assert.Equal(t, tt.repoConfig, settings.RepositoryConfig)
			}
			assert.Equal(t, tt.debug, settings.Debug)
			assert.Equal(t, tt.maxWorkers, settings.MaxWorkers)
		})
	}
}

func TestEnvVarsExported(t *testing.T) {
	t.Setenv("MODFETCH_CACHE", "/tmp/mc")

	settings := New()
	vars := settings.EnvVars()

	assert.Equal(t, "/tmp/mc", vars["MODFETCH_CACHE"])
	assert.Contains(t, vars, "MODFETCH_REPOSITORY_CONFIG")
	assert.Contains(t, vars, "MODFETCH_DEBUG")
}
