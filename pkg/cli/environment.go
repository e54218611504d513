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

/*Package cli describes the operating environment for the modfetch CLI.

Settings are resolved in order from command line flags, MODFETCH_*
environment variables and built-in defaults.
*/
package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/modfetch/modfetch/pkg/modpath"
)

// EnvSettings describes all of the environment settings.
type EnvSettings struct {
	// Debug indicates whether or not modfetch is running in Debug mode.
	Debug bool
	// CacheDir is the root of the on-disk artifact cache.
	CacheDir string
	// RepositoryConfig is the path to the repositories file.
	RepositoryConfig string
	// MaxWorkers bounds download concurrency.
	MaxWorkers int
}

// New builds settings from the process environment.
func New() *EnvSettings {
	env := &EnvSettings{
		CacheDir:         envOr("MODFETCH_CACHE", modpath.CachePath("artifacts")),
		RepositoryConfig: envOr("MODFETCH_REPOSITORY_CONFIG", modpath.RepositoryFile()),
		MaxWorkers:       envIntOr("MODFETCH_MAX_WORKERS", 0),
	}
	env.Debug, _ = strconv.ParseBool(os.Getenv("MODFETCH_DEBUG"))
	return env
}

// AddFlags binds flags to the given flagset.
func (s *EnvSettings) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&s.Debug, "debug", s.Debug, "enable verbose output")
	fs.StringVar(&s.CacheDir, "cache-dir", s.CacheDir, "path to the artifact cache directory")
	fs.StringVar(&s.RepositoryConfig, "repository-config", s.RepositoryConfig, "path to the file containing repository names and URLs")
	fs.IntVar(&s.MaxWorkers, "max-workers", s.MaxWorkers, "maximum number of concurrent downloads (0 means the default)")
}

// EnvVars returns the settings as MODFETCH_* environment variables.
func (s *EnvSettings) EnvVars() map[string]string {
	return map[string]string{
		"MODFETCH_BIN":               os.Args[0],
		"MODFETCH_CACHE":             s.CacheDir,
		"MODFETCH_CACHE_HOME":        modpath.CachePath(),
		"MODFETCH_CONFIG_HOME":       modpath.ConfigPath(),
		"MODFETCH_DEBUG":             fmt.Sprint(s.Debug),
		"MODFETCH_MAX_WORKERS":       strconv.Itoa(s.MaxWorkers),
		"MODFETCH_REPOSITORY_CONFIG": s.RepositoryConfig,
	}
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

func envIntOr(name string, def int) int {
	if name == "" {
		return def
	}
	envVal := envOr(name, strconv.Itoa(def))
	ret, err := strconv.Atoi(envVal)
	if err != nil {
		return def
	}
	return ret
}
