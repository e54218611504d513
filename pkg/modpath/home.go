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

// Package modpath builds paths to modfetch's configuration and cache
// locations following the XDG base directory specification.
package modpath

import "os"

const lp = lazypath("modfetch")

// ConfigPath returns the path where modfetch stores configuration.
func ConfigPath(elem ...string) string {
	return lp.configPath(elem...)
}

// CachePath returns the path where modfetch stores cached objects.
func CachePath(elem ...string) string {
	return lp.cachePath(elem...)
}

// RepositoryFile returns the path to the repositories.yaml file.
func RepositoryFile() string {
	return ConfigPath("repositories.yaml")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
