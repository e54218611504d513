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

package cache

// Status describes the lifecycle state of a cache entry.
type Status int

const (
	// Missing means no local copy exists for the location.
	Missing Status = iota
	// Downloading means a fetch for the location is currently in flight.
	Downloading
	// Fresh means a validated local copy exists.
	Fresh
	// Stale means a local copy exists but has outlived the configured TTL.
	Stale
)

func (s Status) String() string {
	switch s {
	case Missing:
		return "missing"
	case Downloading:
		return "downloading"
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	}
	return "unknown"
}

// Entry is the result of resolving a source location against the cache: the
// local file holding the content and the state it was found in.
type Entry struct {
	// Source is the normalized source location the entry was fetched from.
	Source string
	// Path is the local file under the cache root.
	Path string
	// Status is the entry state at the time Fetch returned.
	Status Status
}
