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

package getter

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// FileGetter serves file:// URLs, mainly for local repositories.
type FileGetter struct {
	opts getterOptions
}

// Get opens the local file named by the URL path.
func (g *FileGetter) Get(href string, options ...Option) (*Response, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "file" {
		return nil, fmt.Errorf("%q is not a file URL", href)
	}

	// file://host/path is not supported; the host must be empty or
	// "localhost".
	if u.Host != "" && u.Host != "localhost" {
		return nil, fmt.Errorf("file URL %q may not name a remote host", href)
	}

	f, err := os.Open(filepath.FromSlash(u.Path))
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%q is a directory", href)
	}

	return &Response{Body: f, ContentLength: fi.Size()}, nil
}

// NewFileGetter constructs a getter for file:// URLs.
func NewFileGetter(options ...Option) (Getter, error) {
	var client FileGetter

	for _, opt := range options {
		opt(&client.opts)
	}

	return &client, nil
}
