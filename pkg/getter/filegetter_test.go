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
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileGetter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a-1.0.0.jar")
	require.NoError(t, os.WriteFile(path, []byte("jar-bytes"), 0644))

	g, err := NewFileGetter()
	require.NoError(t, err)

	resp, err := g.Get("file://" + filepath.ToSlash(path))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "jar-bytes", string(body))
	assert.Equal(t, int64(len("jar-bytes")), resp.ContentLength)
}

func TestFileGetterErrors(t *testing.T) {
	g, err := NewFileGetter()
	require.NoError(t, err)

	_, err = g.Get("http://example.com/a")
	assert.Error(t, err)

	_, err = g.Get("file:///does/not/exist")
	assert.ErrorIs(t, err, os.ErrNotExist)

	dir := t.TempDir()
	_, err = g.Get("file://" + filepath.ToSlash(dir))
	assert.Error(t, err)
}
