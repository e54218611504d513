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

package task

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modfetch/modfetch/pkg/cache"
	"github.com/modfetch/modfetch/pkg/module"
	"github.com/modfetch/modfetch/pkg/repo"
)

const metadataTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>%s</groupId>
  <artifactId>%s</artifactId>
  <versioning>
    <latest>2.0.0</latest>
    <release>1.2.0</release>
    <versions>
      <version>1.0.0</version>
      <version>1.2.0</version>
      <version>2.0.0</version>
    </versions>
    <lastUpdated>20240115103045</lastUpdated>
  </versioning>
</metadata>
`

// repoServer serves a tiny repository over HTTP: metadata for the known
// modules, artifact bytes for their versions, 404 for everything else.
func repoServer(t *testing.T, requests *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			atomic.AddInt32(requests, 1)
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/maven-metadata.xml"):
			parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
			name := parts[len(parts)-2]
			group := strings.Join(parts[:len(parts)-2], ".")
			fmt.Fprintf(w, metadataTemplate, group, name)
		case strings.HasSuffix(r.URL.Path, ".jar"):
			fmt.Fprintf(w, "artifact:%s", r.URL.Path)
		default:
			http.NotFound(w, r)
		}
	}))
}

func testParams(url string) Params {
	return Params{
		Resolve: ResolveConfig{
			Repositories: []*repo.Entry{{Name: "main", URL: url}},
		},
	}
}

func TestNewValidatesCoordinates(t *testing.T) {
	// One malformed coordinate fails construction for the whole task.
	_, err := New(testParams("https://example.com"), []string{
		"com.example:test-artifact:1.0.0",
		"bad::coord",
	})
	require.Error(t, err)

	var cerr *module.InvalidCoordinateError
	assert.True(t, errors.As(err, &cerr), "expected *InvalidCoordinateError, got %v", err)
	assert.Equal(t, "bad::coord", cerr.Coordinate)
}

func TestNewValidatesParams(t *testing.T) {
	_, err := New(Params{}, []string{"a:b:1.0.0"})
	assert.Error(t, err, "no repositories")

	p := testParams("https://example.com")
	p.Channel.Channel = "nightly"
	_, err = New(p, []string{"a:b:1.0.0"})
	assert.Error(t, err, "unknown channel")

	p = testParams("")
	_, err = New(p, []string{"a:b:1.0.0"})
	assert.Error(t, err, "repository without URL")
}

func TestNewIsDeferred(t *testing.T) {
	// Construction does no I/O: an unreachable repository is fine until Run.
	task, err := New(testParams("http://127.0.0.1:1/nope"), []string{"com.example:a:1.0.0"})
	require.NoError(t, err)
	assert.Len(t, task.Coordinates(), 1)
}

func TestRunExactVersion(t *testing.T) {
	var requests int32
	srv := repoServer(t, &requests)
	defer srv.Close()

	task, err := New(testParams(srv.URL), []string{"com.example:test-artifact:1.0.0"},
		WithCache(cache.New(t.TempDir())))
	require.NoError(t, err)

	res, err := task.Run(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, res.Err())
	require.Len(t, res.Artifacts, 1)

	data, err := os.ReadFile(res.Artifacts[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "artifact:/com/example/test-artifact/1.0.0/test-artifact-1.0.0.jar", string(data))

	// Exact versions never consult metadata.
	for _, e := range res.Artifacts {
		assert.NotContains(t, e.Source, "maven-metadata")
	}
}

func TestRunMarkersAndRanges(t *testing.T) {
	srv := repoServer(t, nil)
	defer srv.Close()

	tests := []struct {
		coordinate string
		wantPath   string
	}{
		{"com.example:test-artifact:latest", "test-artifact-2.0.0.jar"},
		{"com.example:test-artifact:release", "test-artifact-1.2.0.jar"},
		{"com.example:test-artifact:>=1.0.0, <2.0.0", "test-artifact-1.2.0.jar"},
	}

	for _, tt := range tests {
		task, err := New(testParams(srv.URL), []string{tt.coordinate},
			WithCache(cache.New(t.TempDir())))
		require.NoError(t, err)

		res, err := task.Run(context.Background(), 2)
		require.NoError(t, err)
		require.NoErrorf(t, res.Err(), "coordinate %s", tt.coordinate)
		require.Len(t, res.Artifacts, 1)
		assert.Containsf(t, res.Artifacts[0].Source, tt.wantPath, "coordinate %s", tt.coordinate)
	}
}

func TestRunFloatingChannel(t *testing.T) {
	srv := repoServer(t, nil)
	defer srv.Close()

	p := testParams(srv.URL)
	p.Channel.Channel = module.MarkerRelease

	task, err := New(p, []string{"com.example:test-artifact:+"},
		WithCache(cache.New(t.TempDir())))
	require.NoError(t, err)

	res, err := task.Run(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, res.Err())
	require.Len(t, res.Artifacts, 1)
	assert.Contains(t, res.Artifacts[0].Source, "test-artifact-1.2.0.jar")
}

func TestRunClassifiers(t *testing.T) {
	srv := repoServer(t, nil)
	defer srv.Close()

	p := testParams(srv.URL)
	p.Artifact.Classifiers = []string{"sources"}

	task, err := New(p, []string{"com.example:test-artifact:1.0.0"},
		WithCache(cache.New(t.TempDir())))
	require.NoError(t, err)

	res, err := task.Run(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, res.Err())
	require.Len(t, res.Artifacts, 2)

	var sources []string
	for _, e := range res.Artifacts {
		sources = append(sources, e.Source)
	}
	assert.Contains(t, strings.Join(sources, " "), "test-artifact-1.0.0-sources.jar")
}

func TestRunCollectsFailures(t *testing.T) {
	srv := repoServer(t, nil)
	defer srv.Close()

	task, err := New(testParams(srv.URL), []string{
		"com.example:test-artifact:1.0.0",
		"com.example:missing-artifact:>=9.0.0",
	}, WithCache(cache.New(t.TempDir())))
	require.NoError(t, err)

	res, err := task.Run(context.Background(), 2)
	require.NoError(t, err, "one bad coordinate must not abort the batch")

	require.Len(t, res.Artifacts, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "com.example:missing-artifact:>=9.0.0", res.Failures[0].Coordinate.String())
	assert.Error(t, res.Err())
}

func TestRunRepositoryPrecedence(t *testing.T) {
	var primaryHits, secondaryHits int32
	primary := repoServer(t, &primaryHits)
	defer primary.Close()
	secondary := repoServer(t, &secondaryHits)
	defer secondary.Close()

	p := Params{
		Resolve: ResolveConfig{
			Repositories: []*repo.Entry{
				{Name: "primary", URL: primary.URL},
				{Name: "secondary", URL: secondary.URL},
			},
		},
	}

	task, err := New(p, []string{"com.example:test-artifact:latest"},
		WithCache(cache.New(t.TempDir())))
	require.NoError(t, err)

	res, err := task.Run(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, res.Err())

	// The first repository yields metadata, so the second is never queried.
	assert.Equal(t, int32(0), atomic.LoadInt32(&secondaryHits))
}

func TestRunRepositoryFallback(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer broken.Close()
	working := repoServer(t, nil)
	defer working.Close()

	p := Params{
		Resolve: ResolveConfig{
			Repositories: []*repo.Entry{
				{Name: "broken", URL: broken.URL},
				{Name: "working", URL: working.URL},
			},
		},
	}

	task, err := New(p, []string{"com.example:test-artifact:latest"},
		WithCache(cache.New(t.TempDir())))
	require.NoError(t, err)

	res, err := task.Run(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, res.Err())
	require.Len(t, res.Artifacts, 1)
	assert.Contains(t, res.Artifacts[0].Source, strings.TrimPrefix(working.URL, "http://"))
}

func TestRunAllRepositoriesFail(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer broken.Close()

	task, err := New(testParams(broken.URL), []string{"com.example:test-artifact:latest"},
		WithCache(cache.New(t.TempDir())))
	require.NoError(t, err)

	res, err := task.Run(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)

	var rerr *RepositoryUnavailableError
	assert.True(t, errors.As(res.Failures[0].Err, &rerr), "expected *RepositoryUnavailableError, got %v", res.Failures[0].Err)
}

func TestRunRestartable(t *testing.T) {
	var requests int32
	srv := repoServer(t, &requests)
	defer srv.Close()

	c := cache.New(t.TempDir())
	task, err := New(testParams(srv.URL), []string{"com.example:test-artifact:1.0.0"},
		WithCache(c))
	require.NoError(t, err)

	res1, err := task.Run(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, res1.Err())

	// The second run repeats the work; the artifact itself comes from the
	// shared cache, not from task-internal memoization.
	res2, err := task.Run(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, res2.Err())
	assert.Equal(t, res1.Artifacts[0].Path, res2.Artifacts[0].Path)
}

func TestRunCancellation(t *testing.T) {
	srv := repoServer(t, nil)
	defer srv.Close()

	task, err := New(testParams(srv.URL), []string{"com.example:test-artifact:1.0.0"},
		WithCache(cache.New(t.TempDir())))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = task.Run(ctx, 2)
	assert.Error(t, err)
}
