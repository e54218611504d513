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
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modfetch/modfetch/internal/version"
)

func TestHTTPGetter(t *testing.T) {
	g, err := NewHTTPGetter(WithURL("http://example.com"))
	require.NoError(t, err)

	if _, ok := g.(*HTTPGetter); !ok {
		t.Fatal("Expected NewHTTPGetter to produce an *HTTPGetter")
	}

	transport := &http.Transport{}
	g, err = NewHTTPGetter(
		WithBasicAuth("I", "Am"),
		WithPassCredentialsAll(false),
		WithUserAgent("Groot"),
		WithTimeout(time.Second*5),
		WithTransport(transport),
	)
	require.NoError(t, err)

	hg, ok := g.(*HTTPGetter)
	require.True(t, ok, "expected NewHTTPGetter to produce an *HTTPGetter")

	assert.Equal(t, "I", hg.opts.username)
	assert.Equal(t, "Am", hg.opts.password)
	assert.Equal(t, "Groot", hg.opts.userAgent)
	assert.Equal(t, time.Second*5, hg.opts.timeout)
	assert.Same(t, transport, hg.opts.transport)
}

func TestHTTPGetterGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, version.GetUserAgent(), r.UserAgent())
		w.Write([]byte("artifact-bytes"))
	}))
	defer srv.Close()

	g, err := NewHTTPGetter(WithURL(srv.URL))
	require.NoError(t, err)

	resp, err := g.Get(srv.URL + "/com/example/a/1.0.0/a-1.0.0.jar")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "artifact-bytes", string(body))
	assert.Equal(t, int64(len("artifact-bytes")), resp.ContentLength)
}

func TestHTTPGetterBasicAuthScope(t *testing.T) {
	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, gotAuth = r.BasicAuth()
	}))
	defer srv.Close()

	// Credentials are sent when the getter URL matches the fetched host.
	g, err := NewHTTPGetter(WithURL(srv.URL), WithBasicAuth("user", "pass"))
	require.NoError(t, err)
	resp, err := g.Get(srv.URL + "/a")
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, gotAuth, "credentials should be passed to the configured host")

	// Credentials are withheld for a different host unless passCredentialsAll
	// is set.
	g, err = NewHTTPGetter(WithURL("http://other.example.com"), WithBasicAuth("user", "pass"))
	require.NoError(t, err)
	resp, err = g.Get(srv.URL + "/a")
	require.NoError(t, err)
	resp.Body.Close()
	assert.False(t, gotAuth, "credentials should not leak to other hosts")

	g, err = NewHTTPGetter(WithURL("http://other.example.com"), WithBasicAuth("user", "pass"), WithPassCredentialsAll(true))
	require.NoError(t, err)
	resp, err = g.Get(srv.URL + "/a")
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, gotAuth, "passCredentialsAll should force credentials")
}

func TestHTTPGetterRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	g, err := NewHTTPGetter(WithURL(srv.URL))
	require.NoError(t, err)

	_, err = g.Get(srv.URL + "/missing")
	var rerr *RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.True(t, rerr.NotFound())
	assert.False(t, rerr.Transient())

	_, err = g.Get(srv.URL + "/flaky")
	require.True(t, errors.As(err, &rerr))
	assert.False(t, rerr.NotFound())
	assert.True(t, rerr.Transient())
}

func TestHTTPGetterContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := NewHTTPGetter(WithURL(srv.URL))
	require.NoError(t, err)

	_, err = g.Get(srv.URL+"/a", WithContext(ctx))
	assert.ErrorIs(t, err, context.Canceled)
}
