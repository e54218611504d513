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

// Package cache implements the persistent, concurrency-safe artifact store.
//
// Artifacts are kept under a configurable root directory, keyed by a
// normalized form of their source location, so repeated runs with an
// unchanged root reuse prior downloads. Concurrent fetches of the same
// location share a single in-flight download.
package cache // import "github.com/modfetch/modfetch/pkg/cache"

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/gofrs/flock"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/modfetch/modfetch/internal/fsutil"
	"github.com/modfetch/modfetch/pkg/getter"
)

const (
	// DefaultMaxRetries bounds retry attempts for transient transport
	// failures.
	DefaultMaxRetries = 3
	// DefaultBackoff is the initial delay before the first retry; it doubles
	// on every subsequent attempt.
	DefaultBackoff = 500 * time.Millisecond
	// DefaultNegativeTTL is how long a not-found lookup is remembered when no
	// TTL is configured.
	DefaultNegativeTTL = 5 * time.Minute

	lockFileName = "cache.lock"
)

// Cache is a persistent artifact store. The zero value is not usable; use New.
//
// A Cache value is immutable after construction: the With methods return a
// new, independent Cache. Derived caches share the in-flight download
// registry, so the at-most-one-download-per-location invariant holds across
// all of them.
type Cache struct {
	root       string
	custom     getter.Providers
	options    []getter.Option
	ttl        time.Duration
	maxRetries int
	backoff    time.Duration
	verify     bool
	logger     *slog.Logger

	flight   *singleflight.Group
	inflight *inflightSet
	neg      *negativeCache
}

// RootError reports an unusable cache root. Callers treat it as fatal rather
// than a per-download failure.
type RootError struct {
	Root string
	Err  error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("cache root %s unusable: %s", e.Root, e.Err)
}

func (e *RootError) Unwrap() error { return e.Err }

// New constructs a cache rooted at dir. The directory is created on first
// use if absent.
func New(dir string) *Cache {
	return &Cache{
		root:       dir,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		verify:     true,
		logger:     slog.Default(),
		flight:     new(singleflight.Group),
		inflight:   newInflightSet(),
		neg:        newNegativeCache(),
	}
}

// Root returns the cache root directory.
func (c *Cache) Root() string { return c.root }

// WithRoot returns a new Cache rooted at dir.
func (c *Cache) WithRoot(dir string) *Cache {
	out := *c
	out.root = dir
	return &out
}

// WithHandlerRegistry returns a new Cache that resolves transports through
// the given custom registry before the built-in schemes. A nil registry means
// built-in resolution only.
func (c *Cache) WithHandlerRegistry(p getter.Providers) *Cache {
	out := *c
	out.custom = p
	return &out
}

// WithGetterOptions returns a new Cache that forwards the given options to
// every transport it opens.
func (c *Cache) WithGetterOptions(opts ...getter.Option) *Cache {
	out := *c
	out.options = append([]getter.Option{}, opts...)
	return &out
}

// WithTTL returns a new Cache whose on-disk entries go stale after d and
// whose negative lookups are remembered for d. A zero TTL means entries never
// go stale.
func (c *Cache) WithTTL(d time.Duration) *Cache {
	out := *c
	out.ttl = d
	return &out
}

// WithMaxRetries returns a new Cache retrying transient failures up to n
// times.
func (c *Cache) WithMaxRetries(n int) *Cache {
	out := *c
	out.maxRetries = n
	return &out
}

// WithBackoff returns a new Cache with the given initial retry delay.
func (c *Cache) WithBackoff(d time.Duration) *Cache {
	out := *c
	out.backoff = d
	return &out
}

// WithChecksumVerification returns a new Cache with sibling-checksum
// validation toggled.
func (c *Cache) WithChecksumVerification(verify bool) *Cache {
	out := *c
	out.verify = verify
	return &out
}

// WithLogger returns a new Cache logging through the given logger.
func (c *Cache) WithLogger(logger *slog.Logger) *Cache {
	out := *c
	out.logger = logger
	return &out
}

// NormalizeLocation canonicalizes a source location into the cache's lookup
// key: lowercased scheme and host, default ports dropped, query and fragment
// stripped.
func NormalizeLocation(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid location %q: %w", location, err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("location %q has no scheme", location)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil

	return u.String(), nil
}

// Fetch resolves a source location to a local file, downloading it if no
// fresh copy exists. Concurrent calls for the same normalized location share
// one download and observe the same entry.
func (c *Cache) Fetch(ctx context.Context, location string) (*Entry, error) {
	key, err := NormalizeLocation(location)
	if err != nil {
		return nil, err
	}

	dest, err := c.contentPath(key)
	if err != nil {
		return nil, err
	}

	// Fresh on disk: no network I/O at all.
	if c.statusOnDisk(dest) == Fresh {
		return &Entry{Source: key, Path: dest, Status: Fresh}, nil
	}

	if c.neg.contains(key) {
		return nil, &NotFoundError{Location: key}
	}

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		return c.download(ctx, key, location, dest)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// Status reports the current lifecycle state for a location without
// triggering any I/O.
func (c *Cache) Status(location string) Status {
	key, err := NormalizeLocation(location)
	if err != nil {
		return Missing
	}
	if c.inflight.contains(key) {
		return Downloading
	}
	dest, err := c.contentPath(key)
	if err != nil {
		return Missing
	}
	return c.statusOnDisk(dest)
}

// statusOnDisk classifies the local file for a content path.
func (c *Cache) statusOnDisk(dest string) Status {
	fi, err := os.Stat(dest)
	if err != nil {
		return Missing
	}
	if c.ttl > 0 && time.Since(fi.ModTime()) > c.ttl {
		return Stale
	}
	return Fresh
}

// contentPath derives the local file for a normalized location:
// content/<2-char shard>/<sha256 of the key>, keeping the source extension.
func (c *Cache) contentPath(key string) (string, error) {
	sum := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(sum[:])

	ext := ""
	if u, err := url.Parse(key); err == nil {
		ext = path.Ext(u.Path)
	}

	p, err := securejoin.SecureJoin(c.root, filepath.Join("content", name[:2], name+ext))
	if err != nil {
		return "", &RootError{Root: c.root, Err: err}
	}
	return p, nil
}

func (c *Cache) download(ctx context.Context, key, location, dest string) (*Entry, error) {
	c.inflight.add(key)
	defer c.inflight.remove(key)

	if err := os.MkdirAll(c.root, 0755); err != nil {
		return nil, &RootError{Root: c.root, Err: err}
	}

	var lastErr error
	backoff := c.backoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying download", "location", key, "attempt", attempt, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		err := c.tryDownload(ctx, location, dest)
		if err == nil {
			return &Entry{Source: key, Path: dest, Status: Fresh}, nil
		}
		if isNotFound(err) {
			c.neg.add(key, c.negativeTTL())
			return nil, &NotFoundError{Location: key}
		}
		if !isTransient(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, pkgerrors.Wrapf(lastErr, "giving up on %s after %d attempts", key, c.maxRetries+1)
}

// tryDownload performs one download attempt: stream to a temporary file,
// validate, then atomically promote into the content path. A failure never
// leaves a partial file at the final path.
func (c *Cache) tryDownload(ctx context.Context, location, dest string) (err error) {
	opts := append([]getter.Option{getter.WithContext(ctx)}, c.options...)

	g, err := getter.Resolve(location, c.custom, opts...)
	if err != nil {
		return err
	}

	resp, err := g.Get(location, opts...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(c.root, "download-")
	if err != nil {
		return &RootError{Root: c.root, Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, &contextReader{ctx: ctx, r: resp.Body})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		// The HTTP transport reports a short body as an unexpected EOF;
		// fold both shapes into the same truncation error.
		if err == nil || errors.Is(err, io.ErrUnexpectedEOF) {
			return &TruncatedDownloadError{Location: location, Expected: resp.ContentLength, Got: written}
		}
	}
	if err != nil {
		return err
	}

	if c.verify {
		if err = c.verifyChecksum(ctx, location, tmpName, opts); err != nil {
			return err
		}
	}

	return c.promote(tmpName, dest)
}

// verifyChecksum fetches the companion checksum resource at the sibling
// .sha1 location and compares it against the downloaded file. An unresolvable
// checksum resource is not an error; a resolvable one that disagrees is.
func (c *Cache) verifyChecksum(ctx context.Context, location, file string, opts []getter.Option) error {
	g, err := getter.Resolve(location+".sha1", c.custom, opts...)
	if err != nil {
		return nil
	}

	resp, err := g.Get(location+".sha1", opts...)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		c.logger.Debug("checksum resource unavailable", "location", location, "error", err)
		return nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return err
	}
	// Checksum files may carry a trailing filename, as in sha1sum output.
	fields := strings.Fields(strings.TrimSpace(string(raw)))
	if len(fields) == 0 {
		c.logger.Debug("empty checksum resource", "location", location)
		return nil
	}
	expected := strings.ToLower(fields[0])

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}
	got := hex.EncodeToString(h.Sum(nil))

	if got != expected {
		return &ChecksumMismatchError{Location: location, Expected: expected, Got: got}
	}
	return nil
}

// promote moves a validated temporary file into its final content path under
// a file lock, so concurrent processes sharing the cache root never observe a
// half-written artifact.
func (c *Cache) promote(tmpName, dest string) error {
	fl := flock.New(filepath.Join(c.root, lockFileName))
	if err := fl.Lock(); err != nil {
		os.Remove(tmpName)
		return &RootError{Root: c.root, Err: err}
	}
	defer fl.Unlock()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		os.Remove(tmpName)
		return &RootError{Root: c.root, Err: err}
	}
	if err := fsutil.RenameWithFallback(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	// Promotion refreshes the TTL clock.
	now := time.Now()
	os.Chtimes(dest, now, now)
	return nil
}

func (c *Cache) negativeTTL() time.Duration {
	if c.ttl > 0 {
		return c.ttl
	}
	return DefaultNegativeTTL
}

// isNotFound classifies errors that mean the resource does not exist; they
// are never retried.
func isNotFound(err error) bool {
	var rerr *getter.RemoteError
	if errors.As(err, &rerr) {
		return rerr.NotFound()
	}
	return errors.Is(err, os.ErrNotExist)
}

// isTransient classifies failures worth retrying: timeouts, connection
// resets, and server-side errors.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rerr *getter.RemoteError
	if errors.As(err, &rerr) {
		return rerr.Transient()
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// contextReader aborts a stream copy at the next read boundary once the
// context is canceled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}

// inflightSet tracks which normalized locations are currently downloading,
// for status reporting.
type inflightSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflightSet() *inflightSet {
	return &inflightSet{keys: make(map[string]struct{})}
}

func (s *inflightSet) add(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = struct{}{}
}

func (s *inflightSet) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}

func (s *inflightSet) contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

// negativeCache remembers locations known not to exist so repeated failing
// lookups are not re-issued within one process run.
type negativeCache struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

func newNegativeCache() *negativeCache {
	return &negativeCache{expires: make(map[string]time.Time)}
}

func (n *negativeCache) add(key string, ttl time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expires[key] = time.Now().Add(ttl)
}

func (n *negativeCache) contains(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	exp, ok := n.expires[key]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(n.expires, key)
		return false
	}
	return true
}
