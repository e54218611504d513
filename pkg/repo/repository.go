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

package repo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modfetch/modfetch/internal/fileutil"
	"github.com/modfetch/modfetch/pkg/getter"
	"github.com/modfetch/modfetch/pkg/metadata"
	"github.com/modfetch/modfetch/pkg/module"
)

// DefaultMetadataTTL is how long a cached metadata document is trusted
// before a refetch is attempted.
const DefaultMetadataTTL = 24 * time.Hour

// Repository reads per-module metadata from one configured repository,
// caching documents on disk for the TTL window.
type Repository struct {
	Config *Entry
	// Getters is the caller's custom handler registry; nil means built-in
	// scheme resolution only.
	Getters   getter.Providers
	CachePath string
	TTL       time.Duration

	logger *slog.Logger
}

// NewRepository constructs a Repository for one entry. The cachePath holds
// cached metadata documents; it is created on first use.
func NewRepository(cfg *Entry, custom getter.Providers, cachePath string) (*Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid repository URL %q: %w", cfg.URL, err)
	}

	return &Repository{
		Config:    cfg,
		Getters:   custom,
		CachePath: cachePath,
		TTL:       DefaultMetadataTTL,
		logger:    slog.Default(),
	}, nil
}

// SetLogger replaces the repository's logger.
func (r *Repository) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// MetadataURL returns the location of the metadata document for a module in
// this repository.
func (r *Repository) MetadataURL(coord module.Coordinate) string {
	return joinURL(r.Config.URL, coord.Path(), coord.Name, metadata.FileName)
}

// ArtifactURL returns the location of a module artifact at a concrete
// version. Extension is used without a leading dot; an empty classifier is
// omitted.
func (r *Repository) ArtifactURL(coord module.Coordinate, version, classifier, extension string) string {
	name := coord.Name + "-" + version
	if classifier != "" {
		name += "-" + classifier
	}
	name += "." + extension
	return joinURL(r.Config.URL, coord.Path(), coord.Name, version, name)
}

// Metadata returns the repository's metadata document for a module.
//
// A cached document younger than the TTL is used without network I/O. A
// stale document triggers a refetch; if the refetch fails, the last known
// good document is returned with a warning rather than a hard failure.
func (r *Repository) Metadata(ctx context.Context, coord module.Coordinate) (*metadata.Metadata, error) {
	cachefile := r.cacheFile(coord)

	if raw, ok := r.cachedDocument(cachefile, false); ok {
		return metadata.Parse(raw)
	}

	raw, err := r.fetchDocument(ctx, coord)
	if err != nil {
		// Stale beats absent: fall back to the last known good document.
		if stale, ok := r.cachedDocument(cachefile, true); ok {
			m, perr := metadata.Parse(stale)
			if perr == nil {
				r.logger.Warn("metadata refetch failed, using stale cached copy",
					"repository", r.Config.Name, "module", coord.Organization+":"+coord.Name, "error", err)
				return m, nil
			}
		}
		return nil, err
	}

	m, err := metadata.Parse(raw)
	if err != nil {
		return nil, err
	}

	if werr := r.writeCache(cachefile, raw); werr != nil {
		r.logger.Debug("could not cache metadata document", "file", cachefile, "error", werr)
	}
	return m, nil
}

// cachedDocument reads the on-disk copy of a metadata document. When
// allowStale is false, documents older than the TTL are ignored.
func (r *Repository) cachedDocument(cachefile string, allowStale bool) ([]byte, bool) {
	fi, err := os.Stat(cachefile)
	if err != nil {
		return nil, false
	}
	if !allowStale && time.Since(fi.ModTime()) > r.ttl() {
		return nil, false
	}
	raw, err := os.ReadFile(cachefile)
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (r *Repository) fetchDocument(ctx context.Context, coord module.Coordinate) ([]byte, error) {
	href := r.MetadataURL(coord)

	opts := []getter.Option{
		getter.WithContext(ctx),
		getter.WithURL(r.Config.URL),
		getter.WithBasicAuth(r.Config.Username, r.Config.Password),
		getter.WithPassCredentialsAll(r.Config.PassCredentialsAll),
	}

	g, err := getter.Resolve(href, r.Getters, opts...)
	if err != nil {
		return nil, err
	}

	resp, err := g.Get(href, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (r *Repository) writeCache(cachefile string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(cachefile), 0755); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(cachefile, bytes.NewReader(raw), 0644)
}

// cacheFile names the on-disk copy of a module's metadata document for this
// repository.
func (r *Repository) cacheFile(coord module.Coordinate) string {
	name := fmt.Sprintf("%s-%s-%s-%s", r.Config.Name, coord.Organization, coord.Name, metadata.FileName)
	return filepath.Join(r.CachePath, "repository", name)
}

func (r *Repository) ttl() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return DefaultMetadataTTL
}

// joinURL joins a base URL and path elements with single slashes.
func joinURL(base string, elem ...string) string {
	out := strings.TrimSuffix(base, "/")
	for _, e := range elem {
		out += "/" + strings.Trim(e, "/")
	}
	return out
}
