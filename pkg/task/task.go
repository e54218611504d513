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

// Package task composes repositories, metadata and the artifact cache into a
// deferred, restartable fetch computation.
//
// Construction is synchronous and side-effect-free: coordinates and
// configuration are validated up front and no I/O happens until Run is
// called. A Task value holds no hidden result state, so running it twice
// performs the work twice; any caching comes from the shared artifact cache.
package task // import "github.com/modfetch/modfetch/pkg/task"

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/modfetch/modfetch/pkg/cache"
	"github.com/modfetch/modfetch/pkg/getter"
	"github.com/modfetch/modfetch/pkg/module"
	"github.com/modfetch/modfetch/pkg/repo"
)

// DefaultWorkers bounds download concurrency when the caller does not.
const DefaultWorkers = 4

// ResolveConfig names the repositories consulted for metadata, in precedence
// order, and how long metadata documents stay fresh.
type ResolveConfig struct {
	Repositories []*repo.Entry
	// MetadataTTL overrides how long metadata documents stay fresh; zero
	// means the repository default.
	MetadataTTL time.Duration
}

// ArtifactConfig describes which artifacts to fetch per resolved module.
type ArtifactConfig struct {
	// Extension of the primary artifact, without a leading dot. Defaults to
	// "jar".
	Extension string
	// Classifiers are additional artifacts fetched next to the primary one,
	// e.g. "sources".
	Classifiers []string
	// DisableChecksums turns off sibling-checksum validation on downloads.
	DisableChecksums bool
}

// ChannelConfig selects which metadata marker a floating version tracks.
type ChannelConfig struct {
	// Channel is "latest" or "release"; it resolves coordinates whose
	// version is the floating "+" token. Defaults to "latest".
	Channel string
}

// Params carries all configuration captured at task construction.
type Params struct {
	Resolve  ResolveConfig
	Artifact ArtifactConfig
	Channel  ChannelConfig
}

// FloatingVersion is the version token resolved through ChannelConfig.
const FloatingVersion = "+"

// RepositoryUnavailableError reports that every configured repository failed
// to yield metadata for a coordinate.
type RepositoryUnavailableError struct {
	Coordinate module.Coordinate
	Causes     error
}

func (e *RepositoryUnavailableError) Error() string {
	return fmt.Sprintf("no repository could resolve %s: %s", e.Coordinate, e.Causes)
}

func (e *RepositoryUnavailableError) Unwrap() error { return e.Causes }

// Failure pairs a coordinate with the error that failed it.
type Failure struct {
	Coordinate module.Coordinate
	Err        error
}

// Result is the outcome of one Task run. Failures preserve the input order
// of their coordinates.
type Result struct {
	Artifacts []*cache.Entry
	Failures  []Failure
}

// Err aggregates all failures into one error, or nil for a fully successful
// run.
func (r *Result) Err() error {
	var merr *multierror.Error
	for _, f := range r.Failures {
		merr = multierror.Append(merr, errors.Wrap(f.Err, f.Coordinate.String()))
	}
	return merr.ErrorOrNil()
}

// Task is a deferred fetch computation over a fixed set of coordinates.
type Task struct {
	params Params
	coords []module.Coordinate
	custom getter.Providers
	cache  *cache.Cache
	logger *slog.Logger
}

// Option configures a Task at construction.
type Option func(*Task)

// WithHandlerRegistry injects a custom transport registry, consulted before
// the built-in schemes for every metadata and artifact fetch. Nil is valid
// and distinct from an empty registry.
func WithHandlerRegistry(p getter.Providers) Option {
	return func(t *Task) {
		t.custom = p
	}
}

// WithCache sets the artifact cache the task downloads through. Sharing one
// cache across tasks shares their downloads.
func WithCache(c *cache.Cache) Option {
	return func(t *Task) {
		t.cache = c
	}
}

// WithLogger sets the task's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Task) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New validates configuration and coordinates and captures them into a
// deferred Task. Malformed coordinate strings fail here, not at Run.
func New(params Params, coordinates []string, opts ...Option) (*Task, error) {
	if len(params.Resolve.Repositories) == 0 {
		return nil, errors.New("at least one repository must be configured")
	}
	for _, e := range params.Resolve.Repositories {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	switch params.Channel.Channel {
	case "", module.MarkerLatest, module.MarkerRelease:
	default:
		return nil, fmt.Errorf("unknown channel %q", params.Channel.Channel)
	}
	if params.Artifact.Extension == "" {
		params.Artifact.Extension = "jar"
	}

	coords := make([]module.Coordinate, 0, len(coordinates))
	for _, s := range coordinates {
		c, err := module.Parse(s)
		if err != nil {
			return nil, err
		}
		coords = append(coords, c)
	}

	t := &Task{
		params: params,
		coords: coords,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Coordinates returns the parsed coordinates the task will resolve.
func (t *Task) Coordinates() []module.Coordinate {
	out := make([]module.Coordinate, len(t.coords))
	copy(out, t.coords)
	return out
}

// download is one concrete artifact fetch produced by the resolution phase.
// Candidates are tried in repository precedence order until one is found.
type download struct {
	index      int // position of the owning coordinate
	coordinate module.Coordinate
	candidates []string
}

// Run executes the task on a worker pool bounded at workers, resolving every
// coordinate and downloading its artifact set.
//
// Per-coordinate failures are collected into the result; only environment
// errors (an unusable cache root) or context cancellation abort the whole
// run. Run may be called again; it repeats all resolution work.
func (t *Task) Run(ctx context.Context, workers int) (*Result, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	c := t.cache
	if c == nil {
		return nil, errors.New("task has no cache configured")
	}
	if t.custom != nil {
		c = c.WithHandlerRegistry(t.custom)
	}
	if t.params.Artifact.DisableChecksums {
		c = c.WithChecksumVerification(false)
	}

	repos, err := t.repositories()
	if err != nil {
		return nil, err
	}

	// Phase one: resolve a concrete version per coordinate and build the
	// download set.
	failures := make([]*Failure, len(t.coords))
	downloads := make([][]download, len(t.coords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, coord := range t.coords {
		i, coord := i, coord
		g.Go(func() error {
			ds, err := t.resolveCoordinate(gctx, repos, i, coord)
			if err != nil {
				failures[i] = &Failure{Coordinate: coord, Err: err}
				return nil
			}
			downloads[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase two: fetch every artifact concurrently.
	var (
		mu        sync.Mutex
		artifacts []*cache.Entry
	)

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range downloads {
		for _, d := range downloads[i] {
			d := d
			g.Go(func() error {
				entry, err := t.fetchOne(gctx, c, d)
				if err != nil {
					var rootErr *cache.RootError
					if errors.As(err, &rootErr) {
						return err // fatal for the whole run
					}
					mu.Lock()
					if failures[d.index] == nil {
						failures[d.index] = &Failure{Coordinate: d.coordinate, Err: err}
					}
					mu.Unlock()
					return nil
				}
				mu.Lock()
				artifacts = append(artifacts, entry)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Artifacts: artifacts}
	for _, f := range failures {
		if f != nil {
			result.Failures = append(result.Failures, *f)
		}
	}
	return result, nil
}

// repositories builds Repository values for the configured entries, keeping
// declaration order.
func (t *Task) repositories() ([]*repo.Repository, error) {
	out := make([]*repo.Repository, 0, len(t.params.Resolve.Repositories))
	for _, e := range t.params.Resolve.Repositories {
		r, err := repo.NewRepository(e, t.custom, t.cache.Root())
		if err != nil {
			return nil, err
		}
		if ttl := t.params.Resolve.MetadataTTL; ttl > 0 {
			r.TTL = ttl
		}
		r.SetLogger(t.logger)
		out = append(out, r)
	}
	return out, nil
}

// resolveCoordinate picks a version for one coordinate and returns its
// download set.
//
// Exact versions skip the metadata lookup entirely; every repository is then
// a download candidate, tried in precedence order. Floating versions consult
// repositories in declaration order and the first one yielding metadata
// wins; later repositories are not queried.
func (t *Task) resolveCoordinate(ctx context.Context, repos []*repo.Repository, index int, coord module.Coordinate) ([]download, error) {
	requested := coord.Version
	if requested == FloatingVersion {
		requested = t.channelMarker()
	}

	resolved := module.Coordinate{Organization: coord.Organization, Name: coord.Name, Version: requested}

	if resolved.IsExact() {
		return t.downloadsFor(index, coord, repos, resolved.Version), nil
	}

	var causes error
	for _, r := range repos {
		m, err := r.Metadata(ctx, coord)
		if err != nil {
			causes = multierror.Append(causes, errors.Wrap(err, r.Config.Name))
			continue
		}
		v, err := m.Select(requested)
		if err != nil {
			return nil, err
		}
		t.logger.Debug("resolved version", "coordinate", coord.String(), "version", v, "repository", r.Config.Name)
		return t.downloadsFor(index, coord, []*repo.Repository{r}, v), nil
	}

	return nil, &RepositoryUnavailableError{Coordinate: coord, Causes: causes}
}

// downloadsFor expands a resolved version into the primary artifact plus
// configured classifier artifacts, with one candidate URL per repository.
func (t *Task) downloadsFor(index int, coord module.Coordinate, repos []*repo.Repository, version string) []download {
	classifiers := append([]string{""}, t.params.Artifact.Classifiers...)

	out := make([]download, 0, len(classifiers))
	for _, cl := range classifiers {
		d := download{index: index, coordinate: coord}
		for _, r := range repos {
			d.candidates = append(d.candidates, r.ArtifactURL(coord, version, cl, t.params.Artifact.Extension))
		}
		out = append(out, d)
	}
	return out
}

// fetchOne tries a download's candidate locations in order, stopping at the
// first that exists.
func (t *Task) fetchOne(ctx context.Context, c *cache.Cache, d download) (*cache.Entry, error) {
	var lastErr error
	for _, href := range d.candidates {
		entry, err := c.Fetch(ctx, href)
		if err == nil {
			return entry, nil
		}
		lastErr = err

		var nf *cache.NotFoundError
		if errors.As(err, &nf) {
			// Try the next repository.
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (t *Task) channelMarker() string {
	if t.params.Channel.Channel == "" {
		return module.MarkerLatest
	}
	return t.params.Channel.Channel
}
