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

// Package getter resolves URL schemes to openable connections.
//
// A caller may inject a custom Providers registry; its providers are
// consulted before the built-in scheme table. Resolution itself performs no
// I/O: nothing touches the network until Get is called on the returned
// Getter.
package getter // import "github.com/modfetch/modfetch/pkg/getter"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"
)

// getterOptions are generic parameters to be provided to the getter during
// instantiation.
//
// Getters may or may not ignore these parameters as they are passed in.
type getterOptions struct {
	ctx                context.Context
	url                string
	username           string
	password           string
	passCredentialsAll bool
	userAgent          string
	acceptHeader       string
	timeout            time.Duration
	transport          *http.Transport
}

// Option allows specifying various settings configurable by the user for
// overriding the defaults used when performing Get operations with the Getter.
type Option func(*getterOptions)

// WithContext sets the context observed by network connect and stream reads.
func WithContext(ctx context.Context) Option {
	return func(opts *getterOptions) {
		opts.ctx = ctx
	}
}

// WithURL informs the getter the server name that will be used when fetching
// objects. Used in conjunction with WithBasicAuth to scope credentials to a
// single host.
func WithURL(url string) Option {
	return func(opts *getterOptions) {
		opts.url = url
	}
}

// WithBasicAuth sets the request's Authorization header to use the provided credentials
func WithBasicAuth(username, password string) Option {
	return func(opts *getterOptions) {
		opts.username = username
		opts.password = password
	}
}

func WithPassCredentialsAll(pass bool) Option {
	return func(opts *getterOptions) {
		opts.passCredentialsAll = pass
	}
}

// WithUserAgent sets the request's User-Agent header to use the provided agent name.
func WithUserAgent(userAgent string) Option {
	return func(opts *getterOptions) {
		opts.userAgent = userAgent
	}
}

// WithAcceptHeader sets the request's Accept header as some servers serve
// multiple content types
func WithAcceptHeader(header string) Option {
	return func(opts *getterOptions) {
		opts.acceptHeader = header
	}
}

// WithTimeout sets the timeout for requests
func WithTimeout(timeout time.Duration) Option {
	return func(opts *getterOptions) {
		opts.timeout = timeout
	}
}

// WithTransport sets the http.Transport to allow overwriting the HTTPGetter default.
func WithTransport(transport *http.Transport) Option {
	return func(opts *getterOptions) {
		opts.transport = transport
	}
}

// Response is an opened connection to a remote resource.
//
// ContentLength is -1 when the transport cannot determine the length without
// reading the stream. Callers own Body and must close it.
type Response struct {
	Body          io.ReadCloser
	ContentLength int64
}

// Getter is an interface to support GET to the specified URL.
type Getter interface {
	// Get opens a connection to the resource at the url string.
	Get(url string, options ...Option) (*Response, error)
}

// Constructor is the function for every getter which creates a specific
// instance according to the configuration
type Constructor func(options ...Option) (Getter, error)

// ErrNoHandler is returned by a Constructor that declines a scheme it is
// registered for. Resolution then falls through to the built-in scheme table
// instead of failing.
var ErrNoHandler = errors.New("no handler for scheme")

// UnsupportedSchemeError is returned when neither the caller's registry nor
// the built-in providers handle a URL scheme.
type UnsupportedSchemeError struct {
	Scheme string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("scheme %q not supported", e.Scheme)
}

// Provider represents any getter and the schemes that it supports.
//
// For example, an HTTP provider may provide one getter that handles both
// 'http' and 'https' schemes.
type Provider struct {
	Schemes []string
	New     Constructor
}

// Provides returns true if the given scheme is supported by this Provider.
func (p Provider) Provides(scheme string) bool {
	return slices.Contains(p.Schemes, scheme)
}

// Providers is a collection of Provider objects.
type Providers []Provider

// ByScheme returns a Getter from the first Provider that handles the given
// scheme.
//
// If no provider handles this scheme, this will return an
// *UnsupportedSchemeError.
func (p Providers) ByScheme(scheme string, options ...Option) (Getter, error) {
	for _, pp := range p {
		if pp.Provides(scheme) {
			g, err := pp.New(options...)
			if errors.Is(err, ErrNoHandler) || (err == nil && g == nil) {
				// The provider declined; keep looking.
				continue
			}
			return g, err
		}
	}
	return nil, &UnsupportedSchemeError{Scheme: scheme}
}

const (
	// The default timeout references curl's default connection timeout.
	// Downloads are usually driven by an interactive command, so the whole
	// request is capped at 120s.
	DefaultHTTPTimeout = 120
)

var defaultOptions = []Option{WithTimeout(time.Second * DefaultHTTPTimeout)}

// Getters returns the built-in providers.
func Getters(extraOpts ...Option) Providers {
	return Providers{
		Provider{
			Schemes: []string{"http", "https"},
			New: func(options ...Option) (Getter, error) {
				options = append(options, defaultOptions...)
				options = append(options, extraOpts...)
				return NewHTTPGetter(options...)
			},
		},
		Provider{
			Schemes: []string{"file"},
			New: func(options ...Option) (Getter, error) {
				options = append(options, extraOpts...)
				return NewFileGetter(options...)
			},
		},
	}
}

// Resolve returns a Getter for the scheme of urlSpec.
//
// Providers in custom are consulted first, in order; a custom constructor may
// return ErrNoHandler (or a nil Getter) to decline a scheme it is registered
// for, in which case resolution falls back to the built-in table. A custom
// registry may be nil; that is a valid configuration distinct from an empty
// one, and means built-in resolution only.
func Resolve(urlSpec string, custom Providers, options ...Option) (Getter, error) {
	u, err := url.Parse(urlSpec)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", urlSpec, err)
	}

	for _, p := range custom {
		if !p.Provides(u.Scheme) {
			continue
		}
		g, err := p.New(options...)
		if errors.Is(err, ErrNoHandler) || (err == nil && g == nil) {
			// Declined: try the remaining custom providers, then the
			// built-in table below.
			continue
		}
		return g, err
	}

	return Getters().ByScheme(u.Scheme, options...)
}
