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

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/modfetch/modfetch/pkg/cache"
	"github.com/modfetch/modfetch/pkg/repo"
	"github.com/modfetch/modfetch/pkg/task"
)

const fetchDesc = `
This command resolves module coordinates against the configured repositories
and downloads their artifacts into the local cache.

A coordinate has the form ORGANIZATION:NAME:VERSION, where VERSION may be an
exact version, a version range, the markers 'latest' or 'release', or the
floating token '+' which tracks the channel selected with --channel.

    $ modfetch fetch com.example:web-framework:1.2.0
    $ modfetch fetch 'com.example:web-framework:>=1.0.0, <2.0.0'
    $ modfetch fetch com.example:web-framework:+ --channel release

Failures are reported per coordinate; one unresolvable coordinate does not
abort the rest of the batch.
`

type fetchOptions struct {
	extension   string
	classifiers []string
	channel     string
	noChecksums bool
	metadataTTL time.Duration
	out         io.Writer
}

func newFetchCmd(out io.Writer) *cobra.Command {
	o := &fetchOptions{out: out}

	cmd := &cobra.Command{
		Use:   "fetch COORDINATE [...]",
		Short: "resolve coordinates and download their artifacts",
		Long:  fetchDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.extension, "extension", "jar", "file extension of the primary artifact")
	f.StringArrayVar(&o.classifiers, "classifier", nil, "additional artifact classifier to fetch (can be repeated)")
	f.StringVar(&o.channel, "channel", "", "channel tracked by the floating '+' version (latest or release)")
	f.BoolVar(&o.noChecksums, "no-checksums", false, "skip sibling checksum validation")
	f.DurationVar(&o.metadataTTL, "metadata-ttl", 0, "how long repository metadata stays fresh (0 means the default)")

	return cmd
}

func (o *fetchOptions) run(cmd *cobra.Command, coordinates []string) error {
	f, err := repo.LoadFile(settings.RepositoryConfig)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return errors.New("no repositories configured (run 'modfetch repo add' first)")
		}
		return err
	}
	if len(f.Repositories) == 0 {
		return errors.New("no repositories configured (run 'modfetch repo add' first)")
	}

	params := task.Params{
		Resolve: task.ResolveConfig{
			Repositories: f.Repositories,
			MetadataTTL:  o.metadataTTL,
		},
		Artifact: task.ArtifactConfig{
			Extension:        o.extension,
			Classifiers:      o.classifiers,
			DisableChecksums: o.noChecksums,
		},
		Channel: task.ChannelConfig{Channel: o.channel},
	}

	t, err := task.New(params, coordinates,
		task.WithCache(cache.New(settings.CacheDir)),
		task.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	res, err := t.Run(cmd.Context(), settings.MaxWorkers)
	if err != nil {
		return err
	}

	for _, a := range res.Artifacts {
		fmt.Fprintln(o.out, a.Path)
	}
	for _, fail := range res.Failures {
		fmt.Fprintf(o.out, "FAILED %s: %s\n", fail.Coordinate, fail.Err)
	}
	return res.Err()
}
