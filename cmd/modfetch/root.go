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
	"io"

	"github.com/spf13/cobra"
)

var globalUsage = `The module artifact fetcher.

Common actions for modfetch:

- modfetch repo add:    configure an artifact repository
- modfetch fetch:       resolve coordinates and download their artifacts
- modfetch repo list:   list configured repositories

Environment variables:

| Name                       | Description                                       |
|----------------------------|---------------------------------------------------|
| $MODFETCH_CACHE            | set an alternative location for the artifact cache |
| $MODFETCH_REPOSITORY_CONFIG| set the path to the repositories file             |
| $MODFETCH_MAX_WORKERS      | bound download concurrency                        |
| $MODFETCH_DEBUG            | indicate whether or not modfetch is running in Debug mode |
`

func newRootCmd(out io.Writer, args []string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "modfetch",
		Short:        "The module artifact fetcher.",
		Long:         globalUsage,
		SilenceUsage: true,
	}
	flags := cmd.PersistentFlags()
	settings.AddFlags(flags)

	cmd.AddCommand(
		newFetchCmd(out),
		newRepoCmd(out),
		newStatusCmd(out),
		newVersionCmd(out),
	)

	flags.Parse(args)

	return cmd
}
