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

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/modfetch/modfetch/pkg/cache"
)

const statusDesc = `
This command reports the cache state of artifact locations without touching
the network. Each location is reported as missing, downloading, fresh or
stale.
`

func newStatusCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "status LOCATION [...]",
		Short: "report the cache state of artifact locations",
		Long:  statusDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cache.New(settings.CacheDir)

			table := uitable.New()
			table.AddRow("LOCATION", "STATUS")
			for _, location := range args {
				table.AddRow(location, c.Status(location).String())
			}
			fmt.Fprintln(out, table)
			return nil
		},
	}
}
