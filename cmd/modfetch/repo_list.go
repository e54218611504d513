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
	"os"

	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/modfetch/modfetch/pkg/repo"
)

func newRepoListCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "list artifact repositories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := repo.LoadFile(settings.RepositoryConfig)
			if err != nil && !os.IsNotExist(errors.Cause(err)) {
				return err
			}
			if err != nil || len(f.Repositories) == 0 {
				return errors.New("no repositories to show")
			}

			table := uitable.New()
			table.AddRow("NAME", "URL")
			for _, re := range f.Repositories {
				table.AddRow(re.Name, re.URL)
			}
			fmt.Fprintln(out, table)
			return nil
		},
	}
}
