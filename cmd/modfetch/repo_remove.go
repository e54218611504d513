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

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/modfetch/modfetch/pkg/repo"
)

func newRepoRemoveCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "remove [NAME]",
		Aliases: []string{"rm"},
		Short:   "remove an artifact repository",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			f, err := repo.LoadFile(settings.RepositoryConfig)
			if err != nil {
				return errors.Wrap(err, "no repositories configured")
			}
			if !f.Remove(name) {
				return errors.Errorf("no repo named %q found", name)
			}
			if err := f.WriteFile(settings.RepositoryConfig, 0644); err != nil {
				return err
			}
			fmt.Fprintf(out, "%q has been removed from your repositories\n", name)
			return nil
		},
	}
}
