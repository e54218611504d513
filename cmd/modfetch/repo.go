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

const repoHelp = `
This command consists of multiple subcommands to interact with artifact repositories.

It can be used to add, remove and list the repositories coordinates are
resolved against. Declaration order matters: when several repositories carry
metadata for a module, the one listed first wins.
`

func newRepoCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo add|remove|list [ARGS]",
		Short: "add, list, or remove artifact repositories",
		Long:  repoHelp,
	}

	cmd.AddCommand(
		newRepoAddCmd(out),
		newRepoListCmd(out),
		newRepoRemoveCmd(out),
	)

	return cmd
}
