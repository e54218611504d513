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
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/modfetch/modfetch/pkg/repo"
)

type repoAddOptions struct {
	name               string
	url                string
	username           string
	password           string
	passCredentialsAll bool
	noUpdate           bool

	repoFile string
	out      io.Writer
}

func newRepoAddCmd(out io.Writer) *cobra.Command {
	o := &repoAddOptions{out: out}

	cmd := &cobra.Command{
		Use:   "add [NAME] [URL]",
		Short: "add an artifact repository",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.name = args[0]
			o.url = args[1]
			o.repoFile = settings.RepositoryConfig
			return o.run()
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.username, "username", "", "repository username")
	f.StringVar(&o.password, "password", "", "repository password")
	f.BoolVar(&o.passCredentialsAll, "pass-credentials", false, "pass credentials to all domains")
	f.BoolVar(&o.noUpdate, "no-update", false, "raise an error if the repository is already registered")

	return cmd
}

func (o *repoAddOptions) run() error {
	if err := os.MkdirAll(filepath.Dir(o.repoFile), 0755); err != nil && !os.IsExist(err) {
		return err
	}

	// Serialize writes to the repositories file between processes.
	fileLock := flock.New(lockPath(o.repoFile))
	locked, err := fileLock.TryLock()
	if err != nil {
		return err
	}
	if !locked {
		return errors.Errorf("unable to lock %s, another process is modifying it", o.repoFile)
	}
	defer fileLock.Unlock()

	f, err := repo.LoadFile(o.repoFile)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return err
		}
		f = repo.NewFile()
	}

	e := &repo.Entry{
		Name:               o.name,
		URL:                o.url,
		Username:           o.username,
		Password:           o.password,
		PassCredentialsAll: o.passCredentialsAll,
	}
	if err := e.Validate(); err != nil {
		return err
	}

	if o.noUpdate && f.Has(o.name) {
		return errors.Errorf("repository name (%s) already exists, please specify a different name", o.name)
	}

	f.Update(e)

	if err := f.WriteFile(o.repoFile, 0644); err != nil {
		return err
	}
	fmt.Fprintf(o.out, "%q has been added to your repositories\n", o.name)
	return nil
}

func lockPath(repoFile string) string {
	return filepath.Join(filepath.Dir(repoFile), filepath.Base(repoFile)+".lock")
}
