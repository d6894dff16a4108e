package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowtree/pkg/flowtree/archive"
	"github.com/randalmurphal/flowtree/pkg/flowtree/config"
)

type rootFlags struct {
	db         string
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "flowtree",
		Short:         "Inspect archived flow runs",
		Long:          "flowtree reads the run archive written by flows run with an archive\nand prints their reports, execution trees and error trails.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.db, "db", "", "SQLite archive file (overrides the config archive)")
	pf.StringVar(&flags.configPath, "config", "", "settings file (.yaml, .yml or .json)")

	cmd.AddCommand(
		newListCmd(flags),
		newShowCmd(flags),
		newTreeCmd(flags),
		newTrailCmd(flags),
		newDeleteCmd(flags),
		newDemoCmd(flags),
	)
	return cmd
}

var errNoArchive = errors.New("no archive configured: pass --db or set archive.driver in --config")

// settings loads the settings file, or the defaults when none was given.
func (f *rootFlags) settings() (config.Settings, error) {
	if f.configPath == "" {
		return config.Defaults(), nil
	}
	return config.FromFile(f.configPath)
}

// openStore opens the archive named by the flags. The caller closes it.
func (f *rootFlags) openStore() (archive.Store, error) {
	if f.db != "" {
		store, err := archive.NewSQLiteStore(f.db)
		if err != nil {
			return nil, fmt.Errorf("open archive %s: %w", f.db, err)
		}
		return store, nil
	}

	s, err := f.settings()
	if err != nil {
		return nil, err
	}
	store, err := archive.Open(s.Archive)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errNoArchive
	}
	return store, nil
}

// withStore opens the archive, runs fn and closes the archive.
func (f *rootFlags) withStore(fn func(archive.Store) error) (err error) {
	store, err := f.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", cerr)
		}
	}()
	return fn(store)
}
