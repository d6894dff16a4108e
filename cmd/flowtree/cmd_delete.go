package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowtree/pkg/flowtree/archive"
)

func newDeleteCmd(root *rootFlags) *cobra.Command {
	var missingOK bool
	cmd := &cobra.Command{
		Use:   "delete RUN_ID...",
		Short: "Remove runs from the archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withStore(func(store archive.Store) error {
				for _, id := range args {
					if !missingOK {
						if _, err := store.Load(id); err != nil {
							if errors.Is(err, archive.ErrNotFound) {
								return fmt.Errorf("run %s is not archived", id)
							}
							return fmt.Errorf("load run %s: %w", id, err)
						}
					}
					if err := store.Delete(id); err != nil {
						return fmt.Errorf("delete run %s: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&missingOK, "missing-ok", false, "do not fail on runs that are not archived")
	return cmd
}
