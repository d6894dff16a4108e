package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowtree/pkg/flowtree"
	"github.com/randalmurphal/flowtree/pkg/flowtree/archive"
)

func newListCmd(root *rootFlags) *cobra.Command {
	var q archive.Query
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if q.Status != "" {
				status, err := flowtree.ParseStatus(q.Status)
				if err != nil {
					return err
				}
				q.Status = status.String()
			}
			if q.Limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", q.Limit)
			}

			return root.withStore(func(store archive.Store) error {
				infos, err := store.List(q)
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(infos) == 0 {
					fmt.Fprintln(out, "No archived runs.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "RUN ID\tROOT\tSTATUS\tSTARTED\tDURATION\tSIZE")
				for _, info := range infos {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
						info.RunID, info.Root, info.Status,
						info.Started.UTC().Format(time.RFC3339),
						info.Duration.Round(time.Millisecond), info.Size)
				}
				return w.Flush()
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&q.Root, "root", "", "only runs of this root flow")
	f.StringVar(&q.Status, "status", "", "only runs with this status (success, warning, error)")
	f.IntVar(&q.Limit, "limit", 0, "keep only the N most recent runs (0 for all)")
	return cmd
}
