package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowtree/pkg/flowtree"
	"github.com/randalmurphal/flowtree/pkg/flowtree/archive"
	"github.com/randalmurphal/flowtree/pkg/flowtree/fault"
)

// snapshotCmd builds a command that loads one run and prints it with render.
func snapshotCmd(root *rootFlags, use, short string, render func(io.Writer, flowtree.Snapshot)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " RUN_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withStore(func(store archive.Store) error {
				snap, err := flowtree.LoadSnapshot(store, args[0])
				if err != nil {
					return fmt.Errorf("load run %s: %w", args[0], err)
				}
				render(cmd.OutOrStdout(), snap)
				return nil
			})
		},
	}
}

func newShowCmd(root *rootFlags) *cobra.Command {
	return snapshotCmd(root, "show", "Print the full report of a run", printReport)
}

func newTreeCmd(root *rootFlags) *cobra.Command {
	return snapshotCmd(root, "tree", "Print the execution tree of a run", func(w io.Writer, s flowtree.Snapshot) {
		fmt.Fprint(w, s.TreeString())
	})
}

func newTrailCmd(root *rootFlags) *cobra.Command {
	return snapshotCmd(root, "trail", "Print every error and warning raised during a run", func(w io.Writer, s flowtree.Snapshot) {
		trail, warnings := s.Trail(), s.WarningTrail()
		if len(trail) == 0 {
			fmt.Fprintln(w, "No errors.")
		}
		fmt.Fprint(w, flowtree.FormatTrail(trail))
		if len(warnings) > 0 {
			fmt.Fprintln(w, "\nWarnings:")
			fmt.Fprint(w, flowtree.FormatTrail(warnings))
		}
	})
}

func printReport(w io.Writer, s flowtree.Snapshot) {
	fmt.Fprintf(w, "Run:      %s\n", s.RunID)
	fmt.Fprintf(w, "Root:     %s\n", s.Root)
	fmt.Fprintf(w, "Status:   %s\n", s.Status)
	fmt.Fprintf(w, "Started:  %s\n", s.Started.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Duration: %s\n", s.Duration.Round(time.Millisecond))
	if s.Tree != nil {
		fmt.Fprintf(w, "Nodes:    %d\n", s.Tree.Count())
	}
	printIssues(w, "Errors", s.Errors)
	printIssues(w, "Warnings", s.Warnings)
	if s.Tree != nil {
		fmt.Fprintln(w, "\nTree:")
		fmt.Fprint(w, s.TreeString())
	}
}

func printIssues(w io.Writer, title string, issues []*fault.FlowError) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(w, "%s: (%d)\n", title, len(issues))
	for _, e := range issues {
		fmt.Fprintf(w, "  %s\n", e.Error())
	}
}
