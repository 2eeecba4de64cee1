package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/shadowdom/pkg/live/memdom"
	"github.com/vango-dev/shadowdom/pkg/markup"
	"github.com/vango-dev/shadowdom/pkg/shadow"
)

func diffCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Show the live operations that turn OLD into NEW",
		Long: `Mount OLD, reconcile it against NEW and print every operation
sent to the live document, followed by a summary.

Examples:
  shadowdom diff before.html after.html
  shadowdom diff --quiet before.html after.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldSrc, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			newSrc, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}

			ws := newQuietWorkspace()
			if err := ws.doc.Mount(cmd.Context(), oldSrc); err != nil {
				return err
			}
			forest, err := markup.Parse(newSrc)
			if err != nil {
				return err
			}

			ws.host.Reset()
			stats, err := ws.doc.Reconcile(cmd.Context(), ws.doc.Root(), forest.Children)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if !quiet {
				printOps(w, ws.host.Ops())
			}
			printStats(w, stats)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the summary")

	return cmd
}

func printOps(w io.Writer, ops []memdom.Record) {
	for _, r := range ops {
		fmt.Fprintln(w, r.String())
	}
}

func printStats(w io.Writer, s shadow.Stats) {
	fmt.Fprintf(w, "%d mutations: %d created, %d replaced, %d appended, %d removed, %d attrs set, %d attrs removed\n",
		s.Mutations(), s.Created, s.Replaced, s.Appended, s.Removed, s.AttrsSet, s.AttrsRemoved)
}
