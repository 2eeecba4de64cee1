package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func queryCmd() *cobra.Command {
	var count bool

	cmd := &cobra.Command{
		Use:   "query FILE SELECTOR",
		Short: "Print elements matching a selector",
		Long: `Mount FILE and print the outerHTML of every element matching
SELECTOR, in document order.

Supported selectors: tag, #id, .class, [attr], [attr=value],
descendant combinators, comma lists, * and the :first-child,
:last-child, :first-of-type and :last-of-type pseudo-classes.

Examples:
  shadowdom query page.html 'ul li:first-child'
  shadowdom query --count page.html '.item'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			ws := newQuietWorkspace()
			if err := ws.doc.Mount(cmd.Context(), src); err != nil {
				return err
			}
			nodes, err := ws.doc.QueryAll(args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if count {
				fmt.Fprintln(w, len(nodes))
				return nil
			}
			for _, n := range nodes {
				fmt.Fprintln(w, n.OuterHTML())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&count, "count", false, "Print only the number of matches")

	return cmd
}
