package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/shadowdom/internal/treedump"
	"github.com/vango-dev/shadowdom/pkg/markup"
)

func parseCmd() *cobra.Command {
	var tree bool

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse markup and print the result",
		Long: `Parse markup with the shadow tree tokenizer and print it back.

By default the parse tree is rendered as markup, which shows how
implied closings and case folding were applied. With --tree the
parse tree is printed as an indented tree instead.

Use - to read from stdin.

Examples:
  shadowdom parse page.html
  echo '<ul><li>a<li>b</ul>' | shadowdom parse --tree -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			root, err := markup.Parse(src)
			if err != nil {
				return err
			}
			if tree {
				fmt.Fprint(cmd.OutOrStdout(), treedump.Parse(root))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), markup.RenderString(root))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&tree, "tree", "t", false, "Print the parse tree")

	return cmd
}
