package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/shadowdom/pkg/snapshot"
)

func snapshotCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored document snapshots",
		Long: `Save, load, list and delete snapshots in the backend configured
in shadowdom.json (a directory or an S3 bucket).

Examples:
  shadowdom snapshot save home page.html
  shadowdom snapshot load home > restored.html
  shadowdom snapshot list`,
	}

	cmd.AddCommand(
		snapshotSaveCmd(opts),
		snapshotLoadCmd(opts),
		snapshotListCmd(opts),
		snapshotDeleteCmd(opts),
	)
	return cmd
}

// withStore loads the configuration and opens its snapshot store.
func withStore(cmd *cobra.Command, opts *globalOptions, fn func(snapshot.Store) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return fn(store)
}

func snapshotSaveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save NAME FILE",
		Short: "Store FILE as snapshot NAME",
		Long: `Mount FILE and store the resulting document as snapshot NAME.
The stored markup is the serialized shadow tree, so comments are
dropped and the markup is known to parse.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			ws := newQuietWorkspace()
			if err := ws.doc.Mount(cmd.Context(), src); err != nil {
				return err
			}
			markup := []byte(ws.doc.HTML())

			return withStore(cmd, opts, func(store snapshot.Store) error {
				if err := store.Put(cmd.Context(), args[0], markup); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Saved %s (%d bytes)", args[0], len(markup))
				return nil
			})
		},
	}
}

func snapshotLoadCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load NAME",
		Short: "Print snapshot NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(store snapshot.Store) error {
				data, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
}

func snapshotListCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(store snapshot.Store) error {
				list, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
				for _, s := range list {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Name, s.Size, s.Modified.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
}

func snapshotDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete snapshot NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(store snapshot.Store) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Deleted %s", args[0])
				return nil
			})
		},
	}
}
