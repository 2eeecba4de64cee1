package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/vango-dev/shadowdom/internal/errors"
)

const watchDebounce = 100 * time.Millisecond

func watchCmd(opts *globalOptions) *cobra.Command {
	var withServer bool

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-reconcile a document whenever its file changes",
		Long: `Mount FILE and reconcile the document again every time the file
is written, printing the live operations each change produced.

With --serve the inspector runs on the same document, so connected
/ops clients see every change.

Examples:
  shadowdom watch page.html
  shadowdom watch --serve page.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ws := newWorkspace(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if withServer {
				go func() {
					if err := serve(ctx, cmd, ws, cfg); err != nil {
						ws.logger.Error("inspector stopped", "error", err)
						stop()
					}
				}()
			}
			return watch(ctx, cmd, ws, args[0])
		},
	}

	cmd.Flags().BoolVar(&withServer, "serve", false, "Also serve the inspector")

	return cmd
}

// watch mounts path and reconciles on every write until ctx is done.
// The directory is watched so editors that replace the file by rename
// are still seen.
func watch(ctx context.Context, cmd *cobra.Command, ws *workspace, path string) error {
	w := cmd.OutOrStdout()
	if err := reload(ctx, cmd, ws, path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Newf(errors.CategoryCLI, "cannot start file watcher").Wrap(err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Newf(errors.CategoryCLI, "cannot watch %s", filepath.Dir(abs)).Wrap(err)
	}
	info(w, "Watching %s", path)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			if err := reload(ctx, cmd, ws, path); err != nil {
				// Keep watching; the next save may fix it.
				errors.Fprint(cmd.ErrOrStderr(), err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			ws.logger.Warn("watch error", "error", err)
		}
	}
}

// reload reconciles the document against the file's current content.
func reload(ctx context.Context, cmd *cobra.Command, ws *workspace, path string) error {
	src, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	ws.host.Reset()
	if err := ws.doc.SetInnerHTML(ctx, ws.doc.Root(), src); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	ops := ws.host.Ops()
	printOps(w, ops)
	success(w, "%s: %d operations, %d nodes", filepath.Base(path), len(ops), ws.doc.Len())
	return nil
}
