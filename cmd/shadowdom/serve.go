package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/shadowdom/internal/config"
	"github.com/vango-dev/shadowdom/pkg/inspect"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		port     int
		host     string
		sanitize bool
	)

	cmd := &cobra.Command{
		Use:   "serve [FILE]",
		Short: "Serve the inspector over a document",
		Long: `Mount FILE (or an empty document) and serve the HTTP inspector.

The inspector exposes the shadow tree, selector queries, content
replacement, snapshots, Prometheus metrics and a websocket stream of
every live operation.

Examples:
  shadowdom serve page.html
  shadowdom serve --port=9000 --sanitize page.html
  shadowdom serve --config=ci/shadowdom.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if port > 0 {
				cfg.Inspect.Port = port
			}
			if host != "" {
				cfg.Inspect.Host = host
			}
			if sanitize {
				cfg.Inspect.Sanitize = true
			}

			ws := newWorkspace(cfg)
			if len(args) == 1 {
				src, err := readInput(cmd, args[0])
				if err != nil {
					return err
				}
				if err := ws.doc.Mount(cmd.Context(), src); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd, ws, cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from shadowdom.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from shadowdom.json)")
	cmd.Flags().BoolVar(&sanitize, "sanitize", false, "Sanitize submitted markup")

	return cmd
}

// serve runs the inspector for ws until ctx is done.
func serve(ctx context.Context, cmd *cobra.Command, ws *workspace, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	insp := inspect.New(ws.doc, inspect.Options{
		Logger:       ws.logger,
		Store:        store,
		Ops:          ws.host,
		Gatherer:     ws.gatherer(),
		Sanitize:     cfg.Inspect.Sanitize,
		AllowOrigins: cfg.Inspect.AllowOrigins,
	})
	defer insp.Close()

	ln, err := net.Listen("tcp", cfg.InspectAddress())
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           insp,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	success(cmd.OutOrStdout(), "Inspector listening on http://%s",
		net.JoinHostPort(cfg.Inspect.Host, strconv.Itoa(addr.Port)))
	info(cmd.OutOrStdout(), "%d nodes mounted", ws.doc.Len())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	info(cmd.OutOrStdout(), "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
