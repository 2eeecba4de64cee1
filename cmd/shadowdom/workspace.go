package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vango-dev/shadowdom/internal/config"
	"github.com/vango-dev/shadowdom/pkg/live/memdom"
	"github.com/vango-dev/shadowdom/pkg/shadow"
	"github.com/vango-dev/shadowdom/pkg/snapshot"
	"github.com/vango-dev/shadowdom/pkg/telemetry"
)

type globalOptions struct {
	configPath string
	logLevel   string
}

// load reads the configuration and applies flag overrides.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// workspace is a live in-memory document with its shadow tree and the
// telemetry configured for it.
type workspace struct {
	cfg      *config.Config
	logger   *slog.Logger
	host     *memdom.Document
	doc      *shadow.Document
	registry *prometheus.Registry
}

func newWorkspace(cfg *config.Config) *workspace {
	ws := &workspace{
		cfg:    cfg,
		logger: cfg.NewLogger(os.Stderr),
		host:   memdom.New(),
	}

	opts := shadow.Options{
		Logger:         ws.logger,
		StrictRegistry: cfg.StrictRegistry,
	}
	if cfg.Metrics.Enabled {
		ws.registry = prometheus.NewRegistry()
		ws.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Metrics = telemetry.NewMetrics(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithRegistry(ws.registry),
		)
	}
	if cfg.Tracing.Enabled {
		opts.Tracer = telemetry.NewTracer(cfg.Tracing.TracerName)
	}
	ws.doc = shadow.New(ws.host, ws.host.Root(), opts)
	return ws
}

// gatherer returns the metrics registry, or nil when metrics are off.
func (ws *workspace) gatherer() prometheus.Gatherer {
	if ws.registry == nil {
		return nil
	}
	return ws.registry
}

// openStore opens the configured snapshot backend.
func openStore(ctx context.Context, cfg *config.Config) (snapshot.Store, error) {
	if cfg.Snapshot.Backend == config.BackendS3 {
		s, err := snapshot.OpenS3(ctx, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix, cfg.Snapshot.Region)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := snapshot.NewFileStore(cfg.SnapshotDir())
	if err != nil {
		return nil, err
	}
	return s, nil
}

// newQuietWorkspace builds a workspace from defaults that only logs
// warnings, for one-shot commands.
func newQuietWorkspace() *workspace {
	cfg := config.New()
	cfg.Log.Level = "warn"
	cfg.Metrics.Enabled = false
	return newWorkspace(cfg)
}
