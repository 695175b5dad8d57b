package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reconcile/internal/config"
	"github.com/vango-dev/reconcile/pkg/archive"
	"github.com/vango-dev/reconcile/pkg/middleware"
	"github.com/vango-dev/reconcile/pkg/server"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live demo server",
		Long: `Serve the counter demo over HTTP and a websocket.

Configuration comes from --config, else reconcile.json or reconcile.yaml in
the working directory, else defaults. RECONCILE_* environment variables and
a .env file override the file.

Examples:
  reconcile serve
  reconcile serve --addr :3000
  reconcile serve --config deploy/reconcile.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := newServer(ctx, cfg, newDemo)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "serving on %s", cfg.Server.Addr)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default reconcile.json or reconcile.yaml)")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides config)")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadOrDefault(".")
}

// newServer builds a server for factory from cfg.
func newServer(ctx context.Context, cfg *config.Config, factory server.ComponentFactory) (*server.Server, error) {
	logger := cfg.Logger(os.Stderr)

	opts := []server.Option{server.WithLogger(logger)}
	if cfg.Tracing.Enabled {
		var otelOpts []middleware.OTelOption
		if cfg.Tracing.TracerName != "" {
			otelOpts = append(otelOpts, middleware.WithTracerName(cfg.Tracing.TracerName))
		}
		opts = append(opts, server.WithDispatchMiddleware(middleware.OpenTelemetry(otelOpts...)))
	}
	if cfg.Metrics.Enabled {
		var metricsOpts []middleware.MetricsOption
		if cfg.Metrics.Namespace != "" {
			metricsOpts = append(metricsOpts, middleware.WithNamespace(cfg.Metrics.Namespace))
		}
		opts = append(opts, server.WithDispatchMiddleware(middleware.Prometheus(metricsOpts...)))
	}
	opts = append(opts, server.WithDispatchMiddleware(middleware.Logging(logger)))

	if len(cfg.Session.EventKinds) > 0 {
		kinds := make([]vdom.EventKind, len(cfg.Session.EventKinds))
		for i, k := range cfg.Session.EventKinds {
			kinds[i] = vdom.EventKind(k)
		}
		opts = append(opts, server.WithEventKinds(kinds...))
	}

	store, err := openArchive(ctx, cfg.Archive)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, server.WithArchive(store))
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Address = cfg.Server.Addr
	srvCfg.Title = cfg.Server.Title
	srvCfg.MaxSessions = cfg.Server.MaxSessions
	srvCfg.ReadTimeout = cfg.ReadTimeout()
	srvCfg.WriteTimeout = cfg.WriteTimeout()
	if cfg.Metrics.Enabled {
		srvCfg.MetricsPath = cfg.Metrics.Path
	}

	return server.New(srvCfg, factory, opts...), nil
}

// openArchive returns the configured store, or nil when archiving is off.
func openArchive(ctx context.Context, cfg config.ArchiveConfig) (archive.Store, error) {
	switch cfg.Backend {
	case "memory":
		return archive.NewMemoryStore(), nil
	case "s3":
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, err
		}
		return archive.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
	default:
		return nil, nil
	}
}
