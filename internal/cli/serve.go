package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/matzehuels/layoutgen/pkg/buildinfo"
	"github.com/matzehuels/layoutgen/pkg/config"
	"github.com/matzehuels/layoutgen/pkg/observability"
	"github.com/matzehuels/layoutgen/pkg/server"
	"github.com/matzehuels/layoutgen/pkg/status"
)

const metricsFlushTimeout = 5 * time.Second

// serveCommand creates the serve command for the HTTP and WebSocket server.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layout design over HTTP and WebSocket",
		Long: `Serve starts the layout designer server:

  POST /generate   {"content": {"prompt": "...", "images": ["..."]}}
  GET  /ws         streaming generation with live status events
  GET  /schema     the layout_designer tool schema
  GET  /healthz    liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", fmt.Sprintf("listen address (default from config, else %s)", config.DefaultAddr))

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	stopMetrics, err := installMetrics(ctx, cfg.Metrics, logger)
	if err != nil {
		return err
	}
	defer stopMetrics()

	sess, err := c.newSession(cfg)
	if err != nil {
		return err
	}

	opts := server.Options{
		Addr:           cfg.Server.Addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ChannelPrefix:  cfg.Redis.ChannelPrefix,
	}
	if cfg.Redis.Enabled() {
		client := status.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, status fan-out may drop events", "addr", cfg.Redis.Addr, "error", err)
		}
		opts.Redis = client
	}

	printKeyValue("Listening", cfg.Server.Addr)
	printKeyValue("Model", cfg.Model.Name)
	if opts.Redis != nil {
		printKeyValue("Redis", cfg.Redis.Addr+" ("+cfg.Redis.ChannelPrefix+":<request>)")
	}
	if cfg.Metrics.Enabled() {
		printKeyValue("Metrics", cfg.Metrics.OTLPEndpoint)
	}
	printNewline()

	return server.New(sess, logger, opts).ListenAndServe(ctx)
}

// installMetrics registers metric hooks backed by an SDK meter provider that
// exports to the configured OTLP endpoint (and to any extra readers). It
// returns a function that removes the hooks and flushes the provider.
func installMetrics(ctx context.Context, cfg config.Metrics, logger *log.Logger, readers ...sdkmetric.Reader) (func(), error) {
	if !cfg.Enabled() && len(readers) == 0 {
		logger.Debug("metrics export disabled")
		return func() {}, nil
	}

	mp, err := observability.NewMeterProvider(ctx, observability.ProviderOptions{
		ServiceName:    appName,
		ServiceVersion: buildinfo.Version,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.Insecure,
		Interval:       cfg.Interval,
	}, readers...)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	hooks, err := observability.NewMetricHooks(mp.Meter(appName))
	if err != nil {
		mp.Shutdown(ctx)
		return nil, fmt.Errorf("metrics: %w", err)
	}
	otel.SetMeterProvider(mp)
	observability.SetGenerationHooks(hooks)
	observability.SetModelHooks(hooks)
	observability.SetHTTPHooks(hooks)
	logger.Debug("metrics export enabled", "endpoint", cfg.OTLPEndpoint, "interval", cfg.Interval)

	return func() {
		observability.Reset()
		flushCtx, cancel := context.WithTimeout(context.Background(), metricsFlushTimeout)
		defer cancel()
		if err := mp.Shutdown(flushCtx); err != nil {
			logger.Warn("flush metrics", "error", err)
		}
	}, nil
}
