package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jwebframework/jweb/config"
	"github.com/jwebframework/jweb/health"
	"github.com/jwebframework/jweb/internal/server"
	"github.com/jwebframework/jweb/observe"
)

// errUnhealthy is returned by the check command when the report is DOWN.
var errUnhealthy = errors.New("service is unhealthy")

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jweb-health",
		Short: "Serve health, liveness and readiness endpoints",
		Long: "Runs memory and goroutine liveness checks plus database and HTTP dependency readiness checks,\n" +
			"serving the aggregated reports over HTTP.\n\n" +
			"Every flag can also be set through a JWEB_ prefixed environment variable, e.g. JWEB_LOG_LEVEL.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	config.BindFlags(cmd.PersistentFlags())
	cmd.AddCommand(newCheckCommand(), newVersionCommand())

	return cmd
}

func newCheckCommand() *cobra.Command {
	var set string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the checks once and print the report",
		Long: "Evaluates a check set once, prints the JSON report to stdout and exits non-zero when the\n" +
			"report is DOWN. Suitable as a container HEALTHCHECK.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}

			logger, err := observe.NewLogger(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			reg := health.NewRegistry(health.WithLogger(logger))
			closeChecks, err := registerChecks(reg, cfg, logger)
			if err != nil {
				return err
			}
			defer closeChecks()

			var report health.Report
			switch set {
			case "health":
				report = reg.Check(cmd.Context())
			case "live", "liveness":
				report = reg.CheckLiveness(cmd.Context())
			case "ready", "readiness":
				report = reg.CheckReadiness(cmd.Context())
			default:
				return fmt.Errorf("unknown check set %q", set)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}

			if report.State == health.StateDown {
				return errUnhealthy
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&set, "set", "health", "Check set to evaluate (health, live, ready)")

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	cfg.Version = version
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	obsConfig := cfg.Observe()
	obsConfig.Metrics.Registerer = promRegistry

	obs, err := observe.NewObserver(ctx, obsConfig)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(ctx)
	}()

	logger := obs.Logger()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return err
	}

	reg := health.NewRegistry(
		health.WithLogger(logger),
		health.WithInterceptor(mw.Intercept),
	)
	closeChecks, err := registerChecks(reg, cfg, logger)
	if err != nil {
		return err
	}
	defer closeChecks()

	mux := http.NewServeMux()
	health.Mount(mux, cfg.Prefix, reg)
	if cfg.MetricsExporter == "prometheus" {
		mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	paths := health.Paths(cfg.Prefix)
	logger.Info("serving health endpoints",
		zap.String("health", paths.Health),
		zap.String("liveness", paths.Liveness),
		zap.String("readiness", paths.Readiness),
		zap.Strings("general", reg.Names(health.SetGeneral)),
		zap.Strings("liveness_checks", reg.Names(health.SetLiveness)),
	)

	return server.Run(ctx, server.Config{
		Addr:    cfg.Addr,
		Handler: mux,
		Logger:  logger,
	})
}
