package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"labtrack/internal/config"
	"labtrack/internal/core"
	"labtrack/internal/logging"
	"labtrack/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the state shared by subcommands for one invocation.
type app struct {
	configPath  string
	logLevel    string
	dumpMetrics bool

	clock     domain.Clock
	openStore func(context.Context, config.Storage) (core.Backend, error)

	cfg      config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	backend  core.Backend
	svc      *core.Service
	report   core.LoadReport
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{clock: domain.SystemClock, openStore: core.OpenKeyValueStore}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if closeErr := a.close(stdout); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		var verr *domain.ValidationError
		if errors.As(err, &verr) || errors.Is(err, domain.ErrNotFound) {
			return 2
		}
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "labtrack",
		Short:         "Track lab test results over time",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if err := a.report.Err(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; continuing with defaults\n", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level (debug|info|warn|error)")
	root.PersistentFlags().BoolVar(&a.dumpMetrics, "metrics", false, "print Prometheus metrics after the command")

	root.AddCommand(
		a.paramsCmd(),
		a.recordCmd(),
		a.seriesCmd(),
		a.recentCmd(),
		a.chartCmd(),
		a.seedDemoCmd(),
	)
	return root
}

// open loads configuration, builds the logger and service and hydrates state.
func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.logger = logger

	a.registry = prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(a.registry)
	if err != nil {
		return err
	}
	backend, err := a.openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	a.backend = backend
	a.svc = core.NewService(backend,
		core.WithLogger(core.NewZapLogger(logger)),
		core.WithMetricsRecorder(metrics),
		core.WithClock(a.clock),
		core.WithLocale(cfg.LocaleTag()),
		core.WithKeys(core.Keys{Parameters: cfg.Storage.Keys.Parameters, Series: cfg.Storage.Keys.Series}),
	)
	report, err := a.svc.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	a.report = report
	return nil
}

func (a *app) close(stdout io.Writer) error {
	var errs []error
	if a.dumpMetrics && a.registry != nil {
		errs = append(errs, writeMetrics(stdout, a.registry))
	}
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}
