package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xavl/bench"
	"github.com/benz9527/xavl/observability"
	"github.com/benz9527/xavl/report"
	"github.com/benz9527/xavl/xlog"
)

const appName = "xavl"

type xavlBanner struct{}

func (xavlBanner) JSON() string {
	return `{"app":"xavl","desc":"AVL tree finger insert experiments"}`
}

func (xavlBanner) PlainText() string {
	return `
 __  __    ___   __     __  _
 \ \/ /   / _ \  \ \   / / | |
  >  <   / /_\ \  \ \_/ /  | |___
 /_/\_\ /_/   \_\  \___/   |_____|
`
}

func newLogger(level string) xlog.XLogger {
	opts := []xlog.XLoggerOption{
		xlog.WithXLoggerContextFieldExtract(bench.RunIDContextKey),
	}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		opts = append(opts, xlog.WithXLoggerLevel(xlog.LogLevelDebug))
	case "info":
		opts = append(opts, xlog.WithXLoggerLevel(xlog.LogLevelInfo))
	case "warn":
		opts = append(opts, xlog.WithXLoggerLevel(xlog.LogLevelWarn))
	case "error":
		opts = append(opts, xlog.WithXLoggerLevel(xlog.LogLevelError))
	default:
		// XLOG_LVL decides.
	}
	return xlog.NewXLogger(opts...)
}

func loggerModule(level string) fx.Option {
	return fx.Options(
		fx.Provide(func(lc fx.Lifecycle) xlog.XLogger {
			logger := newLogger(level)
			lc.Append(fx.StopHook(func() {
				_ = logger.Sync()
			}))
			return logger
		}),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
	)
}

// newRecorder installs the global meter provider. The prometheus exporter
// is served on its own registry.
func newRecorder(lc fx.Lifecycle, cfg *bench.Config, flags *benchFlags, logger xlog.XLogger) (*observability.TreeRecorder, error) {
	kind, err := observability.ParseMetricsExporter(cfg.Exporter)
	if err != nil {
		return nil, err
	}
	if kind == observability.NoneExporter {
		return nil, nil
	}

	var (
		opts []observability.ExporterOption
		srv  *http.Server
	)
	if kind == observability.PrometheusExporter {
		registry := promclient.NewRegistry()
		opts = append(opts, observability.WithPrometheusRegisterer(registry))
		srv = &http.Server{
			Addr:              flags.metricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	shutdown, err := observability.InitMetricsExporter(kind, opts...)
	if err != nil {
		return nil, err
	}
	observability.InitAppStats(appName)
	recorder, err := observability.NewTreeRecorder(otel.Meter(observability.TreeMeterName))
	if err != nil {
		return nil, multierr.Append(err, shutdown(context.Background()))
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if srv == nil {
				return nil
			}
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("metrics served", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error(err, "metrics server exits")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			var err error
			if srv != nil {
				err = srv.Shutdown(ctx)
			}
			return multierr.Append(err, shutdown(ctx))
		},
	})
	return recorder, nil
}

// newStore returns nil when the database is disabled.
func newStore(lc fx.Lifecycle, cfg *bench.Config, logger xlog.XLogger) (*report.Store, error) {
	if len(cfg.Database) == 0 || cfg.Database == "-" {
		return nil, nil
	}
	store, err := report.OpenSQLiteStore(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(store.Close))
	return store, nil
}

func newSinks(cfg *bench.Config, store *report.Store) []bench.Sink {
	sinks := make([]bench.Sink, 0, 2)
	if store != nil {
		sinks = append(sinks, store)
	}
	if len(cfg.CSVDir) > 0 {
		sinks = append(sinks, report.NewCSVSink(cfg.CSVDir, cfg.CSVFile))
	}
	return sinks
}

func runBench(ctx context.Context, cfg *bench.Config, flags *benchFlags, out io.Writer) (err error) {
	var (
		runner *bench.Runner
		sinks  []bench.Sink
		logger xlog.XLogger
	)
	app := fx.New(
		loggerModule(flags.logLevel),
		fx.Supply(cfg, flags),
		fx.Provide(
			newRecorder,
			newStore,
			newSinks,
			bench.NewRunner,
		),
		fx.Populate(&runner, &sinks, &logger),
	)
	if err = app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = multierr.Append(err, app.Stop(stopCtx))
	}()

	logger.Banner(xavlBanner{})
	runID := report.NewRunID()
	ctx = bench.WithRunID(ctx, runID)
	logger.InfoContext(ctx, "bench started",
		zap.Ints("sizes", cfg.Sizes()),
		zap.Int("trials", cfg.Trials),
		zap.Int("workers", cfg.Workers),
		zap.Uint64("seed", cfg.Seed),
		zap.Bool("verify", cfg.Verify),
	)
	results, err := bench.RunAndSave(ctx, runner, sinks...)
	if err != nil {
		logger.ErrorStackContext(ctx, err, "bench failed")
		if results == nil {
			return err
		}
	}
	return multierr.Append(err, report.WriteCSV(out, results))
}
