package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/benz9527/xavl/lib/infra"
)

type MetricsExporter uint8

const (
	NoneExporter MetricsExporter = iota
	ConsoleExporter
	PrometheusExporter
)

func (e MetricsExporter) String() string {
	switch e {
	case ConsoleExporter:
		return "stdout"
	case PrometheusExporter:
		return "prometheus"
	default:
	}
	return "none"
}

func ParseMetricsExporter(name string) (MetricsExporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return NoneExporter, nil
	case "stdout", "console":
		return ConsoleExporter, nil
	case "prometheus":
		return PrometheusExporter, nil
	}
	return NoneExporter, infra.NewErrorStack("[observability] unknown metrics exporter " + name)
}

type exporterCfg struct {
	interval    time.Duration
	timeout     time.Duration
	consoleOpts []stdoutmetric.Option
	registerer  promclient.Registerer
}

type ExporterOption func(*exporterCfg)

func WithExporterInterval(interval, timeout time.Duration) ExporterOption {
	return func(cfg *exporterCfg) {
		cfg.interval, cfg.timeout = interval, timeout
	}
}

func WithConsoleExporterOptions(opts ...stdoutmetric.Option) ExporterOption {
	return func(cfg *exporterCfg) {
		cfg.consoleOpts = append(cfg.consoleOpts, opts...)
	}
}

func WithPrometheusRegisterer(registerer promclient.Registerer) ExporterOption {
	return func(cfg *exporterCfg) {
		cfg.registerer = registerer
	}
}

// InitMetricsExporter installs the global meter provider backed by the
// exporter and returns its shutdown callback. NoneExporter keeps the
// global noop provider.
func InitMetricsExporter(kind MetricsExporter, opts ...ExporterOption) (func(ctx context.Context) error, error) {
	cfg := &exporterCfg{
		interval: 10 * time.Second,
		timeout:  5 * time.Second,
	}
	for _, o := range opts {
		o(cfg)
	}
	switch kind {
	case ConsoleExporter:
		return newConsoleMetricsExporter(cfg.interval, cfg.timeout, cfg.consoleOpts...)
	case PrometheusExporter:
		return newPrometheusMetricsExporter(cfg.registerer)
	default:
	}
	return func(context.Context) error { return nil }, nil
}

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (func(ctx context.Context) error, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[observability] stdout exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
func newPrometheusMetricsExporter(registerer promclient.Registerer) (func(ctx context.Context) error, error) {
	var opts []prometheus.Option
	if registerer != nil {
		opts = append(opts, prometheus.WithRegisterer(registerer))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[observability] prometheus exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}
