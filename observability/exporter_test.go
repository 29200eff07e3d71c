package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
)

func TestParseMetricsExporter(t *testing.T) {
	testcases := []struct {
		name     string
		expected MetricsExporter
		wantErr  bool
	}{
		{"", NoneExporter, false},
		{"none", NoneExporter, false},
		{" STDOUT ", ConsoleExporter, false},
		{"console", ConsoleExporter, false},
		{"prometheus", PrometheusExporter, false},
		{"jaeger", NoneExporter, true},
	}
	for _, tc := range testcases {
		kind, err := ParseMetricsExporter(tc.name)
		if tc.wantErr {
			require.Error(t, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.expected, kind)
	}
	require.Equal(t, "stdout", ConsoleExporter.String())
	require.Equal(t, "prometheus", PrometheusExporter.String())
	require.Equal(t, "none", NoneExporter.String())
}

func TestConsoleMetricsExporter(t *testing.T) {
	buf := &bytes.Buffer{}
	shutdown, err := InitMetricsExporter(ConsoleExporter,
		WithExporterInterval(time.Hour, time.Second),
		WithConsoleExporterOptions(stdoutmetric.WithWriter(buf)),
	)
	require.NoError(t, err)

	counter, err := otel.Meter("xavl/test").Int64Counter("xavl.test.console")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	// Shutdown flushes the periodic reader.
	require.NoError(t, shutdown(context.Background()))
	require.Contains(t, buf.String(), "xavl.test.console")
}

func TestPrometheusMetricsExporter(t *testing.T) {
	registry := promclient.NewRegistry()
	shutdown, err := InitMetricsExporter(PrometheusExporter, WithPrometheusRegisterer(registry))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, shutdown(context.Background()))
	}()

	counter, err := otel.Meter("xavl/test").Int64Counter("xavl.test.prometheus")
	require.NoError(t, err)
	counter.Add(context.Background(), 5)

	families, err := registry.Gather()
	require.NoError(t, err)
	found := false
	for _, family := range families {
		if strings.HasPrefix(family.GetName(), "xavl_test_prometheus") {
			found = true
			require.Equal(t, float64(5), family.GetMetric()[0].GetCounter().GetValue())
		}
	}
	require.True(t, found)
}

func TestNoneMetricsExporter(t *testing.T) {
	shutdown, err := InitMetricsExporter(NoneExporter)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitAppStats(t *testing.T) {
	registry := promclient.NewRegistry()
	shutdown, err := InitMetricsExporter(PrometheusExporter, WithPrometheusRegisterer(registry))
	require.NoError(t, err)
	defer func() {
		_ = shutdown(context.Background())
	}()

	InitAppStats("test")
	InitAppStats("ignored")
	require.Equal(t, "xavl/app/default", AppMeterName("  "))
	require.Equal(t, "xavl/app/bench", AppMeterName("bench"))

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	require.Contains(t, strings.Join(names, ","), "app_core_goroutines")
}
