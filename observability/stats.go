package observability

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	once sync.Once
)

// AppMeterName is xavl/app/<name>, or xavl/app/default.
func AppMeterName(name string) string {
	if name = strings.TrimSpace(name); len(name) == 0 {
		name = "default"
	}
	return "xavl/app/" + name
}

// InitAppStats registers the goroutine and GOMAXPROCS gauges plus the
// otel runtime instrumentation on the global meter provider. Only the
// first call takes effect.
func InitAppStats(name string) {
	once.Do(func() {
		meter := otel.Meter(
			AppMeterName(name),
			metric.WithInstrumentationVersion(otelruntime.Version()),
		)
		lo.Must(meter.Int64ObservableUpDownCounter(
			"app.core.goroutines",
			metric.WithDescription(`The application goroutines' info.`),
			metric.WithInt64Callback(func(_ context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.NumGoroutine()))
				return nil
			}),
		))
		lo.Must(meter.Int64ObservableUpDownCounter(
			"app.core.processes",
			metric.WithDescription(`The application processes' info.`),
			metric.WithInt64Callback(func(_ context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.GOMAXPROCS(0)))
				return nil
			}),
		))
		lo.Must0(otelruntime.Start())
	})
}
