package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"

	"github.com/benz9527/xavl/lib/infra"
)

const TreeMeterName = "xavl/tree"

// TreeTrial is the outcome of building one tree from one input array.
type TreeTrial struct {
	Kind       string
	Size       int
	PathCost   int64
	Promotions int64
	Inversions int64
}

func (trial TreeTrial) attributes() metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("input.kind", trial.Kind),
		attribute.Int("input.size", trial.Size),
	)
}

// TreeRecorder exports the finger insert experiment as otel instruments.
type TreeRecorder struct {
	trials     metric.Int64Counter
	pathCost   metric.Int64Histogram
	promotions metric.Int64Histogram
	inversions metric.Int64Histogram
}

func NewTreeRecorder(meter metric.Meter) (*TreeRecorder, error) {
	rec := &TreeRecorder{}
	var err, err2 error
	rec.trials, err2 = meter.Int64Counter(
		"avl.trials",
		metric.WithDescription("The number of trees built."),
	)
	err = multierr.Append(err, err2)
	rec.pathCost, err2 = meter.Int64Histogram(
		"avl.finger_insert.path_cost",
		metric.WithDescription("The real nodes visited by all finger inserts of one trial."),
	)
	err = multierr.Append(err, err2)
	rec.promotions, err2 = meter.Int64Histogram(
		"avl.finger_insert.promotions",
		metric.WithDescription("The height changes made by all rebalancing walks of one trial."),
	)
	err = multierr.Append(err, err2)
	rec.inversions, err2 = meter.Int64Histogram(
		"avl.input.inversions",
		metric.WithDescription("The inversions of the input array of one trial."),
	)
	err = multierr.Append(err, err2)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[observability] tree recorder")
	}
	return rec, nil
}

func (rec *TreeRecorder) RecordTrial(ctx context.Context, trial TreeTrial) {
	if rec == nil {
		return
	}
	attrs := trial.attributes()
	rec.trials.Add(ctx, 1, attrs)
	rec.pathCost.Record(ctx, trial.PathCost, attrs)
	rec.promotions.Record(ctx, trial.Promotions, attrs)
	rec.inversions.Record(ctx, trial.Inversions, attrs)
}
