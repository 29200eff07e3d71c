package bench

import (
	"context"
	"errors"
	"fmt"
	randv2 "math/rand/v2"
	"sync"

	antsv2 "github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xavl/lib/infra"
	"github.com/benz9527/xavl/lib/tree"
	"github.com/benz9527/xavl/observability"
	"github.com/benz9527/xavl/xlog"
)

// RunIDContextKey carries the run id for the xlog context field extraction.
const RunIDContextKey = "runId"

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDContextKey, runID)
}

func RunIDFrom(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDContextKey).(string); ok {
		return runID
	}
	return ""
}

// TrialResult is one tree built by finger inserting one input array.
type TrialResult struct {
	Kind       InputKind
	Size       int
	Index      int
	PathCost   int64
	Promotions int64
	Inversions int64
}

// Result aggregates the trials of one (kind, size) cell.
type Result struct {
	RunID         string
	Kind          InputKind
	Size          int
	Trials        int
	AvgPathCost   float64
	AvgPromotions float64
	AvgInversions float64
	MaxPathCost   int64
}

// Sink persists the aggregated results of a run.
type Sink interface {
	Save(ctx context.Context, results []Result) error
}

// RunTrial finger inserts a generated array into an empty tree. The trial
// randomness is derived from seed and the trial coordinates only, so the
// outcome does not depend on the worker scheduling.
func RunTrial(kind InputKind, size int, seed uint64, idx int, verify bool) (TrialResult, error) {
	rng := randv2.New(randv2.NewPCG(seed^uint64(size), uint64(idx)))
	arr := GenerateInput(kind, size, rng)
	res := TrialResult{
		Kind:       kind,
		Size:       size,
		Index:      idx,
		Inversions: CountInversions(arr),
	}

	t := tree.NewAVLTree[int, int]()
	defer t.Release()
	for _, key := range arr {
		_, visits, promotions := t.FingerInsert(key, key)
		res.PathCost += int64(visits)
		res.Promotions += int64(promotions)
	}
	if !verify {
		return res, nil
	}
	if err := verifyTree(t, size); err != nil {
		return res, infra.WrapErrorStackWithMessage(err, fmt.Sprintf("[bench] %s/%d trial %d", kind, size, idx))
	}
	return res, nil
}

func verifyTree(t tree.AVLTree[int, int], size int) error {
	err := multierr.Combine(
		tree.BalanceViolationValidate(t),
		tree.HeightViolationValidate(t),
		tree.OrderViolationValidate(t),
		tree.LinkViolationValidate(t),
	)
	if err != nil {
		return err
	}
	if t.Size() != int64(size) {
		return fmt.Errorf("tree size %d, expected %d", t.Size(), size)
	}
	if size == 0 {
		return nil
	}

	// Split around the middle key and join the halves back.
	mid := size/2 + 1
	node, _ := t.Search(mid)
	if node == nil {
		return fmt.Errorf("key %d not found", mid)
	}
	lower, upper, err := t.Split(node)
	if err != nil {
		return err
	}
	if lower.Size()+upper.Size() != int64(size-1) {
		return fmt.Errorf("split sizes %d+%d, expected %d", lower.Size(), upper.Size(), size-1)
	}
	joined, err := upper.Join(lower, mid, mid)
	if err != nil {
		return err
	}
	defer joined.Release()
	if joined.Size() != int64(size) {
		return fmt.Errorf("joined size %d, expected %d", joined.Size(), size)
	}
	return multierr.Combine(
		tree.BalanceViolationValidate(joined),
		tree.OrderViolationValidate(joined),
		tree.LinkViolationValidate(joined),
	)
}

type Runner struct {
	cfg      *Config
	logger   xlog.XLogger
	recorder *observability.TreeRecorder
}

// NewRunner accepts a nil recorder, the trials are not exported then.
func NewRunner(cfg *Config, logger xlog.XLogger, recorder *observability.TreeRecorder) (*Runner, error) {
	if cfg == nil || logger == nil {
		return nil, infra.NewErrorStack("[bench] nil config or logger")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
	}, nil
}

type cell struct {
	kind InputKind
	size int
}

// Run executes every trial of the configured grid on an ants pool and
// returns one Result per (kind, size) in configuration order.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	pool, err := antsv2.NewPool(
		r.cfg.Workers,
		antsv2.WithPreAlloc(true),
		antsv2.WithLogger(xlog.NewAntsXLogger(r.logger)),
	)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[bench] worker pool")
	}
	defer pool.Release()

	cells := make([]cell, 0, len(r.cfg.Kinds)*len(r.cfg.Exponents))
	for _, kind := range r.cfg.Kinds {
		for _, size := range r.cfg.Sizes() {
			cells = append(cells, cell{kind: kind, size: size})
		}
	}

	var (
		wg      sync.WaitGroup
		lock    sync.Mutex
		errs    error
		trials  = make([]*TrialResult, len(cells)*r.cfg.Trials)
		appendE = func(err error) {
			lock.Lock()
			errs = multierr.Append(errs, err)
			lock.Unlock()
		}
	)

submit:
	for c, cl := range cells {
		for i := 0; i < r.cfg.Trials; i++ {
			if ctx.Err() != nil {
				break submit
			}
			slot, cl, idx := c*r.cfg.Trials+i, cl, i
			wg.Add(1)
			err = pool.Submit(func() {
				defer wg.Done()
				if ctx.Err() != nil {
					return
				}
				res, err := RunTrial(cl.kind, cl.size, r.cfg.Seed, idx, r.cfg.Verify)
				if err != nil {
					appendE(err)
					return
				}
				r.recorder.RecordTrial(ctx, observability.TreeTrial{
					Kind:       string(res.Kind),
					Size:       res.Size,
					PathCost:   res.PathCost,
					Promotions: res.Promotions,
					Inversions: res.Inversions,
				})
				trials[slot] = &res
			})
			if err != nil {
				wg.Done()
				appendE(infra.WrapErrorStackWithMessage(err, "[bench] submit trial"))
				break submit
			}
		}
	}
	wg.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, infra.WrapErrorStackWithMessage(multierr.Append(ctxErr, errs), "[bench] run canceled")
	}
	if errs != nil {
		return nil, errs
	}

	runID := RunIDFrom(ctx)
	results := make([]Result, 0, len(cells))
	for c, cl := range cells {
		res, err := aggregate(runID, cl, trials[c*r.cfg.Trials:(c+1)*r.cfg.Trials])
		if err != nil {
			return nil, err
		}
		r.logger.InfoContext(ctx, "trials finished",
			zap.String("kind", string(res.Kind)),
			zap.Int("size", res.Size),
			zap.Float64("avgPathCost", res.AvgPathCost),
			zap.Float64("avgPromotions", res.AvgPromotions),
			zap.Float64("avgInversions", res.AvgInversions),
		)
		results = append(results, res)
	}
	return results, nil
}

var errTrialLost = errors.New("trial did not finish")

// aggregate fails on a missing trial, the one whose worker panicked.
func aggregate(runID string, cl cell, trials []*TrialResult) (Result, error) {
	res := Result{
		RunID:  runID,
		Kind:   cl.kind,
		Size:   cl.size,
		Trials: len(trials),
	}
	var pathCost, promotions, inversions int64
	for i, trial := range trials {
		if trial == nil {
			return Result{}, infra.WrapErrorStackWithMessage(errTrialLost, fmt.Sprintf("[bench] %s/%d trial %d", cl.kind, cl.size, i))
		}
		pathCost += trial.PathCost
		promotions += trial.Promotions
		inversions += trial.Inversions
		res.MaxPathCost = max(res.MaxPathCost, trial.PathCost)
	}
	if n := float64(len(trials)); n > 0 {
		res.AvgPathCost = float64(pathCost) / n
		res.AvgPromotions = float64(promotions) / n
		res.AvgInversions = float64(inversions) / n
	}
	return res, nil
}

// RunAndSave hands the results to every sink and collects the sink errors.
func RunAndSave(ctx context.Context, runner *Runner, sinks ...Sink) ([]Result, error) {
	results, err := runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	var errs error
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		errs = multierr.Append(errs, sink.Save(ctx, results))
	}
	return results, errs
}
