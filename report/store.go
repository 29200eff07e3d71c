package report

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/benz9527/xavl/bench"
	"github.com/benz9527/xavl/lib/infra"
	"github.com/benz9527/xavl/xlog"
)

var _ bench.Sink = (*Store)(nil)

// ExperimentResult is the table row of one aggregated (kind, size) cell.
type ExperimentResult struct {
	ID            uint   `gorm:"primaryKey"`
	RunID         string `gorm:"size:32;index;not null"`
	Kind          string `gorm:"size:16;not null"`
	Size          int    `gorm:"not null"`
	Trials        int
	AvgPathCost   float64
	AvgPromotions float64
	AvgInversions float64
	MaxPathCost   int64
	CreatedAt     time.Time
}

func fromBenchResult(res bench.Result) ExperimentResult {
	return ExperimentResult{
		RunID:         res.RunID,
		Kind:          string(res.Kind),
		Size:          res.Size,
		Trials:        res.Trials,
		AvgPathCost:   res.AvgPathCost,
		AvgPromotions: res.AvgPromotions,
		AvgInversions: res.AvgInversions,
		MaxPathCost:   res.MaxPathCost,
	}
}

func (row ExperimentResult) toBenchResult() bench.Result {
	return bench.Result{
		RunID:         row.RunID,
		Kind:          bench.InputKind(row.Kind),
		Size:          row.Size,
		Trials:        row.Trials,
		AvgPathCost:   row.AvgPathCost,
		AvgPromotions: row.AvgPromotions,
		AvgInversions: row.AvgInversions,
		MaxPathCost:   row.MaxPathCost,
	}
}

// NewRunID returns a random 16 characters alphanumeric id.
func NewRunID() string {
	return lo.RandomString(16, lo.AlphanumericCharset)
}

type Store struct {
	db *gorm.DB
}

// OpenSQLiteStore opens the pure go sqlite database at dsn. The pool keeps
// a single connection, so ":memory:" works as well.
func OpenSQLiteStore(dsn string, logger xlog.XLogger) (*Store, error) {
	return newStore(sqlite.Open(dsn), logger, 1)
}

func NewStore(dialector gorm.Dialector, logger xlog.XLogger) (*Store, error) {
	return newStore(dialector, logger, 0)
}

func newStore(dialector gorm.Dialector, logger xlog.XLogger, maxOpenConns int) (*Store, error) {
	cfg := &gorm.Config{}
	if logger != nil {
		cfg.Logger = xlog.NewGormXLogger(logger, xlog.WithGormXLoggerIgnoreRecord404Err())
	}
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[report] open database")
	}
	if maxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, infra.WrapErrorStackWithMessage(err, "[report] database pool")
		}
		sqlDB.SetMaxOpenConns(maxOpenConns)
	}
	if err = db.AutoMigrate(&ExperimentResult{}); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[report] migrate")
	}
	return &Store{db: db}, nil
}

// Save writes the results in a single transaction. Every result needs a
// run id.
func (s *Store) Save(ctx context.Context, results []bench.Result) error {
	if len(results) == 0 {
		return nil
	}
	rows := make([]ExperimentResult, 0, len(results))
	for _, res := range results {
		if len(res.RunID) == 0 {
			return infra.NewErrorStack("[report] result without run id")
		}
		rows = append(rows, fromBenchResult(res))
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, 64).Error
	})
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "[report] save results")
	}
	return nil
}

// ListRun returns the results of runID in insertion order.
func (s *Store) ListRun(ctx context.Context, runID string) ([]bench.Result, error) {
	var rows []ExperimentResult
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[report] list run")
	}
	return lo.Map(rows, func(row ExperimentResult, _ int) bench.Result {
		return row.toBenchResult()
	}), nil
}

// Runs lists the distinct run ids, the oldest first.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	var runs []string
	err := s.db.WithContext(ctx).
		Model(&ExperimentResult{}).
		Group("run_id").
		Order("MIN(id)").
		Pluck("run_id", &runs).Error
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[report] list runs")
	}
	return runs, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
