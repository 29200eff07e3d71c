package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/benz9527/xavl/bench"
	"github.com/benz9527/xavl/report"
)

type benchFlags struct {
	config      string
	verify      bool
	exporter    string
	database    string
	csvDir      string
	csvFile     string
	workers     int
	trials      int
	seed        uint64
	logLevel    string
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "xavl",
		Short:         "AVL tree finger insert experiments",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newBenchCmd(), newReportCmd())
	return rootCmd
}

func newBenchCmd() *cobra.Command {
	flags := &benchFlags{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Finger insert generated arrays and record the costs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bench.LoadConfig(flags.config)
			if err != nil {
				return err
			}
			applyBenchFlags(cmd, flags, cfg)
			if err = cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBench(ctx, cfg, flags, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&flags.config, "config", "c", "", "YAML experiment config")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "validate every tree and split/rejoin it")
	cmd.Flags().StringVar(&flags.exporter, "exporter", "", "metrics exporter: none, stdout or prometheus")
	cmd.Flags().StringVar(&flags.database, "db", "", "sqlite dsn of the result store, \"-\" disables it")
	cmd.Flags().StringVar(&flags.csvDir, "csv-dir", "", "directory of the csv results, empty disables it")
	cmd.Flags().StringVar(&flags.csvFile, "csv-file", "", "csv file name beneath csv-dir")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "trial workers")
	cmd.Flags().IntVarP(&flags.trials, "trials", "t", 0, "trials per kind and size")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", ":9464", "listen address of the prometheus exporter")
	return cmd
}

// applyBenchFlags overrides the config with the flags set explicitly.
func applyBenchFlags(cmd *cobra.Command, flags *benchFlags, cfg *bench.Config) {
	changed := cmd.Flags().Changed
	if changed("verify") {
		cfg.Verify = flags.verify
	}
	if changed("exporter") {
		cfg.Exporter = flags.exporter
	}
	if changed("db") {
		cfg.Database = flags.database
	}
	if changed("csv-dir") {
		cfg.CSVDir = flags.csvDir
	}
	if changed("csv-file") {
		cfg.CSVFile = flags.csvFile
	}
	if changed("workers") {
		cfg.Workers = flags.workers
	}
	if changed("trials") {
		cfg.Trials = flags.trials
	}
	if changed("seed") {
		cfg.Seed = flags.seed
	}
}

func newReportCmd() *cobra.Command {
	var (
		database string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "report [run id]",
		Short: "Print a stored run as csv, the runs without an id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var store *report.Store
			app := fx.New(
				loggerModule(logLevel),
				fx.Supply(&bench.Config{Database: database}),
				fx.Provide(newStore),
				fx.Populate(&store),
			)
			if err := app.Err(); err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("result store is disabled")
			}
			ctx := cmd.Context()
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer func() {
				_ = app.Stop(context.Background())
			}()

			if len(args) == 0 {
				runs, err := store.Runs(ctx)
				if err != nil {
					return err
				}
				for _, runID := range runs {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), runID)
				}
				return nil
			}
			results, err := store.ListRun(ctx, args[0])
			if err != nil {
				return err
			}
			return report.WriteCSV(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVar(&database, "db", bench.DefaultConfig().Database, "sqlite dsn of the result store")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	return cmd
}
