package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"whisper-load.klederson.com/internal/config"
	"whisper-load.klederson.com/internal/feedback"
	"whisper-load.klederson.com/internal/harness"
	"whisper-load.klederson.com/internal/log"
	"whisper-load.klederson.com/internal/metrics"
)

func newRunCmd() *cobra.Command {
	var (
		hf          harnessFlags
		csvPath     string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the periodic harness and print a summary",
		Long: `run drives one task per pair for the configured number of jobs. Every job
advances its pair, picks a service level from the controller's forecast and
burns the resulting amount of work. Records can be written to CSV and exposed
as Prometheus metrics while the run lasts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			hf.apply(cmd, &scenario, false)
			return runHarness(cmd.Context(), cmd.OutOrStdout(), csvPath, metricsAddr)
		},
	}

	hf.register(cmd, harness.DefaultConfig().Iterations, harness.DefaultConfig().Period)
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write one CSV row per job to this file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. "+config.DefaultMetricsAddr+")")
	return cmd
}

func runHarness(ctx context.Context, out io.Writer, csvPath, metricsAddr string) error {
	logger := log.L()

	room, levels, err := scenario.Build(logger)
	if err != nil {
		return err
	}

	store := harness.NewRecordStore()
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}
	sinks := harness.MultiSink{store, collector}

	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer f.Close()
		sinks = append(sinks, harness.NewCSVSink(f))
	}

	runner, err := harness.NewRunner(room, levels, scenario.HarnessConfig(), sinks, harness.WithLogger(logger))
	if err != nil {
		return err
	}
	logger = log.With("run_id", runner.RunID())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if metricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, metricsAddr, reg, logger)
		})
	}

	start := time.Now()
	g.Go(func() error {
		defer cancel()
		return runner.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("run failed", "err", err)
		return err
	}

	printSummary(out, runner.RunID(), store, levels, time.Since(start))
	return nil
}

func printSummary(w io.Writer, runID string, store *harness.RecordStore, levels feedback.Levels, elapsed time.Duration) {
	t := store.Totals()
	fmt.Fprintf(w, "run %s: %d jobs over %d pairs in %s\n", runID, t.Jobs, store.Count(), elapsed.Round(time.Millisecond))

	missPct := 0.0
	if t.Jobs > 0 {
		missPct = 100 * float64(t.Misses) / float64(t.Jobs)
	}
	fmt.Fprintf(w, "  deadline misses  %d (%.1f%%)\n", t.Misses, missPct)
	fmt.Fprintf(w, "  noisy jobs       %d\n", t.Noisy)
	for i, lv := range levels {
		fmt.Fprintf(w, "  level %d  x%-4g  qos %-4g  %d jobs\n", i, lv.RelativeWork, lv.QoS, t.Levels[i])
	}
}
