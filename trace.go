package main

import (
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"whisper-load.klederson.com/internal/config"
	"whisper-load.klederson.com/internal/log"
	"whisper-load.klederson.com/internal/whisper"
)

func newTraceCmd() *cobra.Command {
	var (
		pairIdx int
		ticks   int
		table   bool
	)

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Step one pair tick by tick and print its operation counts",
		Long: `trace builds every pair of the scenario's room, then steps a single pair one
tick at a time and prints the operation count after each tick, one per line.
With --table each tick also shows the source position, distance, occlusion
and noise, and noisy ticks are highlighted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			room, _, err := scenario.Build(log.L())
			if err != nil {
				return err
			}

			pairs := make([]*whisper.Pair, room.Pairs())
			for i := range pairs {
				if pairs[i], err = room.Pair(i); err != nil {
					return err
				}
			}

			if pairIdx < 0 {
				pairIdx = len(pairs) - 1
			}
			if pairIdx >= len(pairs) {
				return fmt.Errorf("%w: %d of %d", whisper.ErrPairIndex, pairIdx, len(pairs))
			}

			log.Info("tracing pair", "pair", pairIdx, "ticks", ticks)
			if table {
				traceTable(cmd.OutOrStdout(), pairs[pairIdx], ticks)
				return nil
			}
			traceCounts(cmd.OutOrStdout(), pairs[pairIdx], ticks)
			return nil
		},
	}

	cmd.Flags().IntVar(&pairIdx, "pair", -1, "Pair index to trace (default: the last pair)")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTraceTicks, "Number of ticks to step")
	cmd.Flags().BoolVar(&table, "table", false, "Print a table instead of bare counts")
	return cmd
}

func traceCounts(w io.Writer, p *whisper.Pair, ticks int) {
	for i := 0; i < ticks; i++ {
		fmt.Fprintln(w, p.Step(1))
	}
}

func traceTable(w io.Writer, p *whisper.Pair, ticks int) {
	header := color.New(color.Bold)
	noisy := color.New(color.FgYellow, color.Bold)
	blocked := color.New(color.FgRed)

	header.Fprintf(w, "%6s  %8s  %16s  %9s  %-8s  %-6s  %10s\n",
		"tick", "angle", "source", "dist_m", "path", "noise", "ops")

	for i := 0; i < ticks; i++ {
		ops := p.Step(1)
		st := p.State()

		path := "clear"
		switch st.Occlusion.Points {
		case 1:
			path = "tangent"
		case 2:
			path = "blocked"
		}
		noise := "-"
		if st.Noisy {
			noise = fmt.Sprintf("x%g", st.Factor)
		}

		line := fmt.Sprintf("%6d  %8.4f  %16s  %9.3f  %-8s  %-6s  %10d",
			st.Tick, math.Mod(st.Angle, 2*math.Pi), st.SourcePos, st.Distance, path, noise, ops)
		switch {
		case st.Noisy:
			noisy.Fprintln(w, line)
		case st.Occlusion.Points == 2:
			blocked.Fprintln(w, line)
		default:
			fmt.Fprintln(w, line)
		}
	}
}
