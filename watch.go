package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"whisper-load.klederson.com/internal/app"
	"whisper-load.klederson.com/internal/config"
	"whisper-load.klederson.com/internal/harness"
	"whisper-load.klederson.com/internal/log"
)

func newWatchCmd() *cobra.Command {
	var (
		hf      harnessFlags
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the harness behind a live room dashboard",
		Long: `watch runs the harness and shows the room as it goes: the corner
microphones, the sources on their orbit, the obstacle and the line of sight of
the selected pair, plus a pair list with per-pair detail.

Logs would corrupt the display, so they go to --log-file or are discarded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				w = f
			}
			log.InitWriter(w,
				firstSet(flagLogLevel, os.Getenv(config.EnvPrefix+"LOG_LEVEL"), "info"),
				firstSet(flagLogFormat, os.Getenv(config.EnvPrefix+"LOG_FORMAT"), "text"))

			hf.apply(cmd, &scenario, true)
			return watch(cmd)
		},
	}

	hf.register(cmd, 0, config.WatchPeriod)
	cmd.Flags().StringVar(&logFile, "log-file", "", "Append logs to this file")
	return cmd
}

func watch(cmd *cobra.Command) error {
	logger := log.L()

	room, levels, err := scenario.Build(logger)
	if err != nil {
		return err
	}

	sink := &app.ProgramSink{}
	runner, err := harness.NewRunner(room, levels, scenario.HarnessConfig(), sink, harness.WithLogger(logger))
	if err != nil {
		return err
	}

	model := app.New(room.Config(), room.Pairs(), runner.RunID())
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithFPS(config.TargetFPS),
	)
	sink.Attach(p)

	// The runner must be running before p.Run() so the model can wait on it.
	runner.Start(cmd.Context())
	model.WatchRunner(runner)

	_, err = p.Run()

	// Stopping after p.Run() returns: a runner blocked in Send is released
	// once the program has exited.
	if stopErr := runner.Stop(); stopErr != nil {
		log.Error("runner stopped with error", "err", stopErr)
		if err == nil {
			err = stopErr
		}
	}
	return err
}
