package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"whisper-load.klederson.com/internal/config"
	"whisper-load.klederson.com/internal/log"
)

var (
	flagConfig    string
	flagEnvFile   string
	flagLogLevel  string
	flagLogFormat string
)

// scenario is resolved by the root command before any subcommand runs.
var scenario config.Scenario

func main() {
	rootCmd := &cobra.Command{
		Use:   "whisper-load",
		Short: "WHISPER-LOAD - adaptive workload generator driven by a simulated room",
		Long: `whisper-load simulates microphones on the corners of a room listening to
sources that circle an optional obstacle. Each microphone/source pair turns its
distance and noise state into an operation count, and a periodic harness burns
that much work per job while a feedback controller picks the service level.

Scenarios are YAML files; WHISPER_* variables (and a .env file) override them,
and flags override both.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Scenario file (default "+config.DefaultScenarioFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", config.DefaultEnvFile, "Environment file loaded before WHISPER_* overrides")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(newRunCmd(), newTraceCmd(), newWatchCmd(), newValidateCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// setup loads the environment, installs the logger and resolves the scenario.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(flagEnvFile); err != nil {
		return err
	}

	level := firstSet(flagLogLevel, os.Getenv(config.EnvPrefix+"LOG_LEVEL"), "info")
	format := firstSet(flagLogFormat, os.Getenv(config.EnvPrefix+"LOG_FORMAT"), "text")
	if cmd.Name() != "watch" {
		log.Init(level, format)
	}

	s, err := config.LoadOrDefault(scenarioPath())
	if err != nil {
		return err
	}
	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	scenario = s
	log.Debug("scenario resolved",
		"path", scenarioPath(), "sources", s.Room.Sources, "tasks", s.HarnessConfig().Tasks,
		"period", s.Harness.Period, "iterations", s.Harness.Iterations)
	return nil
}

func scenarioPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	if _, err := os.Stat(config.DefaultScenarioFile); errors.Is(err, os.ErrNotExist) {
		return ""
	}
	return config.DefaultScenarioFile
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// harnessFlags are the run-shaping flags shared by run and watch.
type harnessFlags struct {
	tasks      int
	iterations int
	period     time.Duration
	occluding  bool
}

func (f *harnessFlags) register(cmd *cobra.Command, iterations int, period time.Duration) {
	cmd.Flags().IntVarP(&f.tasks, "tasks", "t", 0, "Number of pairs to drive, 0 for all (default: scenario)")
	cmd.Flags().IntVarP(&f.iterations, "iterations", "n", iterations, "Jobs per task, 0 runs until interrupted")
	cmd.Flags().DurationVarP(&f.period, "period", "p", period, "Job release period")
	cmd.Flags().BoolVar(&f.occluding, "occluding", false, "Place the obstacle in the room")
}

// apply copies flags into the scenario. Flags the user did not set keep the
// scenario's values unless always is set.
func (f *harnessFlags) apply(cmd *cobra.Command, s *config.Scenario, always bool) {
	changed := func(name string) bool { return always || cmd.Flags().Changed(name) }
	if cmd.Flags().Changed("tasks") {
		s.Harness.Tasks = f.tasks
	}
	if changed("iterations") {
		s.Harness.Iterations = f.iterations
	}
	if changed("period") {
		s.Harness.Period = f.period
	}
	if cmd.Flags().Changed("occluding") {
		s.Room.Occluding = f.occluding
	}
}
