package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"whisper-load.klederson.com/internal/config"
	"whisper-load.klederson.com/internal/log"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a scenario and print the room it resolves to",
		Long: `validate loads the scenario with all overrides applied, builds the room
and prints both. Room corrections, such as widening a room too small for its
orbit, are logged as warnings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validate(cmd.OutOrStdout(), scenario)
		},
	}
}

func validate(w io.Writer, s config.Scenario) error {
	room, levels, err := s.Build(log.L())
	if err != nil {
		return err
	}

	data, err := s.Marshal()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "# scenario")
	fmt.Fprint(w, string(data))

	c := room.Config()
	fmt.Fprintln(w, "# resolved room")
	fmt.Fprintf(w, "pairs:          %d (%d sensors x %d sources)\n", room.Pairs(), c.Sensors, c.Sources)
	fmt.Fprintf(w, "room side:      %d units\n", c.RoomSide)
	fmt.Fprintf(w, "orbit radius:   %d units\n", c.OrbitRadius)
	if c.Occluding {
		fmt.Fprintf(w, "obstacle:       %d units\n", c.ObstacleRadius)
	} else {
		fmt.Fprintln(w, "obstacle:       none")
	}
	fmt.Fprintf(w, "ticks/second:   %d\n", c.TicksPerSecond)
	fmt.Fprintf(w, "tasks:          %d\n", s.HarnessConfig().Tasks)
	for i, ev := range room.Noise() {
		fmt.Fprintf(w, "noise %d:        +%d ticks for %d ticks x%g\n", i, ev.Delay, ev.Duration, ev.Factor)
	}
	for i, lv := range levels {
		fmt.Fprintf(w, "level %d:        work x%g qos %g period %s\n", i, lv.RelativeWork, lv.QoS, lv.Period)
	}
	return nil
}
