// Package config holds the program's constants and loads scenario files.
//
// A scenario describes one experiment: the room, its noise schedule, the
// service level table and the periodic harness. Values come from, in order
// of precedence, command line flags, WHISPER_* environment variables (a .env
// file is read first when present), the scenario file, and Default.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"whisper-load.klederson.com/internal/feedback"
	"whisper-load.klederson.com/internal/harness"
	"whisper-load.klederson.com/internal/whisper"
)

var ErrScenario = errors.New("config: invalid scenario")

// Noise is a burst expressed in wall-clock time. StartAfter counts from the
// end of the previous burst.
type Noise struct {
	StartAfter time.Duration `yaml:"start_after"`
	Duration   time.Duration `yaml:"duration"`
	Factor     float64       `yaml:"factor"`
}

// Scenario is everything needed to build and run an experiment.
type Scenario struct {
	Room    whisper.Config          `yaml:"room"`
	Noise   []Noise                 `yaml:"noise"`
	Levels  []feedback.ServiceLevel `yaml:"levels,omitempty"`
	Harness harness.Config          `yaml:"harness"`
}

// Default returns the reference experiment: eight sources circling an open
// room at 0.1 m/s, with a 10 s burst at x3 after one second and a 30 s
// burst at x5 twenty seconds later.
func Default() Scenario {
	return Scenario{
		Room: whisper.Config{
			Alpha:                3,
			Beta:                 2,
			Sources:              8,
			Sensors:              whisper.SensorCount,
			Occluding:            false,
			ObstacleRadius:       250,
			RoomSide:             2000,
			OrbitRadius:          500,
			SpeedMetersPerSecond: 0.1,
			UnitsPerMeter:        100,
			TicksPerSecond:       10,
		},
		Noise: []Noise{
			{StartAfter: time.Second, Duration: 10 * time.Second, Factor: 3},
			{StartAfter: 20 * time.Second, Duration: 30 * time.Second, Factor: 5},
		},
		Harness: harness.DefaultConfig(),
	}
}

// Load reads a YAML scenario. Fields the file leaves out keep their Default
// values; a noise or levels list in the file replaces the default list.
func Load(path string) (Scenario, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read scenario: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %s: %v", ErrScenario, path, err)
	}
	return s, nil
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) (Scenario, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Marshal renders the scenario back to YAML.
func (s Scenario) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// LoadEnvFile reads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides scenario fields from WHISPER_* variables found by
// lookup, normally os.LookupEnv.
func (s *Scenario) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return v, ok && v != ""
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"ALPHA", &s.Room.Alpha},
		{"BETA", &s.Room.Beta},
	}
	for _, f := range floats {
		if v, ok := get(f.name); ok {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q: %v", ErrScenario, EnvPrefix, f.name, v, err)
			}
			*f.dst = n
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"SOURCES", &s.Room.Sources},
		{"TASKS", &s.Harness.Tasks},
		{"ITERATIONS", &s.Harness.Iterations},
	}
	for _, f := range ints {
		if v, ok := get(f.name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q: %v", ErrScenario, EnvPrefix, f.name, v, err)
			}
			*f.dst = n
		}
	}

	if v, ok := get("OCCLUDING"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sOCCLUDING=%q: %v", ErrScenario, EnvPrefix, v, err)
		}
		s.Room.Occluding = b
	}
	if v, ok := get("PERIOD"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sPERIOD=%q: %v", ErrScenario, EnvPrefix, v, err)
		}
		s.Harness.Period = d
	}
	return nil
}

// ServiceLevels returns the scenario's level table, or the default table
// at the harness period when none is given.
func (s Scenario) ServiceLevels() (feedback.Levels, error) {
	if len(s.Levels) == 0 {
		return feedback.DefaultLevels(s.Harness.Period), nil
	}
	return feedback.NewLevels(s.Levels)
}

// Validate checks the parts of the scenario the room does not check itself.
func (s Scenario) Validate() error {
	_, err := s.check()
	return err
}

// check validates the scenario and returns its level table.
func (s Scenario) check() (feedback.Levels, error) {
	if err := s.Harness.Validate(); err != nil {
		return feedback.Levels{}, err
	}
	levels, err := s.ServiceLevels()
	if err != nil {
		return feedback.Levels{}, err
	}
	if pairs := s.Room.Sources * whisper.SensorCount; s.Harness.Tasks > pairs {
		return feedback.Levels{}, fmt.Errorf("%w: %d tasks for %d pairs", ErrScenario, s.Harness.Tasks, pairs)
	}
	for i, n := range s.Noise {
		if n.StartAfter < 0 || n.Duration < 0 || n.Factor <= 0 {
			return feedback.Levels{}, fmt.Errorf("%w: noise %d: start_after=%s duration=%s factor=%g",
				ErrScenario, i, n.StartAfter, n.Duration, n.Factor)
		}
	}
	return levels, nil
}

// HarnessConfig returns the harness parameters with a zero task count
// resolved to one task per pair.
func (s Scenario) HarnessConfig() harness.Config {
	return s.Harness.ForPairs(s.Room.Sources * whisper.SensorCount)
}

// Build validates the scenario and returns a room with its noise schedule
// registered, plus the level table.
func (s Scenario) Build(logger *slog.Logger) (*whisper.Room, feedback.Levels, error) {
	levels, err := s.check()
	if err != nil {
		return nil, feedback.Levels{}, err
	}

	room, err := whisper.NewRoom(s.Room, whisper.WithLogger(logger))
	if err != nil {
		return nil, feedback.Levels{}, err
	}
	for _, n := range s.Noise {
		if err := room.AddNoise(n.StartAfter, n.Duration, n.Factor); err != nil {
			return nil, feedback.Levels{}, err
		}
	}
	return room, levels, nil
}
