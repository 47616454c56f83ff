// Package harness drives whisper pairs as periodic jobs. Each task owns one
// pair, a feedback controller and a busy-work burner; a Runner releases the
// tasks' jobs on a fixed period and hands every finished job to a Sink.
package harness

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidConfig = errors.New("harness: invalid config")

// Config holds the periodic task parameters.
type Config struct {
	Tasks      int `yaml:"tasks"`      // one task per pair from pair 0; 0 drives every pair
	Clusters   int `yaml:"clusters"`   // tasks are split into this many contiguous groups
	Iterations int `yaml:"iterations"` // jobs per task; 0 runs until cancelled

	Period           time.Duration `yaml:"period"`
	RelativeDeadline time.Duration `yaml:"relative_deadline"` // 0 means Period

	TicksPerJob int64 `yaml:"ticks_per_job"`
	WorkScale   int   `yaml:"work_scale"` // multiply-adds per operation

	// BudgetOps is the number of operations in one unit of job weight and
	// Capacity is the weight a job may use before service drops.
	BudgetOps int `yaml:"budget_ops"`
	Capacity  int `yaml:"capacity"`

	P float64 `yaml:"p"`
	I float64 `yaml:"i"`

	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns 240 one-second jobs on every pair.
func DefaultConfig() Config {
	return Config{
		Tasks:       0,
		Clusters:    1,
		Iterations:  240,
		Period:      time.Second,
		TicksPerJob: 1,
		WorkScale:   14000,
		BudgetOps:   2500,
		Capacity:    4,
		P:           0.5,
		I:           0.25,
		Seed:        1,
	}
}

// Deadline returns the effective relative deadline.
func (c Config) Deadline() time.Duration {
	if c.RelativeDeadline > 0 {
		return c.RelativeDeadline
	}
	return c.Period
}

// Cluster returns the group a task number belongs to.
func (c Config) Cluster(task int) int {
	if c.Clusters <= 1 || c.Tasks <= 0 {
		return 0
	}
	return task * c.Clusters / c.Tasks
}

// ForPairs resolves a zero task count to one task per pair.
func (c Config) ForPairs(pairs int) Config {
	if c.Tasks == 0 {
		c.Tasks = pairs
	}
	return c
}

// Validate reports the first bad field. A zero task count is valid until
// ForPairs resolves it.
func (c Config) Validate() error {
	switch {
	case c.Tasks < 0:
		return fmt.Errorf("%w: tasks is negative", ErrInvalidConfig)
	case c.Clusters <= 0 || (c.Tasks > 0 && c.Clusters > c.Tasks):
		return fmt.Errorf("%w: clusters must be in [1, %d], got %d", ErrInvalidConfig, c.Tasks, c.Clusters)
	case c.Iterations < 0:
		return fmt.Errorf("%w: iterations is negative", ErrInvalidConfig)
	case c.Period <= 0:
		return fmt.Errorf("%w: period must be positive, got %s", ErrInvalidConfig, c.Period)
	case c.RelativeDeadline < 0:
		return fmt.Errorf("%w: relative deadline is negative", ErrInvalidConfig)
	case c.TicksPerJob < 0:
		return fmt.Errorf("%w: ticks per job is negative", ErrInvalidConfig)
	case c.WorkScale < 0:
		return fmt.Errorf("%w: work scale is negative", ErrInvalidConfig)
	case c.BudgetOps <= 0:
		return fmt.Errorf("%w: budget ops must be positive, got %d", ErrInvalidConfig, c.BudgetOps)
	case c.Capacity < 0:
		return fmt.Errorf("%w: capacity is negative", ErrInvalidConfig)
	}
	return nil
}
