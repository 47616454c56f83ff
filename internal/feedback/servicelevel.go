package feedback

import (
	"errors"
	"fmt"
	"time"
)

// LevelCount is the fixed size of a service level table.
const LevelCount = 4

var ErrLevels = errors.New("feedback: invalid service level table")

// ServiceLevel is one way of running a job. RelativeWork scales the job's
// operation count; QoS is the value the level is worth to the system.
type ServiceLevel struct {
	RelativeWork float64       `yaml:"relative_work"`
	QoS          float64       `yaml:"qos"`
	Number       int           `yaml:"number"`
	Period       time.Duration `yaml:"period"`
}

// Levels is a service level table ordered from cheapest to richest.
type Levels [LevelCount]ServiceLevel

// DefaultLevels returns the standard four-level table, every level released
// at period.
func DefaultLevels(period time.Duration) Levels {
	return Levels{
		{RelativeWork: 1, QoS: 2.2, Number: 0, Period: period},
		{RelativeWork: 2, QoS: 3, Number: 1, Period: period},
		{RelativeWork: 2.1, QoS: 4, Number: 2, Period: period},
		{RelativeWork: 3, QoS: 5, Number: 3, Period: period},
	}
}

// NewLevels builds a table from exactly LevelCount entries. Numbers are
// reassigned to the entry's position.
func NewLevels(in []ServiceLevel) (Levels, error) {
	var l Levels
	if len(in) != LevelCount {
		return l, fmt.Errorf("%w: want %d levels, got %d", ErrLevels, LevelCount, len(in))
	}
	copy(l[:], in)
	for i := range l {
		l[i].Number = i
	}
	return l, l.Validate()
}

// Validate checks that every level does positive work and that work never
// decreases from one level to the next.
func (l Levels) Validate() error {
	for i, lv := range l {
		if lv.RelativeWork <= 0 {
			return fmt.Errorf("%w: level %d relative work %g", ErrLevels, i, lv.RelativeWork)
		}
		if lv.Period < 0 {
			return fmt.Errorf("%w: level %d negative period", ErrLevels, i)
		}
		if i > 0 && lv.RelativeWork < l[i-1].RelativeWork {
			return fmt.Errorf("%w: level %d does less work than level %d", ErrLevels, i, i-1)
		}
	}
	return nil
}

// Index clamps an estimate to a valid table position.
func Index(estimate int) int {
	switch {
	case estimate < 0:
		return 0
	case estimate >= LevelCount:
		return LevelCount - 1
	}
	return estimate
}

// Select returns the level for an estimate, clamped to the table.
func (l Levels) Select(estimate int) ServiceLevel {
	return l[Index(estimate)]
}
