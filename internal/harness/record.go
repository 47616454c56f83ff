package harness

import (
	"time"

	"whisper-load.klederson.com/internal/whisper"
)

// JobRecord describes one finished job. The embedded State is the pair as it
// was after the job's advance.
type JobRecord struct {
	whisper.State

	RunID   string
	Task    int
	Cluster int
	Job     int

	Operations int // whisper operation count
	Scaled     int // Operations times the level's relative work
	Level      int

	Estimate int // controller correction
	Forecast int // predicted weight
	Actual   int // measured weight

	Released time.Time
	Elapsed  time.Duration // time spent burning
	Response time.Duration // release to completion
	Missed   bool
}
