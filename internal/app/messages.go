package app

import (
	"time"

	"whisper-load.klederson.com/internal/harness"
)

// TickMsg triggers a frame update for animation.
type TickMsg time.Time

// JobMsg carries a finished job from the harness.
type JobMsg harness.JobRecord

// RunDoneMsg reports that the harness stopped.
type RunDoneMsg struct {
	Err error
}
