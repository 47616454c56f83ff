package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"whisper-load.klederson.com/internal/harness"
)

// ProgramSink forwards harness records to a running Bubble Tea program.
// Records arriving before Attach are dropped.
type ProgramSink struct {
	mu sync.RWMutex
	p  *tea.Program
}

// Attach sets the program records are sent to.
func (s *ProgramSink) Attach(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

// Record sends rec as a JobMsg. Once the program has exited Send returns
// immediately, so a runner outliving the UI never blocks here.
func (s *ProgramSink) Record(rec harness.JobRecord) error {
	s.mu.RLock()
	p := s.p
	s.mu.RUnlock()
	if p != nil {
		p.Send(JobMsg(rec))
	}
	return nil
}
