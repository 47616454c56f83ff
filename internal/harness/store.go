package harness

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"whisper-load.klederson.com/internal/feedback"
)

// ErrRecord is returned for a record a store cannot file.
var ErrRecord = errors.New("harness: invalid record")

// Totals summarises every record a store has seen.
type Totals struct {
	Jobs   int
	Misses int
	Noisy  int
	Levels [feedback.LevelCount]int
}

// RecordStore is a thread-safe Sink keeping the latest record per pair.
type RecordStore struct {
	mu     sync.RWMutex
	latest map[int]JobRecord
	totals Totals
}

// NewRecordStore creates a new empty RecordStore.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		latest: make(map[int]JobRecord),
	}
}

// Record replaces the pair's previous record and updates the totals.
// Records with a negative pair index or an unknown level are rejected.
func (s *RecordStore) Record(rec JobRecord) error {
	if rec.Index < 0 || rec.Level < 0 || rec.Level >= feedback.LevelCount {
		return fmt.Errorf("%w: pair %d level %d", ErrRecord, rec.Index, rec.Level)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest[rec.Index] = rec
	s.totals.Jobs++
	if rec.Missed {
		s.totals.Misses++
	}
	if rec.Noisy {
		s.totals.Noisy++
	}
	s.totals.Levels[rec.Level]++
	return nil
}

// Get returns the latest record for a pair index.
func (s *RecordStore) Get(index int) (JobRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.latest[index]
	return rec, ok
}

// Snapshot returns the latest record of every pair, ordered by pair index.
func (s *RecordStore) Snapshot() []JobRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]JobRecord, 0, len(s.latest))
	for _, rec := range s.latest {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Index < result[j].Index
	})
	return result
}

// Count returns the number of pairs with at least one record.
func (s *RecordStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.latest)
}

// CountNoisy returns how many pairs were noisy in their latest record.
func (s *RecordStore) CountNoisy() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.latest {
		if rec.Noisy {
			n++
		}
	}
	return n
}

// Totals returns the running totals.
func (s *RecordStore) Totals() Totals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals
}
