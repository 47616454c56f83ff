package harness

import (
	"encoding/csv"
	"io"
	"strconv"
	"sync"
)

var csvHeader = []string{
	"run_id", "task", "cluster", "job", "pair", "sensor", "source", "tick",
	"distance_m", "occlusion_points", "noisy", "factor",
	"operations", "scaled", "level", "estimate", "forecast", "actual",
	"elapsed_us", "response_us", "missed",
}

// CSVSink writes one row per job, with a header before the first row.
type CSVSink struct {
	mu     sync.Mutex
	w      *csv.Writer
	header bool
}

// NewCSVSink creates a sink writing to w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// Record writes and flushes one row.
func (s *CSVSink) Record(rec JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.header {
		if err := s.w.Write(csvHeader); err != nil {
			return err
		}
		s.header = true
	}
	row := []string{
		rec.RunID,
		strconv.Itoa(rec.Task),
		strconv.Itoa(rec.Cluster),
		strconv.Itoa(rec.Job),
		strconv.Itoa(rec.Index),
		strconv.Itoa(rec.Sensor),
		strconv.Itoa(rec.Source),
		strconv.FormatInt(rec.Tick, 10),
		strconv.FormatFloat(rec.Distance, 'f', 4, 64),
		strconv.Itoa(rec.Occlusion.Points),
		strconv.FormatBool(rec.Noisy),
		strconv.FormatFloat(rec.Factor, 'g', -1, 64),
		strconv.Itoa(rec.Operations),
		strconv.Itoa(rec.Scaled),
		strconv.Itoa(rec.Level),
		strconv.Itoa(rec.Estimate),
		strconv.Itoa(rec.Forecast),
		strconv.Itoa(rec.Actual),
		strconv.FormatInt(rec.Elapsed.Microseconds(), 10),
		strconv.FormatInt(rec.Response.Microseconds(), 10),
		strconv.FormatBool(rec.Missed),
	}
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}
