package harness

import (
	"time"

	"whisper-load.klederson.com/internal/feedback"
	"whisper-load.klederson.com/internal/whisper"
)

// Task is one periodic job stream bound to a single pair. A Task is driven
// by one goroutine.
type Task struct {
	ID      int
	Cluster int

	pair   *whisper.Pair
	ctrl   *feedback.Controller
	levels feedback.Levels
	burner *Burner
	cfg    Config
	runID  string

	jobs       int
	lastActual int
	sum        float64
}

// NewTask binds a pair to a fresh controller and burner.
func NewTask(id int, pair *whisper.Pair, levels feedback.Levels, cfg Config) *Task {
	return &Task{
		ID:      id,
		Cluster: cfg.Cluster(id),
		pair:    pair,
		ctrl:    feedback.NewController(cfg.P, cfg.I),
		levels:  levels,
		burner:  NewBurner(cfg.Seed + int64(id)),
		cfg:     cfg,
	}
}

// Pair returns the task's pair.
func (t *Task) Pair() *whisper.Pair { return t.pair }

// Controller returns the task's feedback controller.
func (t *Task) Controller() *feedback.Controller { return t.ctrl }

// Weight is the number of whole budget units ops needs.
func Weight(ops, budget int) int {
	if ops <= 0 || budget <= 0 {
		return 0
	}
	return (ops + budget - 1) / budget
}

// Job runs one job released at released and returns its record.
//
// The forecast is the previous job's weight minus the controller's
// correction: a positive estimate means the last forecast ran high. The
// level index is the capacity left after the forecast, so heavier
// forecasts pick cheaper levels. The pair is then advanced and its
// operations, scaled by the level, are burned.
func (t *Task) Job(released time.Time) JobRecord {
	estimate := t.ctrl.Predict()
	forecast := t.lastActual - estimate
	level := t.levels.Select(t.cfg.Capacity - forecast)

	ops := t.pair.Step(t.cfg.TicksPerJob)
	scaled := int(float64(ops) * level.RelativeWork)

	start := time.Now()
	t.sum += t.burner.Burn(scaled * t.cfg.WorkScale)
	elapsed := time.Since(start)

	actual := Weight(ops, t.cfg.BudgetOps)
	t.ctrl.Update(actual, forecast)
	t.lastActual = actual

	response := time.Since(released)
	rec := JobRecord{
		State:      t.pair.State(),
		RunID:      t.runID,
		Task:       t.ID,
		Cluster:    t.Cluster,
		Job:        t.jobs,
		Operations: ops,
		Scaled:     scaled,
		Level:      level.Number,
		Estimate:   estimate,
		Forecast:   forecast,
		Actual:     actual,
		Released:   released,
		Elapsed:    elapsed,
		Response:   response,
		Missed:     response > t.cfg.Deadline(),
	}
	t.jobs++
	return rec
}
