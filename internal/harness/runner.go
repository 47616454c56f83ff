package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"whisper-load.klederson.com/internal/feedback"
	"whisper-load.klederson.com/internal/whisper"
)

// Sink receives finished jobs. Record is called from every task goroutine,
// so implementations must be safe for concurrent use. An error stops the run.
type Sink interface {
	Record(JobRecord) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(JobRecord) error

func (f SinkFunc) Record(rec JobRecord) error { return f(rec) }

// MultiSink fans a record out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Record(rec JobRecord) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Runner releases the jobs of a set of tasks on a fixed period.
type Runner struct {
	cfg    Config
	tasks  []*Task
	sink   Sink
	logger *slog.Logger
	runID  string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) {
		if id != "" {
			r.runID = id
		}
	}
}

// NewRunner builds one task per pair for pairs 0 through cfg.Tasks-1, or
// for every pair when cfg.Tasks is 0. The room is sealed as a side effect.
func NewRunner(room *whisper.Room, levels feedback.Levels, cfg Config, sink Sink, opts ...RunnerOption) (*Runner, error) {
	cfg = cfg.ForPairs(room.Pairs())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := levels.Validate(); err != nil {
		return nil, err
	}
	if cfg.Tasks > room.Pairs() {
		return nil, fmt.Errorf("%w: %d tasks but the room has %d pairs", ErrInvalidConfig, cfg.Tasks, room.Pairs())
	}
	if sink == nil {
		sink = MultiSink(nil)
	}

	r := &Runner{
		cfg:    cfg,
		sink:   sink,
		logger: slog.Default(),
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("run_id", r.runID)

	r.tasks = make([]*Task, cfg.Tasks)
	for i := range r.tasks {
		pair, err := room.Pair(i)
		if err != nil {
			return nil, err
		}
		t := NewTask(i, pair, levels, cfg)
		t.runID = r.runID
		r.tasks[i] = t
	}
	return r, nil
}

// RunID returns the identifier stamped on every record.
func (r *Runner) RunID() string { return r.runID }

// Tasks returns the runner's tasks. They must not be driven while the
// runner is running.
func (r *Runner) Tasks() []*Task { return r.tasks }

// Run drives every task in its own goroutine until each has run
// cfg.Iterations jobs or ctx is cancelled. Cancellation is not an error.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("run started",
		"tasks", len(r.tasks), "clusters", r.cfg.Clusters,
		"iterations", r.cfg.Iterations, "period", r.cfg.Period)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range r.tasks {
		t := t
		g.Go(func() error {
			return r.drive(gctx, t)
		})
	}
	err := g.Wait()

	if err != nil {
		r.logger.Error("run failed", "err", err, "elapsed", time.Since(start))
		return err
	}
	r.logger.Info("run finished", "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func (r *Runner) drive(ctx context.Context, t *Task) error {
	ticker := time.NewTicker(r.cfg.Period)
	defer ticker.Stop()

	released := time.Now()
	for n := 0; r.cfg.Iterations == 0 || n < r.cfg.Iterations; n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				return nil
			case released = <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		rec := t.Job(released)
		if rec.Missed {
			r.logger.Debug("deadline missed",
				"task", t.ID, "job", rec.Job, "response", rec.Response, "level", rec.Level)
		}
		if err := r.sink.Record(rec); err != nil {
			return fmt.Errorf("task %d job %d: %w", t.ID, rec.Job, err)
		}
	}
	return nil
}

// Start runs the runner in the background until Stop is called or ctx ends.
func (r *Runner) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go func() {
		defer close(done)
		err := r.Run(ctx)
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
	}()
}

// Done is closed when a started run ends. It is nil before Start.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Stop cancels a started run and waits for it to end.
func (r *Runner) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
