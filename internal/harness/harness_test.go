package harness

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper-load.klederson.com/internal/feedback"
	"whisper-load.klederson.com/internal/whisper"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRoom(t *testing.T) *whisper.Room {
	t.Helper()
	r, err := whisper.NewRoom(whisper.DefaultConfig(), whisper.WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, r.AddNoise(time.Second, 10*time.Second, 3))
	return r
}

// fastConfig runs without burning so tests stay quick.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Tasks = 8
	cfg.Iterations = 3
	cfg.Period = time.Millisecond
	cfg.WorkScale = 0
	return cfg
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative tasks", func(c *Config) { c.Tasks = -1 }},
		{"no clusters", func(c *Config) { c.Clusters = 0 }},
		{"more clusters than tasks", func(c *Config) { c.Tasks = 4; c.Clusters = 5 }},
		{"negative iterations", func(c *Config) { c.Iterations = -1 }},
		{"zero period", func(c *Config) { c.Period = 0 }},
		{"negative deadline", func(c *Config) { c.RelativeDeadline = -time.Second }},
		{"negative ticks", func(c *Config) { c.TicksPerJob = -1 }},
		{"negative work scale", func(c *Config) { c.WorkScale = -1 }},
		{"zero budget", func(c *Config) { c.BudgetOps = 0 }},
		{"negative capacity", func(c *Config) { c.Capacity = -1 }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfigDeadlineAndClusters(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, time.Second, cfg.Deadline())
	cfg.RelativeDeadline = 10 * time.Millisecond
	assert.Equal(t, 10*time.Millisecond, cfg.Deadline())

	cfg.Tasks = 32
	cfg.Clusters = 4
	assert.Equal(t, 0, cfg.Cluster(0))
	assert.Equal(t, 0, cfg.Cluster(7))
	assert.Equal(t, 1, cfg.Cluster(8))
	assert.Equal(t, 3, cfg.Cluster(31))
}

func TestWeight(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Weight(0, 100))
	assert.Equal(t, 1, Weight(1, 100))
	assert.Equal(t, 1, Weight(100, 100))
	assert.Equal(t, 2, Weight(101, 100))
	assert.Equal(t, 0, Weight(50, 0))
}

func TestBurner(t *testing.T) {
	t.Parallel()

	a, b := NewBurner(7), NewBurner(7)
	assert.Equal(t, a.Burn(5000), b.Burn(5000))
	assert.Equal(t, a.Burn(5000), a.Burn(5000), "indexes restart on every call")
	assert.Zero(t, a.Burn(0))

	for _, v := range a.a {
		assert.True(t, v >= 0 && v < 1)
	}
	for _, v := range a.b {
		assert.True(t, v >= -1 && v < 1)
	}
}

func TestTaskJob(t *testing.T) {
	t.Parallel()

	room := newRoom(t)
	pair, err := room.Pair(3)
	require.NoError(t, err)

	cfg := fastConfig()
	task := NewTask(3, pair, feedback.DefaultLevels(cfg.Period), cfg)

	first := task.Job(time.Now())
	assert.Equal(t, 0, first.Job)
	assert.Equal(t, 3, first.Index)
	assert.Equal(t, int64(1), first.Tick)
	assert.Equal(t, 0, first.Estimate)
	assert.Equal(t, 0, first.Forecast)
	assert.Equal(t, 3, first.Level, "full capacity picks the richest level")
	assert.Equal(t, int(float64(first.Operations)*3), first.Scaled)
	assert.Equal(t, Weight(first.Operations, cfg.BudgetOps), first.Actual)

	second := task.Job(time.Now())
	assert.Equal(t, 1, second.Job)
	assert.Equal(t, int64(2), second.Tick)
	assert.Equal(t, int(cfg.P*float64(-first.Actual)), second.Estimate)
	assert.Equal(t, first.Actual-second.Estimate, second.Forecast)
	assert.Equal(t, feedback.Index(cfg.Capacity-second.Forecast), second.Level)
	assert.Equal(t, 2, task.Controller().Jobs)
}

func TestControllerSettlesAfterLoadStep(t *testing.T) {
	t.Parallel()

	room, err := whisper.NewRoom(whisper.DefaultConfig(), whisper.WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, room.AddNoiseEvent(whisper.NoiseEvent{Delay: 5, Duration: 10000, Factor: 5}))
	pair, err := room.Pair(0)
	require.NoError(t, err)

	cfg := fastConfig()
	cfg.BudgetOps = 100
	task := NewTask(0, pair, feedback.DefaultLevels(cfg.Period), cfg)

	recs := make([]JobRecord, 150)
	maxActual := 0
	for i := range recs {
		recs[i] = task.Job(time.Now())
		maxActual = max(maxActual, recs[i].Actual)
	}
	require.False(t, recs[0].Noisy)
	require.True(t, recs[len(recs)-1].Noisy)
	require.Greater(t, recs[len(recs)-1].Actual, 3*recs[0].Actual, "noise raises the load")

	for _, rec := range recs {
		assert.LessOrEqual(t, abs(rec.Estimate), 2*maxActual, "job %d", rec.Job)
	}
	for _, rec := range recs[100:] {
		assert.LessOrEqual(t, abs(rec.Estimate), 3, "job %d", rec.Job)
	}
	for _, rec := range recs[len(recs)-20:] {
		assert.LessOrEqual(t, abs(rec.Forecast-rec.Actual), 2, "job %d", rec.Job)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestHeavyForecastDropsLevel(t *testing.T) {
	t.Parallel()

	room, err := whisper.NewRoom(whisper.DefaultConfig(), whisper.WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, room.AddNoiseEvent(whisper.NoiseEvent{Delay: 0, Duration: 1000, Factor: 50}))
	pair, err := room.Pair(0)
	require.NoError(t, err)

	cfg := fastConfig()
	cfg.P, cfg.I = 0, 0
	task := NewTask(0, pair, feedback.DefaultLevels(cfg.Period), cfg)

	task.Job(time.Now())
	rec := task.Job(time.Now())
	require.True(t, rec.Noisy)
	assert.Greater(t, rec.Forecast, cfg.Capacity)
	assert.Equal(t, 0, rec.Level)
}

func TestRunnerRunsIterations(t *testing.T) {
	t.Parallel()

	store := NewRecordStore()
	r, err := NewRunner(newRoom(t), feedback.DefaultLevels(time.Millisecond), fastConfig(), store,
		WithLogger(quietLogger()), WithRunID("run-1"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", r.RunID())
	assert.Len(t, r.Tasks(), 8)

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 8, store.Count())
	totals := store.Totals()
	assert.Equal(t, 24, totals.Jobs)
	assert.Equal(t, 24, totals.Levels[0]+totals.Levels[1]+totals.Levels[2]+totals.Levels[3])

	snap := store.Snapshot()
	for i, rec := range snap {
		assert.Equal(t, i, rec.Index)
		assert.Equal(t, 2, rec.Job)
		assert.Equal(t, "run-1", rec.RunID)
	}
}

func TestRunnerRejectsTooManyTasks(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.Tasks = 33
	_, err := NewRunner(newRoom(t), feedback.DefaultLevels(time.Second), cfg, nil, WithLogger(quietLogger()))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunnerDrivesEveryPairByDefault(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.Tasks = 0
	cfg.Clusters = 4
	r, err := NewRunner(newRoom(t), feedback.DefaultLevels(time.Second), cfg, nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	tasks := r.Tasks()
	require.Len(t, tasks, 32)
	assert.Equal(t, 0, tasks[0].Cluster)
	assert.Equal(t, 3, tasks[31].Cluster)
}

func TestRunnerStartStop(t *testing.T) {
	t.Parallel()

	var jobs atomic.Int64
	sink := SinkFunc(func(JobRecord) error {
		jobs.Add(1)
		return nil
	})

	cfg := fastConfig()
	cfg.Iterations = 0
	r, err := NewRunner(newRoom(t), feedback.DefaultLevels(cfg.Period), cfg, sink, WithLogger(quietLogger()))
	require.NoError(t, err)

	r.Start(context.Background())
	require.Eventually(t, func() bool { return jobs.Load() >= 40 }, 5*time.Second, time.Millisecond)
	require.NoError(t, r.Stop())

	select {
	case <-r.Done():
	default:
		t.Fatal("runner still running after Stop")
	}
}

func TestRunnerStopsOnSinkError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	var jobs atomic.Int64
	sink := SinkFunc(func(JobRecord) error {
		if jobs.Add(1) == 10 {
			return boom
		}
		return nil
	})

	cfg := fastConfig()
	cfg.Iterations = 0
	r, err := NewRunner(newRoom(t), feedback.DefaultLevels(cfg.Period), cfg, sink, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.ErrorIs(t, r.Run(context.Background()), boom)
}

func TestMultiSink(t *testing.T) {
	t.Parallel()

	a, b := NewRecordStore(), NewRecordStore()
	bad := SinkFunc(func(JobRecord) error { return io.ErrShortWrite })

	err := MultiSink{a, nil, bad, b}.Record(JobRecord{State: whisper.State{Index: 4}})
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, 1, a.Count())
	assert.Equal(t, 1, b.Count())
}

func TestRecordStore(t *testing.T) {
	t.Parallel()

	s := NewRecordStore()
	require.NoError(t, s.Record(JobRecord{State: whisper.State{Index: 2, Noisy: true}, Level: 1, Missed: true}))
	require.NoError(t, s.Record(JobRecord{State: whisper.State{Index: 0}, Level: 3}))
	require.NoError(t, s.Record(JobRecord{State: whisper.State{Index: 2}, Job: 1, Level: 3}))

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 0, s.CountNoisy())

	rec, ok := s.Get(2)
	require.True(t, ok)
	assert.Equal(t, 1, rec.Job)
	_, ok = s.Get(9)
	assert.False(t, ok)

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, 0, snap[0].Index)
	assert.Equal(t, 2, snap[1].Index)

	assert.Equal(t, Totals{Jobs: 3, Misses: 1, Noisy: 1, Levels: [4]int{0, 1, 0, 2}}, s.Totals())

	assert.ErrorIs(t, s.Record(JobRecord{State: whisper.State{Index: -1}}), ErrRecord)
	assert.ErrorIs(t, s.Record(JobRecord{Level: feedback.LevelCount}), ErrRecord)
	assert.Equal(t, 3, s.Totals().Jobs, "rejected records are not counted")
}

func TestCSVSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := NewCSVSink(&buf)
	require.NoError(t, sink.Record(JobRecord{RunID: "r", State: whisper.State{Index: 1, Factor: 1}, Operations: 10}))
	require.NoError(t, sink.Record(JobRecord{RunID: "r", State: whisper.State{Index: 2, Noisy: true, Factor: 3}, Operations: 30}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	for _, row := range rows[1:] {
		assert.Len(t, row, len(csvHeader))
	}
	assert.Equal(t, "2", rows[2][4])
	assert.Equal(t, "true", rows[2][10])
	assert.Equal(t, "30", rows[2][12])
}
