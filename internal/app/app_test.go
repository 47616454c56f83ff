package app

import (
	"errors"
	"regexp"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper-load.klederson.com/internal/harness"
	"whisper-load.klederson.com/internal/ui"
	"whisper-load.klederson.com/internal/whisper"
)

var ansi = regexp.MustCompile("\x1b\\[[0-9;]*m")

func plain(s string) string { return ansi.ReplaceAllString(s, "") }

func job(index int, noisy bool, ops int) JobMsg {
	cfg := whisper.DefaultConfig()
	mic, _ := cfg.SensorPosition(index / cfg.Sources)
	return JobMsg(harness.JobRecord{
		State: whisper.State{
			Index:     index,
			Sensor:    index / cfg.Sources,
			Source:    index % cfg.Sources,
			SensorPos: mic,
			SourcePos: whisper.Point{X: 500, Y: 0},
			Distance:  12,
			Noisy:     noisy,
			Factor:    1,
		},
		Operations: ops,
		Released:   time.Unix(int64(index), 0),
	})
}

func update(t *testing.T, m AppModel, msgs ...tea.Msg) AppModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(AppModel)
		require.True(t, ok)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newModel(t *testing.T) AppModel {
	t.Helper()
	m := New(whisper.DefaultConfig(), 32, "run-1234")
	return update(t, m, tea.WindowSizeMsg{Width: 140, Height: 44})
}

func TestJobsReachTheList(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	m = update(t, m, job(0, false, 100), job(9, true, 200), job(9, true, 300), TickMsg(time.Now()))

	require.Len(t, m.recs, 2)
	assert.Equal(t, 3, m.shared.store.Totals().Jobs)
	assert.Equal(t, []float64{200, 300}, m.shared.history[9].Values())

	view := plain(m.View())
	assert.Contains(t, view, "PAIRS [2]")
	assert.Contains(t, view, "Pair 09")
	assert.Contains(t, view, "Jobs: 3")
}

func TestRejectedJobIsNotShown(t *testing.T) {
	t.Parallel()

	bad := job(3, false, 100)
	bad.Level = 7
	m := newModel(t)
	m = update(t, m, bad, TickMsg(time.Now()))
	assert.Zero(t, m.shared.store.Count())
	assert.Empty(t, m.recs)
	assert.Empty(t, m.shared.history)
}

func TestPauseDropsJobs(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	m = update(t, m, key("p"), job(0, false, 100), TickMsg(time.Now()))
	assert.True(t, m.paused)
	assert.Zero(t, m.shared.store.Count())
	assert.Contains(t, plain(m.View()), "PAUSED")

	m = update(t, m, key("p"), job(0, false, 100), TickMsg(time.Now()))
	assert.Equal(t, 1, m.shared.store.Count())
}

func TestFilters(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	m = update(t, m, job(0, false, 1), job(9, true, 1), job(17, false, 1), TickMsg(time.Now()))
	require.Len(t, m.recs, 3)

	m = update(t, m, key("2"))
	require.Len(t, m.recs, 2)
	assert.Equal(t, 17, m.recs[1].Index)

	m = update(t, m, key("2"), key("n"))
	require.Len(t, m.recs, 1)
	assert.Equal(t, 9, m.recs[0].Index)
}

func TestCursorAndDetail(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	m = update(t, m, key("enter"))
	assert.False(t, m.detail, "no detail without a selection")

	m = update(t, m, job(0, false, 1), job(9, false, 1), TickMsg(time.Now()))
	m = update(t, m, key("down"), key("down"))
	assert.Equal(t, 1, m.cursor)

	m = update(t, m, key("enter"))
	require.True(t, m.detail)
	assert.Contains(t, plain(m.View()), "PAIR 09")

	m = update(t, m, key("esc"), key("up"))
	assert.False(t, m.detail)
	assert.Equal(t, 0, m.cursor)
}

func TestRunDone(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	m = update(t, m, RunDoneMsg{})
	assert.Equal(t, ui.RunDone, m.state)
	assert.Contains(t, plain(m.View()), "[DONE]")

	m = update(t, m, RunDoneMsg{Err: errors.New("boom")})
	assert.Equal(t, ui.RunFailed, m.state)
}

func TestQuit(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSceneDrawsEachSourceOnce(t *testing.T) {
	t.Parallel()

	m := newModel(t)
	older := job(1, false, 1)
	newer := job(9, true, 1)
	m = update(t, m, older, newer, TickMsg(time.Now()))

	sc := m.scene()
	require.Len(t, sc.Sources, 1)
	assert.Equal(t, 1, sc.Sources[0].Number)
	assert.True(t, sc.Sources[0].Noisy, "latest pair wins")
	require.NotNil(t, sc.Selected)
	assert.Equal(t, 0, sc.Selected.Sensor)
}

func TestMaxDistance(t *testing.T) {
	t.Parallel()

	c := whisper.Config{RoomSide: 2000, OrbitRadius: 500, UnitsPerMeter: 100}
	assert.InDelta(t, 19.142, maxDistance(c), 1e-3)
	assert.Zero(t, maxDistance(whisper.Config{}))
}

func TestWaitCmdReportsRunnerError(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	close(done)
	m := New(whisper.DefaultConfig(), 32, "")
	m.shared.done = done
	m.shared.stop = func() error { return errors.New("boom") }

	msg := m.waitCmd()()
	require.IsType(t, RunDoneMsg{}, msg)
	assert.EqualError(t, msg.(RunDoneMsg).Err, "boom")

	assert.Nil(t, New(whisper.DefaultConfig(), 32, "").waitCmd())
}

func TestHistory(t *testing.T) {
	t.Parallel()

	h := NewHistory(3)
	assert.Nil(t, h.Values())
	assert.Zero(t, h.Last())

	for _, v := range []float64{1, 2, 3, 4} {
		h.Push(v)
	}
	assert.Equal(t, []float64{2, 3, 4}, h.Values())
	assert.Equal(t, 4.0, h.Last())
	assert.Equal(t, 3, h.Len())
}

func TestProgramSinkDropsBeforeAttach(t *testing.T) {
	t.Parallel()

	var s ProgramSink
	assert.NoError(t, s.Record(harness.JobRecord{}))
}
