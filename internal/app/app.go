package app

import (
	"math"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"whisper-load.klederson.com/internal/config"
	"whisper-load.klederson.com/internal/harness"
	"whisper-load.klederson.com/internal/log"
	"whisper-load.klederson.com/internal/radar"
	"whisper-load.klederson.com/internal/ui"
	"whisper-load.klederson.com/internal/whisper"
)

// shared holds state shared between the Bubble Tea model copies and main.go.
// Because Bubble Tea uses value receivers, pointer fields ensure all copies
// see the same underlying data.
type shared struct {
	store   *harness.RecordStore
	trail   *radar.Trail
	history map[int]*History
	done    <-chan struct{}
	stop    func() error
}

// AppModel is the root Bubble Tea model for the whisper dashboard.
type AppModel struct {
	width  int
	height int

	room   whisper.Config
	pairs  int
	runID  string
	state  ui.RunState
	paused bool

	cursor int
	detail bool
	filter ui.FilterState

	shared *shared

	// Cached snapshots
	all  []harness.JobRecord
	recs []harness.JobRecord
}

// New creates a model for a room with the given pair count.
func New(room whisper.Config, pairs int, runID string) AppModel {
	return AppModel{
		room:   room,
		pairs:  pairs,
		runID:  runID,
		filter: ui.AllSensors(),
		shared: &shared{
			store:   harness.NewRecordStore(),
			trail:   radar.NewTrail(0),
			history: make(map[int]*History),
		},
	}
}

// WatchRunner makes the model report when a started runner ends. Must be
// called after runner.Start and before p.Run().
func (m *AppModel) WatchRunner(r *harness.Runner) {
	m.shared.done = r.Done()
	m.shared.stop = r.Stop
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.waitCmd(),
	)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.refresh()
		return m, tickCmd()

	case JobMsg:
		if !m.paused {
			rec := harness.JobRecord(msg)
			if err := m.shared.store.Record(rec); err != nil {
				log.Warn("dropping job", "pair", rec.Index, "job", rec.Job, "err", err)
				return m, nil
			}
			h, ok := m.shared.history[rec.Index]
			if !ok {
				h = NewHistory(config.HistoryLen)
				m.shared.history[rec.Index] = h
			}
			h.Push(float64(rec.Operations))
		}
		return m, nil

	case RunDoneMsg:
		m.state = ui.RunDone
		if msg.Err != nil {
			m.state = ui.RunFailed
		}
		m.refresh()
		return m, nil
	}

	return m, nil
}

// refresh re-reads the store and keeps the cursor and trail on the
// selected pair.
func (m *AppModel) refresh() {
	m.all = m.shared.store.Snapshot()
	m.recs = m.filter.Apply(m.all)
	if m.cursor >= len(m.recs) {
		m.cursor = max(len(m.recs)-1, 0)
	}
	if rec, ok := m.selected(); ok {
		m.shared.trail.Follow(rec.Angle)
	}
}

func (m AppModel) selected() (harness.JobRecord, bool) {
	if m.cursor < 0 || m.cursor >= len(m.recs) {
		return harness.JobRecord{}, false
	}
	return m.recs[m.cursor], true
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "p", "P":
		m.paused = !m.paused

	case "enter":
		if _, ok := m.selected(); ok {
			m.detail = true
		}

	case "esc":
		m.detail = false

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.recs)-1 {
			m.cursor++
		}

	case "home":
		m.cursor = 0

	case "end":
		if len(m.recs) > 0 {
			m.cursor = len(m.recs) - 1
		}

	case "1", "2", "3", "4":
		s := int(msg.String()[0] - '1')
		m.filter.Sensors[s] = !m.filter.Sensors[s]
		m.cursor = 0
		m.refresh()

	case "n", "N":
		m.filter.NoisyOnly = !m.filter.NoisyOnly
		m.cursor = 0
		m.refresh()
	}

	return m, nil
}

func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing whisper..."
	}

	menuH := 1
	statusH := 1
	bodyH := m.height - menuH - statusH
	if bodyH < 5 {
		bodyH = 5
	}

	roomW := m.width * 3 / 5
	if roomW < 30 {
		roomW = 30
	}
	listW := m.width - roomW
	if listW < 20 {
		listW = 20
		roomW = m.width - listW
	}

	state := m.state
	if state == ui.RunLive && m.paused {
		state = ui.RunPaused
	}
	menuBar := ui.RenderMenuBar(m.width, m.runID, m.paused)

	var roomPanel string
	if rec, ok := m.selected(); ok && m.detail {
		var hist []float64
		if h := m.shared.history[rec.Index]; h != nil {
			hist = h.Values()
		}
		roomPanel = ui.RenderDetailPanel(ui.Detail{
			Record:      rec,
			Bearing:     radar.Bearing(rec.SensorPos, rec.SourcePos),
			MaxDistance: maxDistance(m.room),
			History:     hist,
		}, roomW, bodyH)
	} else {
		innerW := roomW - 4
		innerH := bodyH - 4
		if innerW < 5 {
			innerW = 5
		}
		if innerH < 3 {
			innerH = 3
		}
		content := radar.Render(innerW, innerH, m.scene())
		legend := radar.RenderLegend(innerW)
		roomPanel = ui.RenderRoomPanel(roomW, bodyH, content, legend)
	}

	pairList := ui.RenderPairList(m.recs, listW, bodyH, m.cursor, m.filter)

	store := m.shared.store
	statusBar := ui.RenderStatusBar(m.width, state, store.Totals(), m.pairs, store.CountNoisy(),
		m.shared.trail.Degrees())

	return ui.ComposeLayout(menuBar, roomPanel, pairList, statusBar)
}

// scene builds the room view. Every microphone sees the same source, so
// sources are drawn once, from the pair that ran most recently.
func (m AppModel) scene() radar.Scene {
	latest := make(map[int]harness.JobRecord)
	for _, rec := range m.all {
		if cur, ok := latest[rec.Source]; !ok || rec.Released.After(cur.Released) {
			latest[rec.Source] = rec
		}
	}

	sources := make([]radar.Source, 0, len(latest))
	for n, rec := range latest {
		sources = append(sources, radar.Source{Number: n, Pos: rec.SourcePos, Noisy: rec.Noisy})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Number < sources[j].Number })

	sc := radar.Scene{Room: m.room, Sources: sources}
	if rec, ok := m.selected(); ok {
		sc.Selected = &radar.Selection{
			Sensor:    rec.Sensor,
			SensorPos: rec.SensorPos,
			Source:    rec.Source,
			SourcePos: rec.SourcePos,
			Occlusion: rec.Occlusion,
		}
		sc.Trail = m.shared.trail
	}
	return sc
}

// maxDistance is the farthest, in meters, a source on the orbit gets from a
// corner microphone.
func maxDistance(c whisper.Config) float64 {
	if c.UnitsPerMeter <= 0 {
		return 0
	}
	corner := math.Sqrt2 * float64(c.RoomSide) / 2
	return (corner + float64(c.OrbitRadius)) / float64(c.UnitsPerMeter)
}

func (m AppModel) waitCmd() tea.Cmd {
	done, stop := m.shared.done, m.shared.stop
	if done == nil {
		return nil
	}
	return func() tea.Msg {
		<-done
		return RunDoneMsg{Err: stop()}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(config.TargetFPS), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
