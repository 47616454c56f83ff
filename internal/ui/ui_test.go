package ui

import (
	"math"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper-load.klederson.com/internal/harness"
	"whisper-load.klederson.com/internal/whisper"
)

var ansi = regexp.MustCompile("\x1b\\[[0-9;]*m")

func plain(s string) string { return ansi.ReplaceAllString(s, "") }

func record(index, sensor int, noisy bool) harness.JobRecord {
	return harness.JobRecord{
		State: whisper.State{
			Index: index, Sensor: sensor, Source: index % 8,
			Distance: 7.5, Noisy: noisy, Factor: 1,
		},
		Operations: 1200,
		Level:      2,
		Response:   3 * time.Millisecond,
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	recs := []harness.JobRecord{record(0, 0, false), record(9, 1, true), record(17, 2, false)}

	f := AllSensors()
	assert.Len(t, f.Apply(recs), 3)

	f.Sensors[1] = false
	got := f.Apply(recs)
	require.Len(t, got, 2)
	assert.Equal(t, 17, got[1].Index)

	f = AllSensors()
	f.NoisyOnly = true
	got = f.Apply(recs)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].Index)
}

func TestRenderPairList(t *testing.T) {
	t.Parallel()

	recs := []harness.JobRecord{record(0, 0, false), record(9, 1, true)}
	out := RenderPairList(recs, 40, 20, 1, AllSensors())

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 20)
	text := plain(out)
	assert.Contains(t, text, "PAIRS [2]")
	assert.Contains(t, text, "Pair 00")
	assert.Contains(t, text, ">> ! Pair 09")
	assert.Contains(t, text, "mic 1 <- src 1")
}

func TestRenderPairListEmpty(t *testing.T) {
	t.Parallel()

	out := plain(RenderPairList(nil, 40, 12, 0, AllSensors()))
	assert.Contains(t, out, "No jobs yet")
	assert.Len(t, strings.Split(out, "\n"), 12)
}

func TestRenderDetailPanel(t *testing.T) {
	t.Parallel()

	rec := record(5, 0, true)
	rec.Factor = 3
	rec.Missed = true
	out := plain(RenderDetailPanel(Detail{
		Record:      rec,
		Bearing:     math.Pi,
		MaxDistance: 15,
		History:     []float64{100, 400, 900, 1200},
	}, 60, 40))

	assert.Contains(t, out, "PAIR 05")
	assert.Contains(t, out, "x3")
	assert.Contains(t, out, "MISSED")
	assert.Contains(t, out, "Ops History:")
	assert.Contains(t, out, "7.50m  W  x3")
}

func TestHeading(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0, Heading(math.Pi/2), 1e-9)
	assert.InDelta(t, math.Pi/2, Heading(0), 1e-9)
	assert.InDelta(t, 3*math.Pi/2, Heading(math.Pi), 1e-9)
	assert.Equal(t, "W", headingToDir(Heading(math.Pi)))
	assert.Equal(t, "SW", headingToDir(Heading(5*math.Pi/4)))
}

func TestSparkline(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "_.-~^", renderSparkline([]float64{0, 1, 2, 3, 4}, 10))
	assert.Equal(t, "_^", renderSparkline([]float64{9, 0, 4}, 2))
	assert.Empty(t, renderSparkline(nil, 10))
}

func TestBars(t *testing.T) {
	t.Parallel()

	out := plain(RenderStatusBar(120, RunLive, harness.Totals{Jobs: 12, Misses: 2, Levels: [4]int{1, 2, 3, 6}}, 32, 4, 90))
	assert.Contains(t, out, "[RUNNING]")
	assert.Contains(t, out, "Jobs: 12")
	assert.Contains(t, out, "Levels: 1/2/3/6")
	assert.Contains(t, out, "Missed: 2")
	assert.Equal(t, 120, lipgloss.Width(out))

	menu := plain(RenderMenuBar(120, "0123456789abcdef", true))
	assert.Contains(t, menu, "PAUSED")
	assert.Contains(t, menu, "Run: 01234567")
}

func TestCompass(t *testing.T) {
	t.Parallel()

	out := plain(RenderCompass(21, 9, 0, 1, false))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 9)
	assert.Contains(t, out, "^", "arrow points north")
	assert.Empty(t, RenderCompass(5, 3, 0, 1, false))
}
