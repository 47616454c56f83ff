package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"whisper-load.klederson.com/internal/harness"
	"whisper-load.klederson.com/internal/whisper"
)

// FilterState holds the current filter settings for the pair list.
type FilterState struct {
	Sensors   [whisper.SensorCount]bool // show pairs of this microphone
	NoisyOnly bool
}

// AllSensors returns a filter showing every pair.
func AllSensors() FilterState {
	return FilterState{Sensors: [whisper.SensorCount]bool{true, true, true, true}}
}

// Match reports whether a record passes the filter.
func (f FilterState) Match(rec harness.JobRecord) bool {
	if rec.Sensor < 0 || rec.Sensor >= whisper.SensorCount || !f.Sensors[rec.Sensor] {
		return false
	}
	return !f.NoisyOnly || rec.Noisy
}

// Apply returns the records that pass the filter, in order.
func (f FilterState) Apply(recs []harness.JobRecord) []harness.JobRecord {
	out := make([]harness.JobRecord, 0, len(recs))
	for _, rec := range recs {
		if f.Match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Cursor row style: black text on bright green = unmissable highlight
var cursorRowSty = lipgloss.NewStyle().
	Foreground(ColorBlack).
	Background(ColorMatrixGreen).
	Bold(true)

const linesPerPair = 4 // 3 content + 1 blank

// RenderPairList renders the scrollable pair list panel with a cursor.
// The filter bar stays fixed at the top; only the pair entries scroll.
func RenderPairList(recs []harness.JobRecord, width, height int, cursorIndex int, filter FilterState) string {
	innerW := width - 4
	if innerW < 10 {
		innerW = 10
	}

	title := StylePanelTitle.Render(fmt.Sprintf("PAIRS [%d]", len(recs)))
	separator := StyleRule.Render(strings.Repeat("-", innerW))
	filterBar := renderFilterBar(filter)
	headerLines := []string{title, separator, filterBar}
	headerCount := len(headerLines)

	innerH := height - 2
	if innerH < headerCount+1 {
		innerH = headerCount + 1
	}
	space := innerH - headerCount

	var lines []string
	if len(recs) == 0 {
		lines = append(lines, "", StyleHelp.Render(" No jobs yet..."), StyleHelp.Render(" Waiting for the harness"))
	} else {
		maxVisible := max(space/linesPerPair, 1)

		// Compute viewport start so cursor is always visible
		viewStart := 0
		if cursorIndex >= maxVisible {
			viewStart = cursorIndex - maxVisible + 1
		}

		for i := viewStart; i < len(recs) && len(lines) < space; i++ {
			lines = append(lines, renderPairEntry(recs[i], innerW, i == cursorIndex)...)
		}
	}

	if len(lines) > space {
		lines = lines[:space]
	}
	for len(lines) < space {
		lines = append(lines, "")
	}

	all := append(headerLines, lines...)
	rendered := StylePanelBorder.Width(width - 2).Height(innerH).Render(strings.Join(all, "\n"))

	// lipgloss Height() only sets a minimum; clamp to exactly height lines.
	outLines := strings.Split(rendered, "\n")
	if len(outLines) > height {
		outLines = outLines[:height]
	}
	for len(outLines) < height {
		outLines = append(outLines, "")
	}
	return strings.Join(outLines, "\n")
}

func renderPairEntry(rec harness.JobRecord, maxW int, isCursor bool) []string {
	symbol, tag := "*", "[quiet]"
	if rec.Noisy {
		symbol, tag = "!", fmt.Sprintf("[x%g]", rec.Factor)
	}
	miss := " "
	if rec.Missed {
		miss = "M"
	}

	name := fmt.Sprintf("Pair %02d", rec.Index)
	route := fmt.Sprintf("mic %d <- src %d", rec.Sensor, rec.Source)
	ops := fmt.Sprintf("ops %d  L%d", rec.Operations, rec.Level)
	dist := fmt.Sprintf("%.2fm", rec.Distance)
	if rec.Occlusion.Points == 2 {
		dist += "  blocked"
	}

	cursor := "  "
	if isCursor {
		cursor = ">>"
	}

	if isCursor {
		raw1 := truncRaw(fmt.Sprintf("%s %s %s %s %s", cursor, symbol, name, miss, tag), maxW)
		raw2 := truncRaw("     "+route, maxW)
		raw3 := truncRaw("     "+ops+"  "+dist, maxW)
		return []string{cursorRowSty.Render(raw1), cursorRowSty.Render(raw2), cursorRowSty.Render(raw3), ""}
	}

	sty := StyleQuiet
	if rec.Noisy {
		sty = StyleNoisy
	}
	missMark := miss
	if rec.Missed {
		missMark = StyleMissMarker.Render(miss)
	}

	line1 := fmt.Sprintf("%s %s %s %s %s", cursor, sty.Render(symbol), StylePairName.Render(name), missMark, sty.Render(tag))
	line2 := "     " + StylePairRoute.Render(truncRaw(route, maxW-5))
	line3 := "     " + StylePairOps.Render(ops) + "  " + StylePairDist.Render(dist)
	return []string{line1, line2, line3, ""}
}

// truncRaw pads or truncates a raw string to exactly w characters.
func truncRaw(s string, w int) string {
	if w < 0 {
		w = 0
	}
	if len(s) > w {
		return s[:w]
	}
	if len(s) < w {
		return s + strings.Repeat(" ", w-len(s))
	}
	return s
}

func renderFilterBar(f FilterState) string {
	toggleSty := func(on bool, label string) string {
		if on {
			return StyleFilterActive.Render("[" + label + "]")
		}
		return StyleFilterInactive.Render("[" + label + "]")
	}

	bar := ""
	for i, on := range f.Sensors {
		bar += " " + toggleSty(on, fmt.Sprintf("%d:M%d", i+1, i))
	}
	bar += " " + toggleSty(f.NoisyOnly, "N:noisy")
	return bar
}
