package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"whisper-load.klederson.com/internal/harness"
)

// RunState is what the status bar reports about the harness.
type RunState int

const (
	RunLive RunState = iota
	RunPaused
	RunDone
	RunFailed
)

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, state RunState, totals harness.Totals, pairs, noisy int, trailDeg float64) string {
	var status string
	switch state {
	case RunPaused:
		status = StyleStatusPaused.Render("[PAUSED]")
	case RunDone:
		status = StyleStatusDone.Render("[DONE]")
	case RunFailed:
		status = StyleStatusMiss.Render("[FAILED]")
	default:
		status = StyleStatusRunning.Render("[RUNNING]")
	}

	info := fmt.Sprintf(" Pairs: %d  Noisy: %d  Jobs: %d  Levels: %d/%d/%d/%d  Heading: %ddeg",
		pairs, noisy, totals.Jobs,
		totals.Levels[0], totals.Levels[1], totals.Levels[2], totals.Levels[3], int(trailDeg))

	misses := ""
	if totals.Misses > 0 {
		misses = StyleStatusMiss.Render(fmt.Sprintf("  Missed: %d", totals.Misses))
	}

	content := status + StyleStatusBar.Foreground(ColorGreen).Render(info) + misses

	gap := width - 2 - lipgloss.Width(content) // 2 = bar padding
	if gap < 0 {
		gap = 0
	}
	return StyleStatusBar.Width(width).Render(fill(content, lipgloss.Width(content)+gap))
}
