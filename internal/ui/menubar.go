package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"whisper-load.klederson.com/internal/config"
)

// RenderMenuBar renders the top menu bar.
func RenderMenuBar(width int, runID string, paused bool) string {
	title := fmt.Sprintf(" %s v%s ", config.AppName, config.AppVersion)

	keys := []struct{ key, label string }{
		{"P", "ause"},
		{"1-4", " mic"},
		{"N", "oisy"},
		{"Enter", " detail"},
		{"Q", "uit"},
	}

	menu := ""
	for _, k := range keys {
		menu += "  " + StyleMenuKey.Render("["+k.key+"]") + StyleMenuLabel.Render(k.label)
	}

	status := StyleStatusRunning.Render("LIVE")
	if paused {
		status = StyleStatusPaused.Render("PAUSED")
	}

	if len(runID) > 8 {
		runID = runID[:8]
	}
	runInfo := StyleMenuLabel.Render("Run: " + runID)

	left := StyleMenuKey.Render(title) + menu
	right := status + "  " + runInfo + " "

	gap := width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return StyleMenuBar.Width(width).Render(fill(left, lipgloss.Width(left)+gap) + right)
}
