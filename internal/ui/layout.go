package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ComposeLayout joins the room panel and pair list horizontally,
// with menu bar on top and status bar on bottom.
func ComposeLayout(menuBar, roomPanel, pairList, statusBar string) string {
	middle := lipgloss.JoinHorizontal(lipgloss.Top, roomPanel, pairList)
	return lipgloss.JoinVertical(lipgloss.Left, menuBar, middle, statusBar)
}

// RenderRoomPanel wraps the room view with a styled border.
// The room itself is rendered by the radar package.
func RenderRoomPanel(width, height int, roomContent, legend string) string {
	content := roomContent + "\n" + legend
	return StylePanelBorder.Width(width - 2).Height(height - 2).Render(content)
}

// fill pads s with spaces to width w, measured in visible cells.
func fill(s string, w int) string {
	gap := w - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
