package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"whisper-load.klederson.com/internal/feedback"
	"whisper-load.klederson.com/internal/harness"
)

// Detail is what the detail panel shows for one pair.
type Detail struct {
	Record      harness.JobRecord
	Bearing     float64   // room angle from microphone to source
	MaxDistance float64   // meters, farthest a source can be from this microphone
	History     []float64 // recent operation counts, oldest first
}

// RenderDetailPanel renders the pair detail overlay that replaces the room view.
func RenderDetailPanel(d Detail, width, height int) string {
	rec := d.Record
	innerW := width - 4
	if innerW < 20 {
		innerW = 20
	}

	title := StylePanelTitle.Render(fmt.Sprintf("PAIR %02d", rec.Index))
	escHint := StyleHelp.Render("[ESC]")
	titleLine := title + strings.Repeat(" ", max(0, innerW-lipgloss.Width(title)-lipgloss.Width(escHint))) + escHint

	sep := StyleRule.Render(strings.Repeat("-", innerW))

	lines := []string{titleLine, sep, ""}

	labelSty := lipgloss.NewStyle().Foreground(ColorMidGreen)
	valSty := lipgloss.NewStyle().Foreground(ColorMatrixGreen).Bold(true)

	noise := "quiet"
	if rec.Noisy {
		noise = fmt.Sprintf("x%g", rec.Factor)
	}
	blocked := "clear"
	switch rec.Occlusion.Points {
	case 1:
		blocked = "grazing"
	case 2:
		blocked = fmt.Sprintf("blocked %.0fdeg", rec.Occlusion.Angle()*180/math.Pi)
	}

	fields := []struct{ label, value string }{
		{"Route", fmt.Sprintf("mic %d <- src %d", rec.Sensor, rec.Source)},
		{"Mic", rec.SensorPos.String()},
		{"Source", rec.SourcePos.String()},
		{"Distance", fmt.Sprintf("%.3fm  %s", rec.Distance, blocked)},
		{"Noise", noise},
		{"Tick", fmt.Sprintf("%d  job %d", rec.Tick, rec.Job)},
		{"Ops", fmt.Sprintf("%d  scaled %d", rec.Operations, rec.Scaled)},
		{"Weight", fmt.Sprintf("forecast %d  actual %d  est %+d", rec.Forecast, rec.Actual, rec.Estimate)},
		{"Response", formatResponse(rec)},
	}

	for _, f := range fields {
		label := labelSty.Render(fmt.Sprintf("  %-10s", f.label))
		lines = append(lines, label+valSty.Render(f.value))
	}

	lines = append(lines, "")

	barWidth := innerW - 22
	if barWidth < 10 {
		barWidth = 10
	}
	bar := renderLevelBar(rec.Level, barWidth)
	lines = append(lines, labelSty.Render("  Level  ")+bar+valSty.Render(fmt.Sprintf(" L%d", rec.Level)))

	lines = append(lines, "")

	if len(d.History) > 0 {
		sparkW := innerW - 4
		if sparkW < 10 {
			sparkW = 10
		}
		lines = append(lines, labelSty.Render("  Ops History:"))
		spark := renderSparkline(d.History, sparkW)
		lines = append(lines, "  "+lipgloss.NewStyle().Foreground(ColorGreen).Render(spark))
	}

	lines = append(lines, "")

	// Compass
	usedLines := len(lines)
	compassH := height - usedLines - 5 // leave room for label + border
	if compassH < 5 {
		compassH = 5
	}
	compassW := innerW
	if compassW > compassH*3 {
		compassW = compassH * 3 // keep roughly proportional
	}

	nearness := 0.0
	if d.MaxDistance > 0 {
		nearness = 1 - rec.Distance/d.MaxDistance
	}
	heading := Heading(d.Bearing)
	compass := RenderCompass(compassW, compassH, heading, nearness, rec.Noisy)
	if compass != "" {
		pad := max((innerW-compassW)/2, 0)
		prefix := strings.Repeat(" ", pad)
		for _, cl := range strings.Split(compass, "\n") {
			lines = append(lines, prefix+cl)
		}
	}

	distLabel := fmt.Sprintf("%.2fm  %s  %s", rec.Distance, headingToDir(heading), noise)
	distPad := max((innerW-len(distLabel))/2, 0)
	lines = append(lines, strings.Repeat(" ", distPad)+valSty.Render(distLabel))

	for len(lines) < height-2 {
		lines = append(lines, "")
	}

	return StylePanelActive.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func renderLevelBar(level, width int) string {
	ratio := float64(level+1) / float64(feedback.LevelCount)
	ratio = math.Max(0, math.Min(1, ratio))
	filled := int(math.Round(ratio * float64(width)))

	bar := strings.Repeat("|", filled) + strings.Repeat("-", width-filled)
	filledPart := lipgloss.NewStyle().Foreground(lipgloss.Color(proximityColor(ratio))).Render(bar[:filled])
	emptyPart := lipgloss.NewStyle().Foreground(ColorDimGreen).Render(bar[filled:])
	return StyleHelp.Render("[") + filledPart + emptyPart + StyleHelp.Render("]")
}

func renderSparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	chars := []byte{'_', '.', '-', '~', '^'}

	start := 0
	if len(values) > width {
		start = len(values) - width
	}
	values = values[start:]

	minV, maxV := values[0], values[0]
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}

	rng := maxV - minV
	if rng < 1 {
		rng = 1
	}

	var sb strings.Builder
	for _, v := range values {
		idx := int((v - minV) / rng * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		sb.WriteByte(chars[idx])
	}

	return sb.String()
}

var compassDirs = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func headingToDir(h float64) string {
	return compassDirs[sector(h)]
}

func formatResponse(rec harness.JobRecord) string {
	s := rec.Response.Round(time.Microsecond).String()
	if rec.Missed {
		s += "  MISSED"
	}
	return s
}
