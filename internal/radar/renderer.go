package radar

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"whisper-load.klederson.com/internal/config"
	"whisper-load.klederson.com/internal/whisper"
)

var (
	colorBright  = lipgloss.Color("#00FF41")
	colorMid     = lipgloss.Color("#008F11")
	colorDim     = lipgloss.Color("#004A0A")
	colorSource  = lipgloss.Color("#00FFAA")
	colorSensor  = lipgloss.Color("#33FF66")
	colorNoisy   = lipgloss.Color("#FFAA00")
	colorBlocked = lipgloss.Color("#FF3300")

	styleCenter   = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
	styleRing     = lipgloss.NewStyle().Foreground(colorMid)
	styleDot      = lipgloss.NewStyle().Foreground(colorDim)
	styleWall     = lipgloss.NewStyle().Foreground(colorMid)
	styleSource   = lipgloss.NewStyle().Foreground(colorSource).Bold(true)
	styleNoisy    = lipgloss.NewStyle().Foreground(colorNoisy).Bold(true)
	styleSensor   = lipgloss.NewStyle().Foreground(colorSensor).Bold(true)
	styleObstacle = lipgloss.NewStyle().Foreground(colorBlocked).Bold(true)
	styleSight    = lipgloss.NewStyle().Foreground(colorBright)
	styleLabel    = lipgloss.NewStyle().Foreground(colorMid)
)

// Source is one moving source as drawn on the room view.
type Source struct {
	Number int
	Pos    whisper.Point
	Noisy  bool
}

// Selection is the pair whose line of sight is drawn.
type Selection struct {
	Sensor    int
	SensorPos whisper.Point
	Source    int
	SourcePos whisper.Point
	Occlusion whisper.Occlusion
}

// Scene is everything the room view draws.
type Scene struct {
	Room     whisper.Config
	Sources  []Source
	Selected *Selection
	Trail    *Trail
}

type markerKind int

const (
	markSensor markerKind = iota
	markSource
	markNoisy
	markSelected
)

type marker struct {
	col, row int
	kind     markerKind
	label    string
	labelCol int
	labelRow int
}

// Render produces the complete room display as a styled string.
func Render(width, height int, scene Scene) string {
	if width < 10 || height < 5 {
		return ""
	}

	vp := NewViewport(width, height, scene.Room.RoomSide)
	orbitR := vp.Scale(float64(scene.Room.OrbitRadius))
	obstacleR := 0.0
	if scene.Room.Occluding {
		obstacleR = vp.Scale(float64(scene.Room.ObstacleRadius))
	}

	markers := buildMarkers(scene, vp, width)
	sight := sightCells(scene.Selected, vp)

	type labelCell struct {
		mIdx    int
		charIdx int
	}
	labelMap := make(map[int]labelCell)
	for i, mk := range markers {
		for ci := 0; ci < len(mk.label); ci++ {
			labelMap[mk.labelRow*width+mk.labelCol+ci] = labelCell{mIdx: i, charIdx: ci}
		}
	}

	var sb strings.Builder
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			key := row*width + col
			if lc, ok := labelMap[key]; ok {
				mk := markers[lc.mIdx]
				sb.WriteString(styleLabelFor(mk.kind).Render(string(mk.label[lc.charIdx])))
				continue
			}
			sb.WriteString(renderCell(col, row, vp, orbitR, obstacleR, scene.Trail, markers, sight))
		}
		if row < height-1 {
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

// buildMarkers places sensors and sources and resolves label collisions.
// Sensors go first so their labels win.
func buildMarkers(scene Scene, vp Viewport, width int) []marker {
	type segment struct{ start, end int }
	occupied := make(map[int][]segment)

	free := func(row, start, n int) bool {
		for _, seg := range occupied[row] {
			if start < seg.end && start+n > seg.start {
				return false
			}
		}
		return true
	}

	var out []marker
	place := func(p whisper.Point, kind markerKind, label string) {
		col, row := vp.Cell(p)

		lc := col + 2
		if lc+len(label) >= width {
			lc = col - len(label) - 1
		}
		if lc < 0 {
			lc = 0
		}

		lr := row
		switch {
		case free(row, lc, len(label)):
		case free(row+1, lc, len(label)):
			lr = row + 1
		case free(row-1, lc, len(label)):
			lr = row - 1
		default:
			label = ""
		}

		out = append(out, marker{col: col, row: row, kind: kind, label: label, labelCol: lc, labelRow: lr})
		occupied[row] = append(occupied[row], segment{col, col + 1})
		if label != "" {
			occupied[lr] = append(occupied[lr], segment{lc, lc + len(label)})
		}
	}

	for sensor := 0; sensor < whisper.SensorCount; sensor++ {
		pos, err := scene.Room.SensorPosition(sensor)
		if err != nil {
			continue
		}
		place(pos, markSensor, fmt.Sprintf("M%d", sensor))
	}
	for _, src := range scene.Sources {
		kind := markSource
		switch {
		case scene.Selected != nil && scene.Selected.Source == src.Number:
			kind = markSelected
		case src.Noisy:
			kind = markNoisy
		}
		place(src.Pos, kind, fmt.Sprintf("%d", src.Number))
	}
	return out
}

// sightCells samples the selected sensor/source segment into cell keys.
func sightCells(sel *Selection, vp Viewport) map[[2]int]bool {
	if sel == nil {
		return nil
	}
	c0, r0 := vp.Cell(sel.SensorPos)
	c1, r1 := vp.Cell(sel.SourcePos)
	steps := max(abs(c1-c0), abs(r1-r0))
	cells := make(map[[2]int]bool, steps+1)
	for s := 0; s <= steps; s++ {
		t := 0.0
		if steps > 0 {
			t = float64(s) / float64(steps)
		}
		col := c0 + int(math.Round(t*float64(c1-c0)))
		row := r0 + int(math.Round(t*float64(r1-r0)))
		cells[[2]int{col, row}] = true
	}
	for i := 0; i < sel.Occlusion.Points; i++ {
		col, row := vp.Cell(sel.Occlusion.At[i])
		delete(cells, [2]int{col, row})
	}
	return cells
}

func renderCell(col, row int, vp Viewport, orbitR, obstacleR float64, trail *Trail, markers []marker, sight map[[2]int]bool) string {
	for _, mk := range markers {
		if col == mk.col && row == mk.row {
			return renderMarker(mk.kind)
		}
	}

	cx, cy := vp.CenterX, vp.CenterY
	dist := CellDistance(col, row, cx, cy)
	angle := CellAngle(col, row, cx, cy)

	wallRow := int(math.Round(vp.Radius * config.AspectRatio))
	top, bottom := cy-wallRow, cy+wallRow
	left, right := cx-int(vp.Radius), cx+int(vp.Radius)
	if col < left || col > right || row < top || row > bottom {
		return " "
	}
	if (col == left || col == right) && (row == top || row == bottom) {
		return styleWall.Render("+")
	}
	if col == left || col == right {
		return styleWall.Render("|")
	}
	if row == top || row == bottom {
		return styleWall.Render("-")
	}

	if obstacleR > 0 && dist <= math.Max(obstacleR, 0.5) {
		return styleObstacle.Render("O")
	}
	if sight[[2]int{col, row}] {
		return styleSight.Render(":")
	}
	if col == cx && row == cy {
		return styleCenter.Render("+")
	}
	if math.Abs(dist-orbitR) < 0.8 {
		return renderTrailChar(RingChar(angle), trail, angle)
	}
	if col == cx || row == cy {
		return styleDot.Render(".")
	}
	return " "
}

func renderMarker(kind markerKind) string {
	switch kind {
	case markSensor:
		return styleSensor.Render("#")
	case markNoisy:
		return styleNoisy.Render("!")
	case markSelected:
		return styleCenter.Render("@")
	default:
		return styleSource.Render("*")
	}
}

func styleLabelFor(kind markerKind) lipgloss.Style {
	switch kind {
	case markSensor:
		return styleSensor
	case markNoisy:
		return styleNoisy
	case markSelected:
		return styleCenter
	default:
		return styleLabel
	}
}

func renderTrailChar(ch rune, trail *Trail, angle float64) string {
	color := trailColor(trail.Intensity(angle))
	if color == "" {
		return styleRing.Render(string(ch))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(ch))
}

func trailColor(intensity float64) string {
	if intensity <= 0 {
		return ""
	}
	if intensity > 0.8 {
		return "#00FF41"
	}
	if intensity > 0.5 {
		return "#00CC33"
	}
	if intensity > 0.3 {
		return "#00AA22"
	}
	return "#005511"
}

// RenderLegend produces the room legend line.
func RenderLegend(width int) string {
	legend := "   " +
		styleSensor.Render("# mic") +
		"  " +
		styleSource.Render("* source") +
		"  " +
		styleNoisy.Render("! noisy") +
		"  " +
		styleCenter.Render("@ selected") +
		"  " +
		styleObstacle.Render("O obstacle")

	pad := (width - lipgloss.Width(legend)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + legend
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
