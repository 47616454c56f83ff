package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Eight-way glyphs indexed by compass sector, N first, clockwise.
var (
	dialGlyphs  = [8]byte{'-', '\\', '|', '/', '-', '\\', '|', '/'}
	shaftGlyphs = [8]byte{'|', '\\', '-', '/', '|', '\\', '-', '/'}
	tipGlyphs   = [8]byte{'^', '/', '>', '\\', 'v', '/', '<', '\\'}
)

// compass is a character canvas with a marker layer for the arrow.
type compass struct {
	w, h   int
	cells  [][]byte
	arrow  [][]bool
	cx, cy float64 // centre, in cells
	rx, ry float64 // dial radii, in columns and rows
}

func newCompass(width, height int) *compass {
	c := &compass{
		w:  width,
		h:  height,
		cx: float64(width) / 2,
		cy: float64(height) / 2,
	}
	c.rx = math.Max(c.cx-2, 3)
	c.ry = math.Max(c.cy-2, 2)
	c.cells = make([][]byte, height)
	c.arrow = make([][]bool, height)
	for r := range c.cells {
		c.cells[r] = []byte(strings.Repeat(" ", width))
		c.arrow[r] = make([]bool, width)
	}
	return c
}

func (c *compass) set(col, row int, ch byte, arrow bool) {
	if col < 0 || col >= c.w || row < 0 || row >= c.h {
		return
	}
	c.cells[row][col] = ch
	c.arrow[row][col] = arrow
}

func (c *compass) blank(col, row int) bool {
	return col >= 0 && col < c.w && row >= 0 && row < c.h && c.cells[row][col] == ' '
}

// point returns the cell at heading a, fraction t of the dial radius out.
func (c *compass) point(a, t float64) (col, row int) {
	return int(math.Round(c.cx + t*c.rx*math.Sin(a))),
		int(math.Round(c.cy - t*c.ry*math.Cos(a)))
}

func (c *compass) drawDial() {
	const steps = 80
	for i := 0; i < steps; i++ {
		a := float64(i) * 2 * math.Pi / steps
		if col, row := c.point(a, 1); c.blank(col, row) {
			c.cells[row][col] = dialGlyphs[sector(a)]
		}
	}

	col, row := int(math.Round(c.cx)), int(math.Round(c.cy))
	dx, dy := int(math.Round(c.rx)), int(math.Round(c.ry))
	c.set(col, row-dy-1, 'N', false)
	c.set(col, row+dy+1, 'S', false)
	c.set(col+dx+1, row, 'E', false)
	c.set(col-dx-1, row, 'W', false)

	for r := row - int(c.ry) + 1; r < row+int(c.ry); r++ {
		if r != row && c.blank(col, r) {
			c.cells[r][col] = ':'
		}
	}
	for cc := col - int(c.rx) + 1; cc < col+int(c.rx); cc++ {
		if cc != col && c.blank(cc, row) {
			c.cells[row][cc] = '.'
		}
	}
	c.set(col, row, '+', false)
}

// drawArrow draws a shaft of length frac (of the dial radius) toward
// heading a, with a tip and two short wings.
func (c *compass) drawArrow(a, frac float64) {
	steps := max(int(math.Max(c.rx, c.ry)*frac), 2)

	tipCol, tipRow := -1, -1
	for s := 1; s <= steps; s++ {
		col, row := c.point(a, float64(s)/float64(steps)*frac)
		if col >= 0 && col < c.w && row >= 0 && row < c.h {
			c.set(col, row, shaftGlyphs[sector(a)], true)
			tipCol, tipRow = col, row
		}
	}
	if tipCol < 0 {
		return
	}
	c.set(tipCol, tipRow, tipGlyphs[sector(a)], true)

	for _, wing := range []float64{a - 0.8*math.Pi, a + 0.8*math.Pi} {
		for w := 1; w <= 2; w++ {
			t := 0.8 * float64(w) / float64(steps)
			col := int(math.Round(float64(tipCol) + t*c.rx*math.Sin(wing)))
			row := int(math.Round(float64(tipRow) - t*c.ry*math.Cos(wing)))
			c.set(col, row, shaftGlyphs[sector(wing)], true)
		}
	}
}

func (c *compass) render(arrowColor lipgloss.Color) string {
	arrowSty := lipgloss.NewStyle().Foreground(arrowColor).Bold(true)
	dialSty := lipgloss.NewStyle().Foreground(ColorDimGreen)
	axisSty := lipgloss.NewStyle().Foreground(lipgloss.Color("#003300"))
	markSty := lipgloss.NewStyle().Foreground(ColorMatrixGreen).Bold(true)

	var sb strings.Builder
	for row := 0; row < c.h; row++ {
		for col := 0; col < c.w; col++ {
			ch := c.cells[row][col]
			switch {
			case c.arrow[row][col]:
				sb.WriteString(arrowSty.Render(string(ch)))
			case strings.IndexByte("NSEW+", ch) >= 0:
				sb.WriteString(markSty.Render(string(ch)))
			case ch == ':' || ch == '.':
				sb.WriteString(axisSty.Render(string(ch)))
			case ch != ' ':
				sb.WriteString(dialSty.Render(string(ch)))
			default:
				sb.WriteByte(' ')
			}
		}
		if row < c.h-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// RenderCompass draws a dial with an arrow pointing from a microphone toward
// its source. heading is in radians, 0 = north, clockwise. nearness runs from
// 0 for the farthest possible source to 1 for the closest and sets the arrow
// length and shade; a noisy source turns the arrow amber.
func RenderCompass(width, height int, heading, nearness float64, noisy bool) string {
	if width < 9 || height < 5 {
		return ""
	}

	nearness = math.Max(0, math.Min(1, nearness))
	c := newCompass(width, height)
	c.drawDial()
	c.drawArrow(heading, 0.3+0.55*nearness)

	col := lipgloss.Color(proximityColor(nearness))
	if noisy {
		col = ColorNoisy
	}
	return c.render(col)
}

// sector maps a heading to one of eight 45 degree sectors, 0 = north.
func sector(a float64) int {
	return int(math.Round(normalize(a)/(math.Pi/4))) % 8
}

// proximityColor maps nearness in [0, 1] to a green shade (brighter = closer).
func proximityColor(nearness float64) string {
	switch {
	case nearness > 0.8:
		return "#00FF41"
	case nearness > 0.6:
		return "#00CC33"
	case nearness > 0.4:
		return "#00AA22"
	case nearness > 0.2:
		return "#008F11"
	}
	return "#005511"
}

// Heading converts a room bearing (0 = east, counter-clockwise) to a compass
// heading (0 = north, clockwise).
func Heading(bearing float64) float64 {
	return normalize(math.Pi/2 - bearing)
}

func normalize(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
