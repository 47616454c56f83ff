package radar

import (
	"math"

	"whisper-load.klederson.com/internal/config"
	"whisper-load.klederson.com/internal/whisper"
)

// CellDistance computes the distance from a cell to the view center,
// accounting for terminal aspect ratio.
func CellDistance(col, row, centerX, centerY int) float64 {
	dx := float64(col - centerX)
	dy := float64(row-centerY) / config.AspectRatio
	return math.Sqrt(dx*dx + dy*dy)
}

// CellAngle computes the angle from center to a cell in room terms.
// Returns radians in [0, 2π), where 0=east, increasing counter-clockwise.
func CellAngle(col, row, centerX, centerY int) float64 {
	dx := float64(col - centerX)
	dy := float64(row-centerY) / config.AspectRatio
	return NormalizeAngle(math.Atan2(-dy, dx))
}

// RingChar returns the character tangent to a circle at the given angle.
func RingChar(angle float64) rune {
	sector := int(math.Round(NormalizeAngle(angle)/(math.Pi/4))) % 8

	switch sector {
	case 0, 4: // East, West
		return '|'
	case 1, 5: // NE, SW
		return '\\'
	case 2, 6: // North, South
		return '-'
	case 3, 7: // NW, SE
		return '/'
	default:
		return '.'
	}
}

// NormalizeAngle wraps an angle to [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff returns the shortest angular distance between two angles.
// Result is in [0, π].
func AngleDiff(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// Bearing is the room angle of the direction from one point to another.
func Bearing(from, to whisper.Point) float64 {
	return NormalizeAngle(math.Atan2(float64(to.Y-from.Y), float64(to.X-from.X)))
}

// Viewport maps room units onto terminal cells. The room is centred and
// HalfSide room units span Radius columns.
type Viewport struct {
	CenterX, CenterY int
	Radius           float64
	HalfSide         float64
}

// NewViewport fits a square room of side roomSide into width x height cells.
func NewViewport(width, height int, roomSide int64) Viewport {
	centerX := width / 2
	centerY := height / 2
	radius := float64(min(centerX-1, int(float64(centerY-1)/config.AspectRatio)))
	if radius < 3 {
		radius = 3
	}
	half := float64(roomSide) / 2
	if half <= 0 {
		half = 1
	}
	return Viewport{CenterX: centerX, CenterY: centerY, Radius: radius, HalfSide: half}
}

// Scale converts a room length to a length in columns.
func (v Viewport) Scale(units float64) float64 {
	return units / v.HalfSide * v.Radius
}

// Cell returns the cell a room point falls in.
func (v Viewport) Cell(p whisper.Point) (col, row int) {
	col = v.CenterX + int(math.Round(v.Scale(float64(p.X))))
	row = v.CenterY - int(math.Round(v.Scale(float64(p.Y))*config.AspectRatio))
	return col, row
}
