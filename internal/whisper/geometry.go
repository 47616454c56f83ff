package whisper

import "math"

// Occlusion is the result of intersecting a sensor/source segment with the
// obstacle circle centred on the origin. A tangent touch stores the same
// point in both slots.
type Occlusion struct {
	Points int
	At     [2]Point
}

// Intersect finds where the segment from sensor to source crosses a circle
// of radius r at the origin. The source is assumed to be outside the circle,
// which lets the segment test look at a single candidate point.
func Intersect(sensor, source Point, r int64) Occlusion {
	rf := float64(r)

	switch {
	case source.X == sensor.X:
		x := float64(sensor.X)
		s := rf*rf - x*x
		switch {
		case s < 0:
			return Occlusion{}
		case s == 0:
			p := Point{X: sensor.X, Y: 0}
			return Occlusion{Points: 1, At: [2]Point{p, p}}
		}
		y := math.Sqrt(s)
		if !onSegment(sensor, source, x, y) {
			return Occlusion{}
		}
		return Occlusion{Points: 2, At: [2]Point{
			{X: sensor.X, Y: int64(y)},
			{X: sensor.X, Y: int64(-y)},
		}}

	case source.Y == sensor.Y:
		y := float64(sensor.Y)
		s := rf*rf - y*y
		switch {
		case s < 0:
			return Occlusion{}
		case s == 0:
			p := Point{X: 0, Y: sensor.Y}
			return Occlusion{Points: 1, At: [2]Point{p, p}}
		}
		x := math.Sqrt(s)
		if !onSegment(sensor, source, x, y) {
			return Occlusion{}
		}
		return Occlusion{Points: 2, At: [2]Point{
			{X: int64(x), Y: sensor.Y},
			{X: int64(-x), Y: sensor.Y},
		}}
	}

	// y = m*x + c substituted into x² + y² = r².
	m := float64(source.Y-sensor.Y) / float64(source.X-sensor.X)
	c := float64(sensor.Y) - m*float64(sensor.X)
	a := m*m + 1
	b := 2 * m * c
	g := c*c - rf*rf
	disc := b*b - 4*a*g

	switch {
	case disc < 0:
		return Occlusion{}
	case disc == 0:
		x := -b / (2 * a)
		p := Point{X: int64(x), Y: int64(m*x + c)}
		return Occlusion{Points: 1, At: [2]Point{p, p}}
	}

	root := math.Sqrt(disc)
	x1 := (-b + root) / (2 * a)
	x2 := (-b - root) / (2 * a)
	y1 := m*x1 + c
	y2 := m*x2 + c

	if !onSegment(sensor, source, x1, y1) {
		return Occlusion{}
	}
	return Occlusion{Points: 2, At: [2]Point{
		{X: int64(x1), Y: int64(y1)},
		{X: int64(x2), Y: int64(y2)},
	}}
}

// onSegment reports whether the candidate (x, y) on the sensor/source line
// is closer to the sensor than the source is.
func onSegment(sensor, source Point, x, y float64) bool {
	sx, sy := float64(sensor.X), float64(sensor.Y)
	return distance(sx, sy, float64(source.X), float64(source.Y)) > distance(sx, sy, x, y)
}

func distance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(dx*dx + dy*dy)
}

// Angle returns the angle subtended at the origin by the two occlusion
// points, or 0 unless there are exactly two points.
func (o Occlusion) Angle() float64 {
	if o.Points != 2 {
		return 0
	}
	p1, p2 := o.At[0], o.At[1]
	side := distance(float64(p1.X), float64(p1.Y), float64(p2.X), float64(p2.Y))
	b := distance(float64(p2.X), float64(p2.Y), 0, 0)
	c := distance(float64(p1.X), float64(p1.Y), 0, 0)
	if b == 0 || c == 0 {
		return 0
	}

	cos := (b*b + c*c - side*side) / (2 * b * c)
	// truncated coordinates can push the ratio just past ±1
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}
