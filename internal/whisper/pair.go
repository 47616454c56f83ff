package whisper

import (
	"fmt"
	"math"
)

// Point is a position in room units. Source positions are derived from the
// pair's angle and truncated toward zero.
type Point struct {
	X, Y int64
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Pair is one microphone/source relationship with its own motion and noise
// cursor. A Pair is not safe for concurrent use.
type Pair struct {
	cfg   *Config
	noise []NoiseEvent

	index  int
	sensor int
	source int

	sensorPos Point

	// The angle is the only record of where the source is.
	initAngle float64
	angle     float64

	radius       int64
	speedPerTick int64
	elapsed      int64

	cursor     int
	noisy      bool
	noiseStart int64
	noiseEnd   int64
}

func newPair(cfg *Config, noise []NoiseEvent, sensor, source int) *Pair {
	start := 2 * math.Pi * float64(source) / float64(cfg.Sources)
	unitsPerSecond := cfg.SpeedMetersPerSecond * float64(cfg.UnitsPerMeter)

	return &Pair{
		cfg:          cfg,
		noise:        noise,
		index:        sensor*cfg.Sources + source,
		sensor:       sensor,
		source:       source,
		sensorPos:    cfg.sensorPosition(sensor),
		initAngle:    start,
		angle:        start,
		radius:       cfg.OrbitRadius,
		speedPerTick: int64(unitsPerSecond / float64(cfg.TicksPerSecond)),
		noiseStart:   -1,
		noiseEnd:     0,
	}
}

// Advance moves the source along its orbit by ticks and updates the noise
// state. The angle is never wrapped. Negative ticks panic.
func (p *Pair) Advance(ticks int64) {
	if ticks < 0 {
		panic(fmt.Sprintf("whisper: negative tick count %d", ticks))
	}
	p.elapsed += ticks

	arc := ticks * p.speedPerTick
	fraction := float64(arc) / (2 * math.Pi * float64(p.radius))
	p.angle += 2 * math.Pi * fraction

	p.stepNoise()
}

// Step advances by ticks and returns the operation count for the new state.
func (p *Pair) Step(ticks int64) int {
	p.Advance(ticks)
	return p.OperationCount()
}

func (p *Pair) Index() int { return p.index }
func (p *Pair) Sensor() int { return p.sensor }
func (p *Pair) Source() int { return p.source }
func (p *Pair) Elapsed() int64 { return p.elapsed }
func (p *Pair) Angle() float64 { return p.angle }
func (p *Pair) InitialAngle() float64 { return p.initAngle }
func (p *Pair) SpeedPerTick() int64 { return p.speedPerTick }
func (p *Pair) SensorPosition() Point { return p.sensorPos }

// SourcePosition derives the source's coordinates from its angle.
func (p *Pair) SourcePosition() Point {
	r := float64(p.radius)
	return Point{
		X: int64(math.Cos(p.angle) * r),
		Y: int64(math.Sin(p.angle) * r),
	}
}

// DistanceMeters is the straight-line sensor to source distance.
func (p *Pair) DistanceMeters() float64 {
	src := p.SourcePosition()
	dx := float64(src.X - p.sensorPos.X)
	dy := float64(src.Y - p.sensorPos.Y)
	return math.Sqrt(dx*dx+dy*dy) / float64(p.cfg.UnitsPerMeter)
}

// Occlusion intersects the sensor/source segment with the obstacle. It
// returns no points when the room has no obstacle.
func (p *Pair) Occlusion() Occlusion {
	if !p.cfg.Occluding {
		return Occlusion{}
	}
	return Intersect(p.sensorPos, p.SourcePosition(), p.cfg.ObstacleRadius)
}

// State is a read-only snapshot of a pair, for display and records.
type State struct {
	Index     int
	Sensor    int
	Source    int
	Tick      int64
	Angle     float64
	SensorPos Point
	SourcePos Point
	Distance  float64
	Occlusion Occlusion
	Noisy     bool
	Factor    float64
}

// State snapshots the pair without changing it.
func (p *Pair) State() State {
	st := State{
		Index:     p.index,
		Sensor:    p.sensor,
		Source:    p.source,
		Tick:      p.elapsed,
		Angle:     p.angle,
		SensorPos: p.sensorPos,
		SourcePos: p.SourcePosition(),
		Distance:  p.DistanceMeters(),
		Occlusion: p.Occlusion(),
		Factor:    1,
	}
	if ev, ok := p.ActiveNoise(); ok {
		st.Noisy = true
		st.Factor = ev.Factor
	}
	return st
}
