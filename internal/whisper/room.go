// Package whisper simulates a room of moving sound sources and fixed corner
// microphones and turns the current geometry into a per-job operation count.
//
// A Room is configured once, noise bursts are registered on it, and then
// pairs are cut from it by index. Each Pair owns its own motion and noise
// cursor and is meant to be driven by exactly one goroutine. The room's
// configuration and noise schedule are read-only once the first pair exists,
// so any number of pairs can read them concurrently.
package whisper

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SensorCount is the only supported number of microphones: one per corner.
const SensorCount = 4

// Config holds the room geometry, unit conversions and cost constants.
// Lengths are in abstract room units; UnitsPerMeter converts them to meters.
type Config struct {
	Alpha float64 `yaml:"alpha"` // distance scale, applied before squaring
	Beta  float64 `yaml:"beta"`  // cost scale, applied after squaring

	Sources int `yaml:"sources"`
	Sensors int `yaml:"sensors"`

	Occluding      bool  `yaml:"occluding"`
	ObstacleRadius int64 `yaml:"obstacle_radius"`

	// RoomSide is the side of the square room. Sensors sit on its corners,
	// at (±RoomSide/2, ±RoomSide/2).
	RoomSide int64 `yaml:"room_side"`
	// OrbitRadius is the radius of the circle the sources travel on.
	OrbitRadius int64 `yaml:"orbit_radius"`

	SpeedMetersPerSecond float64 `yaml:"speed_mps"`
	UnitsPerMeter        int64   `yaml:"units_per_meter"`
	TicksPerSecond       int64   `yaml:"ticks_per_second"`
}

// DefaultConfig returns the values a room takes when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Alpha: 4,
		Beta:  1.2,

		Sources: 8,
		Sensors: SensorCount,

		Occluding:      true,
		ObstacleRadius: 250,

		RoomSide:    2000000,
		OrbitRadius: 800000,

		SpeedMetersPerSecond: 0.02,
		UnitsPerMeter:        100000,
		TicksPerSecond:       100,
	}
}

// Pairs returns the number of sensor/source pairs the config describes.
func (c Config) Pairs() int {
	return c.Sources * c.Sensors
}

// Room is a validated, write-once simulation configuration plus the shared
// noise schedule.
type Room struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	noise  []NoiseEvent
	sealed bool
}

// Option configures a Room.
type Option func(*Room)

// WithLogger sets the logger used for configuration warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Room) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRoom validates cfg and returns a room ready to accept noise events.
// A room side shorter than the orbit diameter is corrected with a warning.
func NewRoom(cfg Config, opts ...Option) (*Room, error) {
	r := &Room{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}

	if cfg.Sensors != SensorCount {
		return nil, fmt.Errorf("%w: got %d", ErrSensorCount, cfg.Sensors)
	}
	if cfg.ObstacleRadius > cfg.OrbitRadius {
		return nil, fmt.Errorf("%w: obstacle %d > orbit %d", ErrObstacleTooLarge, cfg.ObstacleRadius, cfg.OrbitRadius)
	}
	switch {
	case cfg.Sources <= 0:
		return nil, fmt.Errorf("%w: sources must be positive, got %d", ErrInvalidConfig, cfg.Sources)
	case cfg.OrbitRadius <= 0:
		return nil, fmt.Errorf("%w: orbit radius must be positive, got %d", ErrInvalidConfig, cfg.OrbitRadius)
	case cfg.ObstacleRadius < 0:
		return nil, fmt.Errorf("%w: obstacle radius is negative", ErrInvalidConfig)
	case cfg.UnitsPerMeter <= 0:
		return nil, fmt.Errorf("%w: units per meter must be positive, got %d", ErrInvalidConfig, cfg.UnitsPerMeter)
	case cfg.TicksPerSecond <= 0:
		return nil, fmt.Errorf("%w: ticks per second must be positive, got %d", ErrInvalidConfig, cfg.TicksPerSecond)
	case cfg.SpeedMetersPerSecond < 0:
		return nil, fmt.Errorf("%w: speed is negative", ErrInvalidConfig)
	case cfg.Alpha < 0 || cfg.Beta < 0:
		return nil, fmt.Errorf("%w: alpha and beta must not be negative", ErrInvalidConfig)
	}

	if cfg.RoomSide < 2*cfg.OrbitRadius {
		r.logger.Warn("room side smaller than orbit diameter, widening room",
			"room_side", cfg.RoomSide, "orbit_radius", cfg.OrbitRadius, "corrected", 2*cfg.OrbitRadius)
		cfg.RoomSide = 2 * cfg.OrbitRadius
	}

	r.cfg = cfg
	return r, nil
}

// Config returns a copy of the room's validated configuration.
func (r *Room) Config() Config {
	return r.cfg
}

// Pairs returns the number of pairs the room can produce.
func (r *Room) Pairs() int {
	return r.cfg.Pairs()
}

// AddNoise appends a noise burst that starts startAfter the end of the
// previous burst (or the start of the simulation) and lasts duration.
// Times are converted to ticks with truncation.
func (r *Room) AddNoise(startAfter, duration time.Duration, factor float64) error {
	tps := float64(r.cfg.TicksPerSecond)
	return r.AddNoiseEvent(NoiseEvent{
		Delay:    int64(startAfter.Seconds() * tps),
		Duration: int64(duration.Seconds() * tps),
		Factor:   factor,
	})
}

// AddNoiseEvent appends an event already expressed in ticks.
func (r *Room) AddNoiseEvent(ev NoiseEvent) error {
	if ev.Delay < 0 || ev.Duration < 0 || ev.Factor <= 0 {
		return fmt.Errorf("%w: delay=%d duration=%d factor=%g", ErrNoiseEvent, ev.Delay, ev.Duration, ev.Factor)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return ErrRoomSealed
	}
	r.noise = append(r.noise, ev)
	return nil
}

// Noise returns a copy of the registered noise schedule.
func (r *Room) Noise() []NoiseEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NoiseEvent, len(r.noise))
	copy(out, r.noise)
	return out
}

// seal freezes the noise schedule and returns it. The returned slice is never
// appended to again.
func (r *Room) seal() []NoiseEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sealed {
		r.sealed = true
		if len(r.noise) == 0 {
			r.logger.Info("no noise events registered; pairs will stay quiet")
		}
	}
	return r.noise[:len(r.noise):len(r.noise)]
}

// Pair builds the pair for a flat index in [0, sources*4). The sensor is
// index / sources and the source is index % sources.
func (r *Room) Pair(index int) (*Pair, error) {
	if index < 0 || index >= r.Pairs() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrPairIndex, index, r.Pairs())
	}
	return r.PairAt(index/r.cfg.Sources, index%r.cfg.Sources)
}

// PairAt builds the pair for an explicit sensor and source number.
func (r *Room) PairAt(sensor, source int) (*Pair, error) {
	if sensor < 0 || sensor >= SensorCount || source < 0 || source >= r.cfg.Sources {
		return nil, fmt.Errorf("%w: sensor %d source %d", ErrPairIndex, sensor, source)
	}
	r.logger.Debug("constructing pair", "sensor", sensor, "source", source)
	return newPair(&r.cfg, r.seal(), sensor, source), nil
}

// SensorPosition returns the corner a sensor number sits on.
func (c Config) SensorPosition(sensor int) (Point, error) {
	if sensor < 0 || sensor >= SensorCount {
		return Point{}, fmt.Errorf("%w: sensor %d not in [0, %d)", ErrPairIndex, sensor, SensorCount)
	}
	return c.sensorPosition(sensor), nil
}

// sensorPosition is SensorPosition for a sensor number already checked.
func (c Config) sensorPosition(sensor int) Point {
	half := c.RoomSide / 2
	corner := corners[sensor]
	return Point{X: corner.X * half, Y: corner.Y * half}
}

// corners maps sensor numbers to quadrant signs: upper right, upper left,
// lower left, lower right.
var corners = [SensorCount]Point{
	{X: 1, Y: 1},
	{X: -1, Y: 1},
	{X: -1, Y: -1},
	{X: 1, Y: -1},
}
