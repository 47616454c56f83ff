package whisper

import "errors"

var (
	// ErrSensorCount is returned when the room is configured with anything
	// other than the four corner sensors.
	ErrSensorCount = errors.New("whisper: only 4 sensors are supported")

	// ErrObstacleTooLarge is returned when the occluding obstacle would not
	// fit inside the orbit the sources travel on.
	ErrObstacleTooLarge = errors.New("whisper: obstacle radius exceeds orbit radius")

	// ErrInvalidConfig covers non-positive conversion factors, counts and radii.
	ErrInvalidConfig = errors.New("whisper: invalid room configuration")

	// ErrPairIndex is returned for a pair index outside [0, sources*sensors).
	ErrPairIndex = errors.New("whisper: pair index out of range")

	// ErrRoomSealed is returned by AddNoise once the first pair exists.
	ErrRoomSealed = errors.New("whisper: noise schedule is frozen once pairs exist")

	// ErrNoiseEvent is returned for a negative delay/duration or a
	// non-positive multiplier.
	ErrNoiseEvent = errors.New("whisper: invalid noise event")
)
