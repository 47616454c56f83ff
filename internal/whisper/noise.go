package whisper

// NoiseEvent is one scheduled burst of noise. Delay counts from the end of
// the previous burst; the first burst counts from tick 0.
type NoiseEvent struct {
	Delay    int64   `yaml:"delay_ticks"`
	Duration int64   `yaml:"duration_ticks"`
	Factor   float64 `yaml:"factor"`
}

// stepNoise runs the quiet/noisy state machine once. The quiet->noisy check
// runs before the noisy->quiet check, so a zero-length burst starts and ends
// in the same call. Bursts shorter than the tick step can be skipped over.
func (p *Pair) stepNoise() {
	if p.cursor >= len(p.noise) {
		return
	}
	ev := p.noise[p.cursor]

	if !p.noisy && p.elapsed >= p.noiseEnd+ev.Delay {
		p.noisy = true
		p.noiseStart = p.noiseEnd + ev.Delay
	}
	if p.noisy && p.elapsed >= p.noiseStart+ev.Duration {
		p.noisy = false
		p.noiseEnd = p.noiseStart + ev.Duration
		p.cursor++
	}
}

// Noisy reports whether a noise burst is active.
func (p *Pair) Noisy() bool {
	return p.noisy && p.cursor < len(p.noise)
}

// ActiveNoise returns the burst currently in effect, if any.
func (p *Pair) ActiveNoise() (NoiseEvent, bool) {
	if !p.Noisy() {
		return NoiseEvent{}, false
	}
	return p.noise[p.cursor], true
}

// NoiseExhausted reports whether every scheduled burst has been consumed.
func (p *Pair) NoiseExhausted() bool {
	return p.cursor >= len(p.noise)
}
