package app

// History is a circular buffer of a pair's recent operation counts.
type History struct {
	buf   []float64
	pos   int
	count int
}

// NewHistory creates a buffer holding up to capacity values.
func NewHistory(capacity int) *History {
	return &History{
		buf: make([]float64, max(capacity, 1)),
	}
}

// Push adds a value, dropping the oldest once full.
func (h *History) Push(val float64) {
	h.buf[h.pos] = val
	h.pos = (h.pos + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
}

// Values returns all stored values, oldest first.
func (h *History) Values() []float64 {
	if h.count == 0 {
		return nil
	}
	result := make([]float64, h.count)
	if h.count < len(h.buf) {
		copy(result, h.buf[:h.count])
	} else {
		n := copy(result, h.buf[h.pos:])
		copy(result[n:], h.buf[:h.pos])
	}
	return result
}

// Last returns the most recent value, or 0 if empty.
func (h *History) Last() float64 {
	if h.count == 0 {
		return 0
	}
	return h.buf[(h.pos-1+len(h.buf))%len(h.buf)]
}

// Len returns the number of stored values.
func (h *History) Len() int {
	return h.count
}
