package harness

import "math/rand"

// Table sizes are coprime so the two indexes drift against each other.
const (
	tableA = 101
	tableB = 103
)

// Burner spends CPU in proportion to a job's operation count.
type Burner struct {
	a [tableA]float64
	b [tableB]float64
}

// NewBurner fills the burner's tables from seed: a in [0, 1), b in [-1, 1).
func NewBurner(seed int64) *Burner {
	rng := rand.New(rand.NewSource(seed))
	var br Burner
	for i := range br.a {
		br.a[i] = float64(rng.Intn(5000)) / 5000
	}
	for i := range br.b {
		br.b[i] = float64(rng.Intn(5000))/2500 - 1
	}
	return &br
}

// Burn performs n multiply-adds and returns their sum. Both table indexes
// start from zero on every call.
func (br *Burner) Burn(n int) float64 {
	var total float64
	i, j := 0, 0
	for k := 0; k < n; k++ {
		if i >= tableA {
			i = 0
		}
		if j >= tableB {
			j = 0
		}
		total += br.a[i] * br.b[j]
		i++
		j++
	}
	return total
}
