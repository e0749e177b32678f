// Package metrics produces the privacy indicators written to each
// anonymization report.
//
// The Placeholder estimator returns illustrative values only. It does not
// compute k-anonymity or any related measure over a dataset; it reports zeros
// when nothing was redacted and bounded random values otherwise.
package metrics

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Indicator names, in report order.
const (
	KAnonymity      = "k-Anonymity"
	LDiversity      = "l-Diversity"
	TCloseness      = "t-Closeness"
	DeltaDisclosure = "δ-Disclosure Privacy"
)

// Metric is one named indicator.
type Metric struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Integer bool    `json:"integer"`
}

// String formats the value as an integer or with four decimals.
func (m Metric) String() string {
	if m.Integer {
		return fmt.Sprintf("%d", int(m.Value))
	}
	return fmt.Sprintf("%.4f", m.Value)
}

// Metrics is the fixed-order indicator set for one image.
type Metrics []Metric

// Get returns the value of the named indicator.
func (ms Metrics) Get(name string) (float64, bool) {
	for _, m := range ms {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

// Zero returns the indicator set with every value at zero.
func Zero() Metrics {
	return Metrics{
		{Name: KAnonymity, Integer: true},
		{Name: LDiversity, Integer: true},
		{Name: TCloseness},
		{Name: DeltaDisclosure},
	}
}

// Estimator turns detector presence flags into a fresh indicator set.
// Implementations must be safe for concurrent use.
type Estimator interface {
	Estimate(textFound, objectFound bool) Metrics
}

// Placeholder is an Estimator that draws illustrative values:
//
//   - k-Anonymity: integer in [3, 10)
//   - l-Diversity: integer in [2, 5)
//   - t-Closeness: real in [0.1, 0.5)
//   - δ-Disclosure Privacy: real in [0.01, 0.2)
//
// when either flag is set, and all zeros otherwise.
type Placeholder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPlaceholder creates a Placeholder estimator. A zero seed seeds from the clock.
func NewPlaceholder(seed uint64) *Placeholder {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Placeholder{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Estimate returns a new indicator set for one image.
func (p *Placeholder) Estimate(textFound, objectFound bool) Metrics {
	ms := Zero()
	if !textFound && !objectFound {
		return ms
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ms[0].Value = float64(3 + p.rng.IntN(7))
	ms[1].Value = float64(2 + p.rng.IntN(3))
	ms[2].Value = uniform(p.rng, 0.1, 0.5)
	ms[3].Value = uniform(p.rng, 0.01, 0.2)
	return ms
}

// uniform returns a value in [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	v := lo + (hi-lo)*rng.Float64()
	if v >= hi {
		// Rounding can land exactly on hi
		return lo
	}
	return v
}
