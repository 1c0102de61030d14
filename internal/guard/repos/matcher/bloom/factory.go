package bloom

import (
	"math"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-guard/internal/guard/repos/matcher"
)

// DefaultFPRate is used when the requested rate is outside (0, 1).
const DefaultFPRate = 0.01

type factory struct{}

// NewFactory returns a BloomFactory that sizes filters from capacity and FP rate.
func NewFactory() matcher.BloomFactory { return factory{} }

func (factory) New(n uint64, p float64) matcher.BloomFilter {
	m, k := Size(n, p)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}

// Size computes filter parameters using the standard formulas:
//
//	m = - (n * ln p) / (ln 2)^2
//	k = (m / n) * ln 2
//
// Both results are at least 1.
func Size(n uint64, p float64) (m uint64, k uint8) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = DefaultFPRate
	}
	m = uint64(math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)))
	if m == 0 {
		m = 1
	}
	k = uint8(math.Max(1, math.Round((float64(m)/float64(n))*math.Ln2)))
	return m, k
}
