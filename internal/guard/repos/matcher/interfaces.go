package matcher

import "github.com/haukened/rr-guard/internal/guard/domain"

// BloomFilter is the minimal interface the matcher needs from a Bloom filter.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds filters sized for n keys at false-positive rate p.
type BloomFactory interface {
	New(n uint64, p float64) BloomFilter
}

// DecisionCache caches decisions by canonical candidate with basic metrics.
type DecisionCache interface {
	Get(candidate string) (domain.BlockDecision, bool)
	Put(candidate string, d domain.BlockDecision)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}

// Decider is the read side consumed by interceptors.
type Decider interface {
	IsBlocked(candidate string) bool
	Decide(candidate string) domain.BlockDecision
}

// IndicatorMatcher tests element markers against dom-indicator rules.
type IndicatorMatcher interface {
	MatchIndicator(value string) (indicator string, ok bool)
}
