// Package bloom provides the Bloom filters behind the matcher's n-gram
// prefilter.
package bloom

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/rr-guard/internal/guard/repos/matcher"
)

// filter guards a bits-and-blooms filter. Adds are serialized; probes share
// a read lock so concurrent lookups never race a build.
type filter struct {
	mu sync.RWMutex
	bf *bitsbloom.BloomFilter
}

func (f *filter) Add(key []byte) {
	f.mu.Lock()
	f.bf.Add(key)
	f.mu.Unlock()
}

func (f *filter) MightContain(key []byte) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.Test(key)
}

// Params returns the bit count and hash count of the underlying filter.
func (f *filter) Params() (m uint, k uint) {
	return f.bf.Cap(), f.bf.K()
}

var _ matcher.BloomFilter = (*filter)(nil)
