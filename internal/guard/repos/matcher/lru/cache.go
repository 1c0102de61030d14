// Package lru implements the matcher's decision cache on hashicorp's LRU.
package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-guard/internal/guard/domain"
	"github.com/haukened/rr-guard/internal/guard/repos/matcher"
)

// decisionCache keys decisions by canonical candidate and counts hits,
// misses and evictions.
type decisionCache struct {
	lru       *lru.Cache[string, domain.BlockDecision]
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a DecisionCache holding up to size decisions. size <= 0
// returns a cache that never stores anything.
func New(size int) (matcher.DecisionCache, error) {
	if size <= 0 {
		return disabled{}, nil
	}
	dc := &decisionCache{}
	cache, err := lru.NewWithEvict(size, func(string, domain.BlockDecision) {
		dc.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	dc.lru = cache
	return dc, nil
}

func (c *decisionCache) Get(candidate string) (domain.BlockDecision, bool) {
	d, ok := c.lru.Get(candidate)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return d, ok
}

func (c *decisionCache) Put(candidate string, d domain.BlockDecision) {
	c.lru.Add(candidate, d)
}

func (c *decisionCache) Len() int { return c.lru.Len() }

// Purge clears all entries; each counts as an eviction.
func (c *decisionCache) Purge() { c.lru.Purge() }

func (c *decisionCache) Stats() (hits, misses, evictions uint64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}

type disabled struct{}

func (disabled) Get(string) (domain.BlockDecision, bool) { return domain.EmptyDecision(), false }
func (disabled) Put(string, domain.BlockDecision)        {}
func (disabled) Len() int                                { return 0 }
func (disabled) Purge()                                  {}
func (disabled) Stats() (uint64, uint64, uint64)         { return 0, 0, 0 }

var (
	_ matcher.DecisionCache = (*decisionCache)(nil)
	_ matcher.DecisionCache = disabled{}
)
