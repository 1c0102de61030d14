package lru

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-guard/internal/guard/domain"
)

func TestDecisionCache_HitMissAndPut(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	d := domain.BlockDecision{Blocked: true, MatchedRule: "linewize.com"}
	_, ok := c.Get("https://linewize.com/")
	assert.False(t, ok)

	c.Put("https://linewize.com/", d)
	got, ok := c.Get("https://linewize.com/")
	require.True(t, ok)
	assert.Equal(t, d, got)

	hits, misses, _ := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestDecisionCache_EvictionCounted(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	c.Put("a", domain.EmptyDecision())
	c.Put("b", domain.EmptyDecision())
	c.Put("c", domain.EmptyDecision())
	assert.Equal(t, 2, c.Len())

	_, _, ev := c.Stats()
	assert.Equal(t, uint64(1), ev)

	_, ok := c.Get("a")
	assert.False(t, ok, "least recently used entry should be gone")
}

func TestDecisionCache_PurgeCountsEvictions(t *testing.T) {
	c, err := New(3)
	require.NoError(t, err)
	c.Put("a", domain.EmptyDecision())
	c.Put("b", domain.EmptyDecision())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	_, _, ev := c.Stats()
	assert.Equal(t, uint64(2), ev)
}

func TestDisabledCache(t *testing.T) {
	for _, size := range []int{0, -1} {
		c, err := New(size)
		require.NoError(t, err)
		c.Put("a", domain.BlockDecision{Blocked: true})
		_, ok := c.Get("a")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
		c.Purge()
		h, m, e := c.Stats()
		assert.Zero(t, h+m+e)
	}
}
