package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRule(t *testing.T, p string, c Category) BlockRule {
	t.Helper()
	r, err := NewBlockRule(p, c)
	require.NoError(t, err)
	return r
}

func TestNewPolicySet_DedupAndOrder(t *testing.T) {
	rules := []BlockRule{
		mustRule(t, "xirsys.com", CategoryDomain),
		mustRule(t, "classwize", CategoryDOMIndicator),
		mustRule(t, "ably.io", CategoryDomain),
		mustRule(t, "Ably.io", CategoryDomain),
		mustRule(t, "45.55.60.16", CategoryIPLiteral),
		{Pattern: "", Category: CategoryDomain},
	}

	ps := NewPolicySet("2025-12-20", rules)

	assert.Equal(t, "2025-12-20", ps.Version())
	assert.Equal(t, 4, ps.Len())
	assert.False(t, ps.IsEmpty())
	assert.Equal(t, []string{"ably.io", "xirsys.com"}, ps.Patterns(CategoryDomain))
	assert.Equal(t, []string{"ably.io", "xirsys.com", "45.55.60.16"}, ps.Patterns(CategoryDomain, CategoryIPLiteral))
	assert.Equal(t, 1, ps.Count(CategoryDOMIndicator))
	assert.Equal(t, 0, ps.Count(CategoryExtensionScheme))
	assert.Equal(t, map[string]int{
		"domain":           2,
		"ip-literal":       1,
		"dom-indicator":    1,
		"extension-scheme": 0,
	}, ps.Counts())
}

func TestPolicySet_AccessorsReturnCopies(t *testing.T) {
	ps := NewPolicySet("v1", []BlockRule{mustRule(t, "qoria.cloud", CategoryDomain)})

	rules := ps.Rules()
	rules[0].Pattern = "mutated"
	pats := ps.Patterns()
	pats[0] = "mutated"

	assert.Equal(t, "qoria.cloud", ps.Rules()[0].Pattern)
	assert.Equal(t, []string{"qoria.cloud"}, ps.Patterns())
}

func TestEmptyPolicySet(t *testing.T) {
	ps := EmptyPolicySet()
	assert.True(t, ps.IsEmpty())
	assert.Equal(t, 0, ps.Len())
	assert.Empty(t, ps.Patterns())
	assert.Equal(t, "", ps.Version())
}

func TestEmptyDecision(t *testing.T) {
	d := EmptyDecision()
	assert.False(t, d.IsBlocked())
	assert.Empty(t, d.MatchedRule)
}
