// Package matcher decides whether a URL, origin, host or element marker hits
// the active PolicySet. Decisions run a bloom n-gram prefilter, then an LRU
// decision cache, then an ordered substring scan.
package matcher

import (
	"strings"

	"github.com/haukened/rr-guard/internal/guard/common/utils"
	"github.com/haukened/rr-guard/internal/guard/domain"
)

// FixedSchemes are always blocked, whatever the policy says.
var FixedSchemes = []string{"chrome-extension://", "moz-extension://"}

// Matcher is safe for concurrent use once constructed.
type Matcher struct {
	set        domain.PolicySet
	dest       []domain.BlockRule
	indicators []domain.BlockRule
	destIdx    *ngramIndex
	indIdx     *ngramIndex
	cache      DecisionCache
	capacity   int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithCacheCapacity records the configured cache capacity for Stats.
func WithCacheCapacity(n int) Option {
	return func(m *Matcher) { m.capacity = n }
}

// New constructs a Matcher for set. cache and factory may be nil, which
// disables the cache and the prefilter respectively.
func New(set domain.PolicySet, cache DecisionCache, factory BloomFactory, fpRate float64, opts ...Option) *Matcher {
	m := &Matcher{set: set, cache: cache}
	for _, o := range opts {
		o(m)
	}

	have := make(map[domain.BlockRule]struct{})
	for _, r := range set.Rules() {
		if r.MatchesDestinations() {
			m.dest = append(m.dest, r)
			have[r] = struct{}{}
		} else {
			m.indicators = append(m.indicators, r)
		}
	}
	for _, s := range FixedSchemes {
		r := domain.BlockRule{Pattern: s, Category: domain.CategoryExtensionScheme}
		if _, ok := have[r]; !ok {
			m.dest = append(m.dest, r)
		}
	}

	m.destIdx = newNGramIndex(factory, patternsOf(m.dest), fpRate)
	m.indIdx = newNGramIndex(factory, patternsOf(m.indicators), fpRate)
	return m
}

// IsBlocked reports whether candidate contains any destination pattern.
// Empty and whitespace-only candidates are never blocked.
func (m *Matcher) IsBlocked(candidate string) bool {
	return m.Decide(candidate).Blocked
}

// Decide returns the full decision for candidate. The reported rule is the
// first match in category-then-pattern order.
func (m *Matcher) Decide(candidate string) domain.BlockDecision {
	if utils.IsMalformed(candidate) {
		return domain.EmptyDecision()
	}
	c := utils.CanonicalCandidate(candidate)
	if !m.destIdx.mayMatch(c) {
		return domain.EmptyDecision()
	}
	if m.cache != nil {
		if d, ok := m.cache.Get(c); ok {
			return d
		}
	}
	d := scan(c, m.dest)
	if m.cache != nil {
		m.cache.Put(c, d)
	}
	return d
}

// MatchIndicator tests value against dom-indicator rules and returns the
// indicator that matched.
func (m *Matcher) MatchIndicator(value string) (string, bool) {
	if utils.IsMalformed(value) {
		return "", false
	}
	c := utils.CanonicalCandidate(value)
	if !m.indIdx.mayMatch(c) {
		return "", false
	}
	d := scan(c, m.indicators)
	return d.MatchedRule, d.Blocked
}

// PolicySet returns the set the matcher was built from.
func (m *Matcher) PolicySet() domain.PolicySet { return m.set }

// Indicators returns the dom-indicator patterns in scan order.
func (m *Matcher) Indicators() []string { return patternsOf(m.indicators) }

// Stats returns cache counters and policy metadata.
func (m *Matcher) Stats() Stats {
	st := Stats{
		Version:  m.set.Version(),
		Rules:    len(m.dest) + len(m.indicators),
		Capacity: m.capacity,
	}
	if m.cache != nil {
		st.Size = m.cache.Len()
		st.Hits, st.Misses, st.Evictions = m.cache.Stats()
	}
	return st
}

func scan(c string, rules []domain.BlockRule) domain.BlockDecision {
	for _, r := range rules {
		if strings.Contains(c, r.Pattern) {
			return domain.BlockDecision{Blocked: true, MatchedRule: r.Pattern, Category: r.Category}
		}
	}
	return domain.EmptyDecision()
}

func patternsOf(rules []domain.BlockRule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Pattern)
	}
	return out
}

var (
	_ Decider          = (*Matcher)(nil)
	_ IndicatorMatcher = (*Matcher)(nil)
)
