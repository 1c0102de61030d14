package domain

import "sort"

// PolicySet is the immutable union of all BlockRules in effect.
// There is one per process; it is built once and never mutated.
type PolicySet struct {
	version string
	rules   []BlockRule
	byCat   map[Category][]string
}

// NewPolicySet builds a PolicySet from rules. Invalid rules are dropped and
// duplicates collapse. The stored order is sorted by category then pattern so
// that iteration, and therefore match reporting, is deterministic.
func NewPolicySet(version string, rules []BlockRule) PolicySet {
	seen := make(map[BlockRule]struct{}, len(rules))
	out := make([]BlockRule, 0, len(rules))
	for _, r := range rules {
		if r.Validate() != nil {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Pattern < out[j].Pattern
	})

	byCat := make(map[Category][]string, len(Categories))
	for _, r := range out {
		byCat[r.Category] = append(byCat[r.Category], r.Pattern)
	}
	return PolicySet{version: version, rules: out, byCat: byCat}
}

// EmptyPolicySet returns the set that blocks nothing. Registry failures
// degrade to this value.
func EmptyPolicySet() PolicySet { return PolicySet{} }

// Version returns the denylist version the set was built from.
func (p PolicySet) Version() string { return p.version }

// Len returns the number of distinct rules.
func (p PolicySet) Len() int { return len(p.rules) }

// IsEmpty reports whether the set holds no rules.
func (p PolicySet) IsEmpty() bool { return len(p.rules) == 0 }

// Rules returns a copy of every rule in deterministic order.
func (p PolicySet) Rules() []BlockRule {
	return append([]BlockRule(nil), p.rules...)
}

// Patterns returns a copy of the patterns of the given categories, in
// category order. With no categories it returns every pattern.
func (p PolicySet) Patterns(cats ...Category) []string {
	if len(cats) == 0 {
		cats = Categories
	}
	var out []string
	for _, c := range cats {
		out = append(out, p.byCat[c]...)
	}
	return out
}

// Count returns the number of rules in category c.
func (p PolicySet) Count(c Category) int { return len(p.byCat[c]) }

// Counts returns rule counts keyed by category name.
func (p PolicySet) Counts() map[string]int {
	out := make(map[string]int, len(Categories))
	for _, c := range Categories {
		out[c.String()] = len(p.byCat[c])
	}
	return out
}
