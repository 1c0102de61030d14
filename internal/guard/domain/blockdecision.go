package domain

// BlockDecision represents the outcome of evaluating a candidate against the policy.
// Pure value type, no external dependencies.
type BlockDecision struct {
	Blocked     bool     // true if any rule matched
	MatchedRule string   // the pattern that matched
	Category    Category // category of the matched rule
}

// IsBlocked is a convenience accessor.
func (d BlockDecision) IsBlocked() bool { return d.Blocked }

// EmptyDecision returns a not-blocked decision.
func EmptyDecision() BlockDecision { return BlockDecision{} }
