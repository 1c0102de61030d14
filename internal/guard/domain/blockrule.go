package domain

import (
	"fmt"
	"strings"
)

// Category tags a BlockRule with the kind of value it matches.
//
// domain           - hostname substring (e.g. "linewize.com")
// ip-literal       - IP address substring (e.g. "104.248.215.23")
// dom-indicator    - element marker substring (e.g. "extension-injected")
// extension-scheme - browser extension URI scheme (e.g. "chrome-extension://")
type Category uint8

const (
	CategoryDomain Category = iota
	CategoryIPLiteral
	CategoryDOMIndicator
	CategoryExtensionScheme
)

// Categories lists every supported category in a stable order.
var Categories = []Category{
	CategoryDomain,
	CategoryIPLiteral,
	CategoryDOMIndicator,
	CategoryExtensionScheme,
}

// String returns a stable string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryDomain:
		return "domain"
	case CategoryIPLiteral:
		return "ip-literal"
	case CategoryDOMIndicator:
		return "dom-indicator"
	case CategoryExtensionScheme:
		return "extension-scheme"
	default:
		return fmt.Sprintf("Category(%d)", c)
	}
}

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	return c <= CategoryExtensionScheme
}

// ParseCategory converts a string into a Category (case-insensitive).
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "domain":
		return CategoryDomain, nil
	case "ip-literal", "ip":
		return CategoryIPLiteral, nil
	case "dom-indicator", "indicator":
		return CategoryDOMIndicator, nil
	case "extension-scheme", "scheme":
		return CategoryExtensionScheme, nil
	default:
		return 0, fmt.Errorf("unsupported category: %q", s)
	}
}

// BlockRule is a single denylist pattern. Rules carry no identity beyond
// their pattern and category; two equal rules are the same rule.
type BlockRule struct {
	Pattern  string   // lowercased substring to look for
	Category Category // what kind of value the pattern matches
}

// NewBlockRule constructs a BlockRule and validates its fields.
func NewBlockRule(pattern string, cat Category) (BlockRule, error) {
	r := BlockRule{
		Pattern:  strings.ToLower(strings.TrimSpace(pattern)),
		Category: cat,
	}
	if err := r.Validate(); err != nil {
		return BlockRule{}, err
	}
	return r, nil
}

// Validate checks the BlockRule for required fields and supported values.
func (r BlockRule) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern must not be empty")
	}
	if !r.Category.Valid() {
		return fmt.Errorf("unsupported category: %d", r.Category)
	}
	return nil
}

// MatchesDestinations reports whether the rule applies to URLs, origins and
// hosts (as opposed to DOM indicators).
func (r BlockRule) MatchesDestinations() bool {
	return r.Category != CategoryDOMIndicator
}

// String renders the rule as "category:pattern".
func (r BlockRule) String() string {
	return r.Category.String() + ":" + r.Pattern
}
