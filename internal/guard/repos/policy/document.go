package policy

import (
	"github.com/go-playground/validator/v10"

	"github.com/haukened/rr-guard/internal/guard/domain"
)

// Document is the structured denylist format shared by the YAML, JSON and
// TOML sources and by the embedded default.
type Document struct {
	Version          string   `koanf:"version" validate:"required"`
	Domains          []string `koanf:"domains" validate:"dive,fqdn"`
	IPLiterals       []string `koanf:"ip_literals" validate:"dive,ip"`
	DOMIndicators    []string `koanf:"dom_indicators" validate:"dive,required"`
	ExtensionSchemes []string `koanf:"extension_schemes" validate:"dive,endswith=://"`
}

// Validate checks every entry of the document. One bad entry rejects the
// whole document.
func (d Document) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(d)
}

// Rules flattens the document into BlockRules. Entries that fail rule
// construction are skipped; Validate has normally rejected them already.
func (d Document) Rules() []domain.BlockRule {
	out := make([]domain.BlockRule, 0, len(d.Domains)+len(d.IPLiterals)+len(d.DOMIndicators)+len(d.ExtensionSchemes))
	add := func(values []string, cat domain.Category) {
		for _, v := range values {
			if r, err := domain.NewBlockRule(v, cat); err == nil {
				out = append(out, r)
			}
		}
	}
	add(d.Domains, domain.CategoryDomain)
	add(d.IPLiterals, domain.CategoryIPLiteral)
	add(d.DOMIndicators, domain.CategoryDOMIndicator)
	add(d.ExtensionSchemes, domain.CategoryExtensionScheme)
	return out
}

// PolicySet builds the immutable set described by the document.
func (d Document) PolicySet() domain.PolicySet {
	return domain.NewPolicySet(d.Version, d.Rules())
}
