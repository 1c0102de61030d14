package parsers

import (
	"net"
	"strings"
	"unicode"

	"github.com/haukened/rr-guard/internal/guard/common/utils"
	"github.com/haukened/rr-guard/internal/guard/domain"
)

// splitCategory separates an explicit "category:" prefix from a raw entry.
// Entries without a recognized prefix are returned unchanged with ok=false.
// "chrome-extension://" is not mistaken for a prefix because
// "chrome-extension" is not a category name.
func splitCategory(raw string) (domain.Category, string, bool) {
	idx := strings.IndexByte(raw, ':')
	if idx <= 0 {
		return 0, raw, false
	}
	if strings.HasPrefix(raw[idx:], "://") {
		return 0, raw, false
	}
	cat, err := domain.ParseCategory(raw[:idx])
	if err != nil {
		return 0, raw, false
	}
	return cat, strings.TrimSpace(raw[idx+1:]), true
}

// inferCategory decides the category of an unprefixed entry:
// IP literals, then "scheme://" entries, then domains. Anything else is
// rejected; DOM indicators must be prefixed explicitly.
func inferCategory(entry string) (domain.Category, bool) {
	switch {
	case net.ParseIP(entry) != nil:
		return domain.CategoryIPLiteral, true
	case strings.HasSuffix(entry, "://") && len(entry) > 3:
		return domain.CategoryExtensionScheme, true
	case isValidFQDN(normalizeDomainName(entry)):
		return domain.CategoryDomain, true
	default:
		return 0, false
	}
}

// isValidFQDN checks whether the provided string is a valid Fully Qualified Domain Name (FQDN).
// It enforces the following rules:
//   - The total length must not exceed 255 characters.
//   - The name must contain at least two labels (separated by dots).
//   - Each label must be between 1 and 63 characters long.
//   - The first label must start with a letter or number.
func isValidFQDN(name string) bool {
	if len(name) > 255 {
		return false
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) > 63 || len(label) == 0 {
			return false
		}
	}
	runes := []rune(labels[0])
	return isAlphaNumeric(runes[0])
}

// normalizeDomainName trims whitespace, strips a leading "*." or "." (every
// domain rule already matches subdomains by containment) and lowercases.
func normalizeDomainName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "*.")
	name = strings.TrimPrefix(name, ".")
	return strings.TrimSuffix(utils.CanonicalCandidate(name), ".")
}

func isAlphaNumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
