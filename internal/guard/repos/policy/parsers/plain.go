package parsers

import (
	"bufio"
	"io"
	"strings"

	"github.com/haukened/rr-guard/internal/guard/common/log"
	"github.com/haukened/rr-guard/internal/guard/domain"
)

// ParsePlainList parses a newline-delimited denylist into BlockRule values.
//
// Behavior:
// - Supports comments starting with '#' (inline or whole-line)
// - An optional "category:" prefix (domain, ip, indicator, scheme) sets the category
// - Unprefixed entries are inferred: IP literal, "scheme://", then domain
// - Invalid entries are skipped, never fatal
// - De-duplicates by category and pattern while preserving first-seen order
func ParsePlainList(r io.Reader, source string, logger log.Logger) ([]domain.BlockRule, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	scanner := bufio.NewScanner(r)

	seen := make(map[domain.BlockRule]struct{})
	out := make([]domain.BlockRule, 0, 128)
	logger.Debug(map[string]any{"source": source}, "parse_plain_list_start")
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimPrefix(scanner.Text(), "\ufeff")

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		entry := strings.TrimSpace(line)

		cat, value, explicit := splitCategory(entry)
		if !explicit {
			var ok bool
			cat, ok = inferCategory(value)
			if !ok {
				logger.Debug(map[string]any{"line": lineNum, "raw": entry}, "skip_unrecognized_entry")
				continue
			}
		}
		if cat == domain.CategoryDomain {
			value = normalizeDomainName(value)
		}

		rule, err := domain.NewBlockRule(value, cat)
		if err != nil {
			logger.Debug(map[string]any{"line": lineNum, "raw": entry, "error": err.Error()}, "skip_invalid_rule")
			continue
		}
		if _, dup := seen[rule]; dup {
			logger.Debug(map[string]any{"line": lineNum, "rule": rule.String()}, "skip_duplicate")
			continue
		}
		seen[rule] = struct{}{}
		out = append(out, rule)
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err.Error()}, "parse_plain_list_scan_error")
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_plain_list_done")
	return out, nil
}
