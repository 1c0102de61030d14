// Package policy is the Policy Registry: it turns a denylist source into the
// process-wide, immutable PolicySet.
package policy

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"

	"github.com/haukened/rr-guard/internal/guard/common/log"
	"github.com/haukened/rr-guard/internal/guard/domain"
	"github.com/haukened/rr-guard/internal/guard/repos/policy/bolt"
	"github.com/haukened/rr-guard/internal/guard/repos/policy/parsers"
)

// DefaultSource names the embedded denylist in logs and status output.
const DefaultSource = "embedded:denylist.yaml"

//go:embed denylist.yaml
var defaultDenylist []byte

// Snapshotter reads a compiled PolicySet back from storage.
type Snapshotter interface {
	Snapshot() (domain.PolicySet, error)
	Close() error
}

// openSnapshot can be replaced in tests.
var openSnapshot = func(path string) (Snapshotter, error) {
	st, err := bolt.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// SupportedExtension reports whether source names a file type Load understands.
// The empty source (embedded default) is supported.
func SupportedExtension(source string) bool {
	if strings.TrimSpace(source) == "" {
		return true
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml", ".json", ".toml", ".txt", ".list", ".db":
		return true
	}
	return false
}

// Load returns the PolicySet for source and never fails: any problem with the
// source is logged at error level and yields the empty set, so no policy
// rule can block. An empty source selects the embedded default.
func Load(source string, logger log.Logger) domain.PolicySet {
	if logger == nil {
		logger = log.GetLogger()
	}
	set, err := LoadStrict(source, logger)
	if err != nil {
		logger.Error(map[string]any{"source": sourceName(source), "error": err.Error()}, "policy_load_failed")
		return domain.EmptyPolicySet()
	}
	return set
}

// LoadStrict is Load with the error surfaced.
func LoadStrict(source string, logger log.Logger) (domain.PolicySet, error) {
	if logger == nil {
		logger = log.GetLogger()
	}
	set, err := load(source, logger)
	if err != nil {
		return domain.EmptyPolicySet(), err
	}
	logger.Info(map[string]any{
		"source":  sourceName(source),
		"version": set.Version(),
		"rules":   set.Len(),
	}, "policy_loaded")
	return set, nil
}

// LoadDefault returns the embedded denylist.
func LoadDefault() (domain.PolicySet, error) {
	return loadDocument(rawbytes.Provider(defaultDenylist), yaml.Parser())
}

// WriteSnapshot compiles set into a bbolt snapshot at path, replacing any
// previous contents.
func WriteSnapshot(set domain.PolicySet, path string, compiledAt time.Time) error {
	st, err := bolt.New(path)
	if err != nil {
		return fmt.Errorf("open snapshot %s: %w", path, err)
	}
	if err := st.RebuildAll(set, compiledAt.Unix()); err != nil {
		_ = st.Close()
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return st.Close()
}

func load(source string, logger log.Logger) (domain.PolicySet, error) {
	if strings.TrimSpace(source) == "" {
		return LoadDefault()
	}
	switch ext := strings.ToLower(filepath.Ext(source)); ext {
	case ".yaml", ".yml":
		return loadDocument(file.Provider(source), yaml.Parser())
	case ".json":
		return loadDocument(file.Provider(source), json.Parser())
	case ".toml":
		return loadDocument(file.Provider(source), toml.Parser())
	case ".txt", ".list":
		return loadPlain(source, logger)
	case ".db":
		return loadSnapshot(source)
	default:
		return domain.EmptyPolicySet(), fmt.Errorf("unsupported policy source extension %q", ext)
	}
}

func loadDocument(p koanf.Provider, parser koanf.Parser) (domain.PolicySet, error) {
	k := koanf.New(".")
	if err := k.Load(p, parser); err != nil {
		return domain.EmptyPolicySet(), fmt.Errorf("parse policy document: %w", err)
	}
	var doc Document
	if err := k.Unmarshal("", &doc); err != nil {
		return domain.EmptyPolicySet(), fmt.Errorf("decode policy document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return domain.EmptyPolicySet(), fmt.Errorf("invalid policy document: %w", err)
	}
	return doc.PolicySet(), nil
}

func loadPlain(path string, logger log.Logger) (domain.PolicySet, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.EmptyPolicySet(), err
	}
	defer f.Close()
	rules, err := parsers.ParsePlainList(f, path, logger)
	if err != nil {
		return domain.EmptyPolicySet(), fmt.Errorf("read plain list: %w", err)
	}
	return domain.NewPolicySet(filepath.Base(path), rules), nil
}

func loadSnapshot(path string) (domain.PolicySet, error) {
	st, err := openSnapshot(path)
	if err != nil {
		return domain.EmptyPolicySet(), fmt.Errorf("open snapshot: %w", err)
	}
	defer st.Close()
	return st.Snapshot()
}

func sourceName(source string) string {
	if strings.TrimSpace(source) == "" {
		return DefaultSource
	}
	return source
}
