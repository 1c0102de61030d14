package bolt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/haukened/rr-guard/internal/guard/domain"
)

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "policy.db")
}

func sampleSet() domain.PolicySet {
	return domain.NewPolicySet("2025-12-20", []domain.BlockRule{
		{Pattern: "linewize.com", Category: domain.CategoryDomain},
		{Pattern: "familyzone.io", Category: domain.CategoryDomain},
		{Pattern: "104.248.215.23", Category: domain.CategoryIPLiteral},
		{Pattern: "extension-injected", Category: domain.CategoryDOMIndicator},
		{Pattern: "chrome-extension://", Category: domain.CategoryExtensionScheme},
	})
}

func TestStore_RebuildAndSnapshot(t *testing.T) {
	dbPath := tempDB(t)
	st, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(); _ = os.Remove(dbPath) })

	empty, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot on empty db: %v", err)
	}
	if !empty.IsEmpty() {
		t.Fatalf("expected empty snapshot, got %d rules", empty.Len())
	}

	want := sampleSet()
	now := time.Unix(1766188800, 0)
	if err := st.RebuildAll(want, now.Unix()); err != nil {
		t.Fatalf("RebuildAll: %v", err)
	}

	got, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got.Version() != want.Version() {
		t.Fatalf("version = %q, want %q", got.Version(), want.Version())
	}
	gr, wr := got.Rules(), want.Rules()
	if len(gr) != len(wr) {
		t.Fatalf("rules = %d, want %d", len(gr), len(wr))
	}
	for i := range wr {
		if gr[i] != wr[i] {
			t.Fatalf("rule[%d] = %+v, want %+v", i, gr[i], wr[i])
		}
	}
}

func TestStore_RebuildReplacesPreviousContents(t *testing.T) {
	st, err := New(tempDB(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.RebuildAll(sampleSet(), 1); err != nil {
		t.Fatalf("RebuildAll: %v", err)
	}
	next := domain.NewPolicySet("v2", []domain.BlockRule{{Pattern: "qoria.com", Category: domain.CategoryDomain}})
	if err := st.RebuildAll(next, 2); err != nil {
		t.Fatalf("RebuildAll: %v", err)
	}
	got, err := st.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got.Len() != 1 || got.Version() != "v2" {
		t.Fatalf("unexpected snapshot: len=%d version=%q", got.Len(), got.Version())
	}
}

func TestStore_Stats(t *testing.T) {
	st, err := New(tempDB(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.RebuildAll(sampleSet(), 1766188800); err != nil {
		t.Fatalf("RebuildAll: %v", err)
	}
	s := st.Stats()
	if s.Version != "2025-12-20" || s.UpdatedUnix != 1766188800 {
		t.Fatalf("unexpected meta: %+v", s)
	}
	if s.Counts["domain"] != 2 || s.Counts["ip-literal"] != 1 || s.Counts["dom-indicator"] != 1 || s.Counts["extension-scheme"] != 1 {
		t.Fatalf("unexpected counts: %v", s.Counts)
	}
}

func TestOpenReadOnly(t *testing.T) {
	dbPath := tempDB(t)
	st, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := st.RebuildAll(sampleSet(), 1); err != nil {
		t.Fatalf("RebuildAll: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	ro, err := OpenReadOnly(dbPath)
	if err != nil {
		t.Fatalf("OpenReadOnly: %v", err)
	}
	t.Cleanup(func() { _ = ro.Close() })
	got, err := ro.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got.Len() != 5 {
		t.Fatalf("len = %d, want 5", got.Len())
	}
}

func TestOpenReadOnly_Missing(t *testing.T) {
	if _, err := OpenReadOnly(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Fatalf("expected error opening missing snapshot")
	}
}

func TestNew_InvalidPath(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "no", "such", "dir", "x.db")); err == nil {
		t.Fatalf("expected error for invalid path")
	}
}
