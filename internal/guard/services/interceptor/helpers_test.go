package interceptor

import (
	"sync"
	"testing"

	"github.com/haukened/rr-guard/internal/guard/common/log"
	"github.com/haukened/rr-guard/internal/guard/domain"
	"github.com/haukened/rr-guard/internal/guard/repos/matcher"
)

type countingCounter struct {
	mu       sync.Mutex
	blocked  map[domain.CapabilityName]int
	disabled map[domain.CapabilityName]int
}

func newCountingCounter() *countingCounter {
	return &countingCounter{blocked: map[domain.CapabilityName]int{}, disabled: map[domain.CapabilityName]int{}}
}

func (c *countingCounter) IncBlocked(n domain.CapabilityName) {
	c.mu.Lock()
	c.blocked[n]++
	c.mu.Unlock()
}

func (c *countingCounter) IncDisabled(n domain.CapabilityName) {
	c.mu.Lock()
	c.disabled[n]++
	c.mu.Unlock()
}

func testMatcher() *matcher.Matcher {
	set := domain.NewPolicySet("test", []domain.BlockRule{
		{Pattern: "familyzone.com", Category: domain.CategoryDomain},
		{Pattern: "linewize.com", Category: domain.CategoryDomain},
		{Pattern: "104.248.215.23", Category: domain.CategoryIPLiteral},
		{Pattern: "classwize", Category: domain.CategoryDOMIndicator},
	})
	return matcher.New(set, nil, nil, 0)
}

func newTestGuard(t *testing.T) (*Guard, *log.Recorder, *countingCounter) {
	t.Helper()
	rec := log.NewRecorder()
	cnt := newCountingCounter()
	return NewGuard(testMatcher(), rec, cnt), rec, cnt
}
