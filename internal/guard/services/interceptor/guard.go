// Package interceptor builds the guarded replacements for every host
// capability. Each decorator keeps the signature of the capability it wraps:
// destination capabilities consult the matcher per call, the rest are
// disabled outright.
package interceptor

import (
	"github.com/haukened/rr-guard/internal/guard/common/log"
	"github.com/haukened/rr-guard/internal/guard/common/utils"
	"github.com/haukened/rr-guard/internal/guard/domain"
	"github.com/haukened/rr-guard/internal/guard/repos/matcher"
)

// Counter receives one increment per denial. *metrics.Metrics satisfies it.
type Counter interface {
	IncBlocked(domain.CapabilityName)
	IncDisabled(domain.CapabilityName)
}

type nopCounter struct{}

func (nopCounter) IncBlocked(domain.CapabilityName)  {}
func (nopCounter) IncDisabled(domain.CapabilityName) {}

// Guard holds what every decorator needs to reach and report a decision.
type Guard struct {
	decider matcher.Decider
	logger  log.Logger
	counter Counter
}

// NewGuard returns a Guard. A nil logger uses the global logger; a nil
// counter counts nothing.
func NewGuard(d matcher.Decider, logger log.Logger, counter Counter) *Guard {
	if logger == nil {
		logger = log.GetLogger()
	}
	if counter == nil {
		counter = nopCounter{}
	}
	return &Guard{decider: d, logger: logger, counter: counter}
}

// check returns a BlockedDestinationError when destination is denylisted.
// The warn record and the counter are emitted before returning.
func (g *Guard) check(c domain.CapabilityName, msg, destination string) error {
	d := g.decider.Decide(destination)
	if !d.Blocked {
		return nil
	}
	log.Emit(g.logger, log.Diagnostic{
		Message:     msg,
		Capability:  c.String(),
		Destination: destination,
		Site:        utils.RegistrableDomain(destination),
	})
	g.counter.IncBlocked(c)
	return &domain.BlockedDestinationError{Capability: c, Destination: destination, Rule: d.MatchedRule}
}

// deny records a call to a disabled capability and returns its error.
func (g *Guard) deny(c domain.CapabilityName, class domain.Classification, msg string) error {
	g.note(c, msg)
	return &domain.CapabilityDisabledError{Capability: c, Classification: class}
}

// note records a denial that is not surfaced as an error.
func (g *Guard) note(c domain.CapabilityName, msg string) {
	log.Emit(g.logger, log.Diagnostic{Message: msg, Capability: c.String()})
	g.counter.IncDisabled(c)
}
