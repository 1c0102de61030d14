// Package lifecycle activates and tears down the guard: it installs the
// capability interceptors into an Environment and runs the DOM watcher.
package lifecycle

import (
	"sync"
	"time"

	"github.com/haukened/rr-guard/internal/guard/capability"
	"github.com/haukened/rr-guard/internal/guard/common/clock"
	"github.com/haukened/rr-guard/internal/guard/common/log"
	"github.com/haukened/rr-guard/internal/guard/domain"
)

// Watcher is the part of *watcher.Watcher the controller drives.
type Watcher interface {
	Start()
	Stop()
	Running() bool
}

// Gauges receives install and policy gauges. *metrics.Metrics satisfies it.
type Gauges interface {
	SetInstalled(n int)
	SetPolicy(counts map[string]int)
}

type nopGauges struct{}

func (nopGauges) SetInstalled(int)         {}
func (nopGauges) SetPolicy(map[string]int) {}

type ControllerOptions struct {
	Environment *capability.Environment
	Plan        []capability.Installer
	Policy      domain.PolicySet
	Watcher     Watcher // optional
	Gauges      Gauges  // optional
	Clock       clock.Clock
	Logger      log.Logger
}

// Status is a point-in-time view of the controller.
type Status struct {
	Active        bool                    `json:"active"`
	ActivatedAt   *time.Time              `json:"activated_at,omitempty"`
	Installed     []domain.CapabilityName `json:"installed"`
	Skipped       []domain.CapabilityName `json:"skipped"`
	Watching      bool                    `json:"watching"`
	PolicyVersion string                  `json:"policy_version"`
	Rules         map[string]int          `json:"rules"`
}

type Controller struct {
	env     *capability.Environment
	plan    []capability.Installer
	policy  domain.PolicySet
	watcher Watcher
	gauges  Gauges
	clock   clock.Clock
	logger  log.Logger

	mu          sync.Mutex
	registry    *capability.Registry
	installed   bool
	activatedAt time.Time
	skipped     []domain.CapabilityName
}

func NewController(opts ControllerOptions) *Controller {
	c := &Controller{
		env:     opts.Environment,
		plan:    opts.Plan,
		policy:  opts.Policy,
		watcher: opts.Watcher,
		gauges:  opts.Gauges,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
	if c.env == nil {
		c.env = capability.NewEnvironment()
	}
	if c.gauges == nil {
		c.gauges = nopGauges{}
	}
	if c.clock == nil {
		c.clock = clock.RealClock{}
	}
	if c.logger == nil {
		c.logger = log.GetLogger()
	}
	c.registry = capability.NewRegistry()
	c.gauges.SetPolicy(c.policy.Counts())
	return c
}

// Activate installs every interceptor in the plan and starts the watcher.
// Capabilities absent from the Environment are skipped. It returns false,
// without touching anything, when the controller is already active.
func (c *Controller) Activate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.installed {
		c.logger.Debug(nil, "activate_ignored_already_active")
		return false
	}

	c.skipped = nil
	for _, step := range c.plan {
		if !step.Install(c.registry, c.env) {
			c.skipped = append(c.skipped, step.Name)
			c.logger.Debug(map[string]any{"capability": string(step.Name)}, "capability_unsupported_skipped")
		}
	}
	if c.watcher != nil {
		c.watcher.Start()
	}
	c.installed = true
	c.activatedAt = c.clock.Now()

	bound := c.registry.Bindings()
	c.gauges.SetInstalled(len(bound))
	c.logger.Info(map[string]any{
		"installed":      len(bound),
		"skipped":        len(c.skipped),
		"policy_version": c.policy.Version(),
		"watcher":        c.watcher != nil,
	}, "guard_activated")
	return true
}

// Deactivate stops the watcher and restores every captured original. It
// returns false when the controller is not active. A deactivated controller
// may be activated again.
func (c *Controller) Deactivate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.installed {
		return false
	}
	if c.watcher != nil {
		c.watcher.Stop()
	}
	restored := c.registry.RestoreAll()
	c.installed = false
	c.activatedAt = time.Time{}
	c.skipped = nil
	c.gauges.SetInstalled(0)
	c.logger.Info(map[string]any{"restored": len(restored)}, "guard_deactivated")
	return true
}

// Active reports whether interceptors are installed.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.installed
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Status{
		Active:        c.installed,
		Installed:     c.registry.Bindings(),
		Skipped:       append([]domain.CapabilityName(nil), c.skipped...),
		PolicyVersion: c.policy.Version(),
		Rules:         c.policy.Counts(),
	}
	if s.Installed == nil {
		s.Installed = []domain.CapabilityName{}
	}
	if s.Skipped == nil {
		s.Skipped = []domain.CapabilityName{}
	}
	if c.installed {
		at := c.activatedAt
		s.ActivatedAt = &at
	}
	if c.watcher != nil {
		s.Watching = c.watcher.Running()
	}
	return s
}
