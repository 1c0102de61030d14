package capability

import (
	"sync"

	"github.com/haukened/rr-guard/internal/guard/domain"
)

// Registry records every installed interception so it can be undone. It
// holds at most one binding per capability.
type Registry struct {
	mu       sync.Mutex
	restores map[domain.CapabilityName]func()
	order    []domain.CapabilityName
}

func NewRegistry() *Registry {
	return &Registry{restores: make(map[domain.CapabilityName]func())}
}

// Install captures the slot's current implementation and replaces it with
// wrap(original). It returns false, and changes nothing, when the slot is
// absent or the capability is already bound.
func Install[T any](r *Registry, s *Slot[T], wrap func(T) T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, bound := r.restores[s.Name()]; bound {
		return false
	}
	original, err := s.Get()
	if err != nil {
		return false
	}
	s.Provide(wrap(original))
	r.restores[s.Name()] = func() { s.Provide(original) }
	r.order = append(r.order, s.Name())
	return true
}

// RestoreAll puts every captured original back, newest first, clears the
// table and returns the restored names in install order.
func (r *Registry) RestoreAll() []domain.CapabilityName {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		r.restores[r.order[i]]()
	}
	restored := r.order
	r.order = nil
	r.restores = make(map[domain.CapabilityName]func())
	return restored
}

// Bindings lists bound capabilities in install order.
func (r *Registry) Bindings() []domain.CapabilityName {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CapabilityName(nil), r.order...)
}

// Bound reports whether name currently has a binding.
func (r *Registry) Bound(name domain.CapabilityName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.restores[name]
	return ok
}

// Installer is one step of an install plan.
type Installer struct {
	Name    domain.CapabilityName
	Install func(r *Registry, env *Environment) bool
}

// Bind builds an Installer for the slot picked out of an Environment.
func Bind[T any](name domain.CapabilityName, pick func(*Environment) *Slot[T], wrap func(T) T) Installer {
	return Installer{
		Name: name,
		Install: func(r *Registry, env *Environment) bool {
			return Install(r, pick(env), wrap)
		},
	}
}
