// Package capability is the host capability table. Every interceptable
// capability lives in a typed Slot; the Registry swaps slot contents for
// guarded replacements and can put the originals back.
package capability

import (
	"reflect"
	"sync"

	"github.com/haukened/rr-guard/internal/guard/domain"
)

// Slot holds at most one implementation of a capability. A slot that was
// never provided is absent and Get reports ErrUnsupportedEnvironment.
type Slot[T any] struct {
	name    domain.CapabilityName
	mu      sync.RWMutex
	val     T
	present bool
}

// NewSlot returns an absent slot.
func NewSlot[T any](name domain.CapabilityName) *Slot[T] {
	return &Slot[T]{name: name}
}

func (s *Slot[T]) Name() domain.CapabilityName { return s.name }

// Provide stores v and marks the slot present. A nil v (nil func, nil
// interface or typed nil pointer) empties the slot instead.
func (s *Slot[T]) Provide(v T) {
	s.mu.Lock()
	if isNil(v) {
		var zero T
		s.val, s.present = zero, false
	} else {
		s.val, s.present = v, true
	}
	s.mu.Unlock()
}

// Get returns the current implementation.
func (s *Slot[T]) Get() (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.present {
		var zero T
		return zero, domain.ErrUnsupportedEnvironment
	}
	return s.val, nil
}

func (s *Slot[T]) Present() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.present
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Interface, reflect.Map, reflect.Chan, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
