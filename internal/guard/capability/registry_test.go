package capability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-guard/internal/guard/domain"
)

type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestSlot_AbsentByDefault(t *testing.T) {
	s := NewSlot[SendMessageFunc](domain.CapExtensionMessage)
	assert.False(t, s.Present())
	_, err := s.Get()
	assert.ErrorIs(t, err, domain.ErrUnsupportedEnvironment)
	assert.Equal(t, domain.CapExtensionMessage, s.Name())
}

func TestSlot_NilValueIsAbsent(t *testing.T) {
	s := NewSlot[http.RoundTripper](domain.CapFetch)
	s.Provide(nil)
	assert.False(t, s.Present())
	_, err := s.Get()
	assert.ErrorIs(t, err, domain.ErrUnsupportedEnvironment)

	d := NewSlot[DialFunc](domain.CapDial)
	d.Provide(func(context.Context, string, string) (net.Conn, error) { return nil, nil })
	require.True(t, d.Present())
	var none DialFunc
	d.Provide(none)
	assert.False(t, d.Present())

	var rt *http.Transport
	s.Provide(rt)
	assert.False(t, s.Present(), "typed nil pointer counts as absent")
}

func TestInstall_NilProvidedSlotIsSkipped(t *testing.T) {
	env := NewEnvironment()
	env.Fetch.Provide(nil)
	reg := NewRegistry()
	assert.False(t, Install(reg, env.Fetch, func(next http.RoundTripper) http.RoundTripper { return next }))
	assert.Empty(t, reg.Bindings())
}

func TestSlot_ConcurrentReads(t *testing.T) {
	s := NewSlot[int]("n")
	s.Provide(1)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.Get()
			assert.NoError(t, err)
			assert.Equal(t, 1, v)
		}()
	}
	wg.Wait()
}

func TestInstall_WrapsAndRestores(t *testing.T) {
	env := NewEnvironment()
	var calls []string
	env.Fetch.Provide(rtFunc(func(*http.Request) (*http.Response, error) {
		calls = append(calls, "original")
		return &http.Response{StatusCode: 200}, nil
	}))

	reg := NewRegistry()
	ok := Install(reg, env.Fetch, func(next http.RoundTripper) http.RoundTripper {
		return rtFunc(func(r *http.Request) (*http.Response, error) {
			calls = append(calls, "wrapper")
			return next.RoundTrip(r)
		})
	})
	require.True(t, ok)
	assert.True(t, reg.Bound(domain.CapFetch))

	rt, err := env.Fetch.Get()
	require.NoError(t, err)
	_, _ = rt.RoundTrip(&http.Request{})
	assert.Equal(t, []string{"wrapper", "original"}, calls)

	assert.Equal(t, []domain.CapabilityName{domain.CapFetch}, reg.RestoreAll())
	calls = nil
	restored, _ := env.Fetch.Get()
	_, _ = restored.RoundTrip(&http.Request{})
	assert.Equal(t, []string{"original"}, calls)
	assert.Empty(t, reg.Bindings())
	assert.False(t, reg.Bound(domain.CapFetch))
}

func TestInstall_AtMostOneBinding(t *testing.T) {
	env := NewEnvironment()
	env.Dial.Provide(func(context.Context, string, string) (net.Conn, error) { return nil, errors.New("offline") })
	reg := NewRegistry()

	layers := 0
	wrap := func(next DialFunc) DialFunc {
		layers++
		return next
	}
	assert.True(t, Install(reg, env.Dial, wrap))
	assert.False(t, Install(reg, env.Dial, wrap))
	assert.Equal(t, 1, layers)
	assert.Len(t, reg.Bindings(), 1)
}

func TestInstall_AbsentSlotIsSkipped(t *testing.T) {
	env := NewEnvironment()
	reg := NewRegistry()
	called := false
	ok := Install(reg, env.DisplayMedia, func(next MediaStreamFunc) MediaStreamFunc {
		called = true
		return next
	})
	assert.False(t, ok)
	assert.False(t, called)
	assert.False(t, env.DisplayMedia.Present())
	assert.Empty(t, reg.Bindings())
}

func TestRestoreAll_ReinstallAfterRestore(t *testing.T) {
	env := NewEnvironment()
	env.UserMedia.Provide(func(context.Context, map[string]any) (any, error) { return "stream", nil })
	reg := NewRegistry()
	deny := func(MediaStreamFunc) MediaStreamFunc {
		return func(context.Context, map[string]any) (any, error) { return nil, errors.New("denied") }
	}

	require.True(t, Install(reg, env.UserMedia, deny))
	reg.RestoreAll()
	fn, _ := env.UserMedia.Get()
	v, err := fn(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "stream", v)

	assert.True(t, Install(reg, env.UserMedia, deny))
	fn, _ = env.UserMedia.Get()
	_, err = fn(context.Background(), nil)
	assert.Error(t, err)
}

func TestBind_Installer(t *testing.T) {
	env := NewEnvironment()
	env.ExtensionMessage.Provide(func(context.Context, string, any) (any, error) { return "ok", nil })
	inst := Bind(domain.CapExtensionMessage,
		func(e *Environment) *Slot[SendMessageFunc] { return e.ExtensionMessage },
		func(SendMessageFunc) SendMessageFunc {
			return func(context.Context, string, any) (any, error) { return nil, domain.ErrCapabilityDisabled }
		})

	reg := NewRegistry()
	assert.Equal(t, domain.CapExtensionMessage, inst.Name)
	assert.True(t, inst.Install(reg, env))
	fn, _ := env.ExtensionMessage.Get()
	_, err := fn(context.Background(), "id", nil)
	assert.ErrorIs(t, err, domain.ErrCapabilityDisabled)
}

func TestNewDefaultEnvironment(t *testing.T) {
	env := NewDefaultEnvironment()
	p := env.Presence()
	assert.Len(t, p, 14)
	for _, name := range []domain.CapabilityName{domain.CapFetch, domain.CapXHROpen, domain.CapWebSocket, domain.CapEventSource, domain.CapDial} {
		assert.True(t, p[name], name)
	}
	for _, name := range []domain.CapabilityName{domain.CapMessageReceive, domain.CapPeerConnection, domain.CapUserMedia, domain.CapDisplayMedia, domain.CapEnumerateDevices, domain.CapExtensionMessage} {
		assert.False(t, p[name], name)
	}
	rt, err := env.Fetch.Get()
	require.NoError(t, err)
	assert.Equal(t, http.DefaultTransport, rt)
}
