package interceptor

import (
	"context"

	"github.com/haukened/rr-guard/internal/guard/capability"
	"github.com/haukened/rr-guard/internal/guard/domain"
)

func (g *Guard) disableConstructor(c domain.CapabilityName, msg string) func(capability.ConstructorFunc) capability.ConstructorFunc {
	return func(capability.ConstructorFunc) capability.ConstructorFunc {
		return func(context.Context, ...any) (any, error) {
			return nil, g.deny(c, domain.NotSupportedError, msg)
		}
	}
}

// DisablePeerConnection makes peer connection construction fail.
func (g *Guard) DisablePeerConnection(next capability.ConstructorFunc) capability.ConstructorFunc {
	return g.disableConstructor(domain.CapPeerConnection, "peer connection blocked")(next)
}

// DisableDataChannel makes data channel construction fail.
func (g *Guard) DisableDataChannel(next capability.ConstructorFunc) capability.ConstructorFunc {
	return g.disableConstructor(domain.CapDataChannel, "data channel blocked")(next)
}

// DisableIceCandidate makes ICE candidate construction fail.
func (g *Guard) DisableIceCandidate(next capability.ConstructorFunc) capability.ConstructorFunc {
	return g.disableConstructor(domain.CapIceCandidate, "ice candidate blocked")(next)
}

// DisableSessionDescription makes session description construction fail.
func (g *Guard) DisableSessionDescription(next capability.ConstructorFunc) capability.ConstructorFunc {
	return g.disableConstructor(domain.CapSessionDescription, "session description blocked")(next)
}

// DisableUserMedia denies camera and microphone capture.
func (g *Guard) DisableUserMedia(capability.MediaStreamFunc) capability.MediaStreamFunc {
	return func(context.Context, map[string]any) (any, error) {
		return nil, g.deny(domain.CapUserMedia, domain.NotAllowedError, "camera and microphone access blocked")
	}
}

// DisableDisplayMedia denies screen capture.
func (g *Guard) DisableDisplayMedia(capability.MediaStreamFunc) capability.MediaStreamFunc {
	return func(context.Context, map[string]any) (any, error) {
		return nil, g.deny(domain.CapDisplayMedia, domain.NotAllowedError, "screen capture blocked")
	}
}

// DisableEnumerateDevices reports no devices. It is not an error.
func (g *Guard) DisableEnumerateDevices(capability.EnumerateDevicesFunc) capability.EnumerateDevicesFunc {
	return func(context.Context) ([]capability.MediaDevice, error) {
		g.note(domain.CapEnumerateDevices, "device enumeration blocked")
		return []capability.MediaDevice{}, nil
	}
}

// DisableExtensionMessaging refuses every message to an extension.
func (g *Guard) DisableExtensionMessaging(capability.SendMessageFunc) capability.SendMessageFunc {
	return func(context.Context, string, any) (any, error) {
		return nil, g.deny(domain.CapExtensionMessage, domain.BlockedError, "extension messaging blocked")
	}
}
