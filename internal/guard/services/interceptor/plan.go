package interceptor

import (
	"net/http"

	"github.com/haukened/rr-guard/internal/guard/capability"
	"github.com/haukened/rr-guard/internal/guard/common/log"
	"github.com/haukened/rr-guard/internal/guard/domain"
	"github.com/haukened/rr-guard/internal/guard/repos/matcher"
)

type env = capability.Environment

// Interceptors returns the full install plan, network capabilities first.
func Interceptors(d matcher.Decider, logger log.Logger, counter Counter) []capability.Installer {
	g := NewGuard(d, logger, counter)
	return []capability.Installer{
		capability.Bind(domain.CapFetch, func(e *env) *capability.Slot[http.RoundTripper] { return e.Fetch }, g.GuardFetch),
		capability.Bind(domain.CapXHROpen, func(e *env) *capability.Slot[capability.OpenRequestFunc] { return e.OpenRequest }, g.GuardOpenRequest),
		capability.Bind(domain.CapWebSocket, func(e *env) *capability.Slot[capability.WebSocketDialFunc] { return e.WebSocket }, g.GuardWebSocket),
		capability.Bind(domain.CapEventSource, func(e *env) *capability.Slot[capability.EventSourceFunc] { return e.EventSource }, g.GuardEventSource),
		capability.Bind(domain.CapDial, func(e *env) *capability.Slot[capability.DialFunc] { return e.Dial }, g.GuardDial),
		capability.Bind(domain.CapMessageReceive, func(e *env) *capability.Slot[capability.MessageHandler] { return e.MessageReceive }, g.GuardMessages),
		capability.Bind(domain.CapPeerConnection, func(e *env) *capability.Slot[capability.ConstructorFunc] { return e.PeerConnection }, g.DisablePeerConnection),
		capability.Bind(domain.CapDataChannel, func(e *env) *capability.Slot[capability.ConstructorFunc] { return e.DataChannel }, g.DisableDataChannel),
		capability.Bind(domain.CapIceCandidate, func(e *env) *capability.Slot[capability.ConstructorFunc] { return e.IceCandidate }, g.DisableIceCandidate),
		capability.Bind(domain.CapSessionDescription, func(e *env) *capability.Slot[capability.ConstructorFunc] { return e.SessionDescription }, g.DisableSessionDescription),
		capability.Bind(domain.CapUserMedia, func(e *env) *capability.Slot[capability.MediaStreamFunc] { return e.UserMedia }, g.DisableUserMedia),
		capability.Bind(domain.CapDisplayMedia, func(e *env) *capability.Slot[capability.MediaStreamFunc] { return e.DisplayMedia }, g.DisableDisplayMedia),
		capability.Bind(domain.CapEnumerateDevices, func(e *env) *capability.Slot[capability.EnumerateDevicesFunc] { return e.EnumerateDevices }, g.DisableEnumerateDevices),
		capability.Bind(domain.CapExtensionMessage, func(e *env) *capability.Slot[capability.SendMessageFunc] { return e.ExtensionMessage }, g.DisableExtensionMessaging),
	}
}
