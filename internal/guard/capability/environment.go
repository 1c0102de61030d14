package capability

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haukened/rr-guard/internal/guard/domain"
	"github.com/haukened/rr-guard/internal/guard/gateways/sse"
)

// Network capability signatures.
type (
	// OpenRequestFunc builds an outgoing request, like http.NewRequestWithContext.
	OpenRequestFunc func(ctx context.Context, method, url string, body io.Reader) (*http.Request, error)
	// WebSocketDialFunc opens a websocket, like (*websocket.Dialer).DialContext.
	WebSocketDialFunc func(ctx context.Context, url string, header http.Header) (*websocket.Conn, *http.Response, error)
	// EventSourceFunc opens a server-sent event stream.
	EventSourceFunc func(ctx context.Context, url string) (*sse.Stream, error)
	// DialFunc opens a raw connection, like (*net.Dialer).DialContext.
	DialFunc func(ctx context.Context, network, address string) (net.Conn, error)
	// MessageHandler receives a cross-document message.
	MessageHandler func(ctx context.Context, msg Message) error
)

// Message is a cross-document message and the origin that sent it.
type Message struct {
	Origin string
	Data   []byte
}

// Media, RTC and extension signatures. Host objects are opaque to the guard.
type (
	// ConstructorFunc creates an RTC object from host-specific arguments.
	ConstructorFunc func(ctx context.Context, args ...any) (any, error)
	// MediaStreamFunc requests a capture stream for the given constraints.
	MediaStreamFunc func(ctx context.Context, constraints map[string]any) (any, error)
	// EnumerateDevicesFunc lists media devices.
	EnumerateDevicesFunc func(ctx context.Context) ([]MediaDevice, error)
	// SendMessageFunc sends a message to a browser extension.
	SendMessageFunc func(ctx context.Context, extensionID string, msg any) (any, error)
)

// MediaDevice describes one capture or output device.
type MediaDevice struct {
	DeviceID string
	Kind     string
	Label    string
}

// Environment is the host's capability table.
type Environment struct {
	Fetch          *Slot[http.RoundTripper]
	OpenRequest    *Slot[OpenRequestFunc]
	WebSocket      *Slot[WebSocketDialFunc]
	EventSource    *Slot[EventSourceFunc]
	Dial           *Slot[DialFunc]
	MessageReceive *Slot[MessageHandler]

	PeerConnection     *Slot[ConstructorFunc]
	DataChannel        *Slot[ConstructorFunc]
	IceCandidate       *Slot[ConstructorFunc]
	SessionDescription *Slot[ConstructorFunc]

	UserMedia        *Slot[MediaStreamFunc]
	DisplayMedia     *Slot[MediaStreamFunc]
	EnumerateDevices *Slot[EnumerateDevicesFunc]

	ExtensionMessage *Slot[SendMessageFunc]
}

// NewEnvironment returns a table with every slot absent.
func NewEnvironment() *Environment {
	return &Environment{
		Fetch:              NewSlot[http.RoundTripper](domain.CapFetch),
		OpenRequest:        NewSlot[OpenRequestFunc](domain.CapXHROpen),
		WebSocket:          NewSlot[WebSocketDialFunc](domain.CapWebSocket),
		EventSource:        NewSlot[EventSourceFunc](domain.CapEventSource),
		Dial:               NewSlot[DialFunc](domain.CapDial),
		MessageReceive:     NewSlot[MessageHandler](domain.CapMessageReceive),
		PeerConnection:     NewSlot[ConstructorFunc](domain.CapPeerConnection),
		DataChannel:        NewSlot[ConstructorFunc](domain.CapDataChannel),
		IceCandidate:       NewSlot[ConstructorFunc](domain.CapIceCandidate),
		SessionDescription: NewSlot[ConstructorFunc](domain.CapSessionDescription),
		UserMedia:          NewSlot[MediaStreamFunc](domain.CapUserMedia),
		DisplayMedia:       NewSlot[MediaStreamFunc](domain.CapDisplayMedia),
		EnumerateDevices:   NewSlot[EnumerateDevicesFunc](domain.CapEnumerateDevices),
		ExtensionMessage:   NewSlot[SendMessageFunc](domain.CapExtensionMessage),
	}
}

// NewDefaultEnvironment provides the network slots from the Go stack. A
// server has no media, RTC, messaging or extension surface, so those slots
// stay absent.
func NewDefaultEnvironment() *Environment {
	env := NewEnvironment()
	env.Fetch.Provide(http.DefaultTransport)
	env.OpenRequest.Provide(http.NewRequestWithContext)
	env.WebSocket.Provide(websocket.DefaultDialer.DialContext)
	env.EventSource.Provide(sse.Connect)
	env.Dial.Provide((&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext)
	return env
}

// Presence reports, for every capability, whether its slot is present.
func (e *Environment) Presence() map[domain.CapabilityName]bool {
	return map[domain.CapabilityName]bool{
		e.Fetch.Name():              e.Fetch.Present(),
		e.OpenRequest.Name():        e.OpenRequest.Present(),
		e.WebSocket.Name():          e.WebSocket.Present(),
		e.EventSource.Name():        e.EventSource.Present(),
		e.Dial.Name():               e.Dial.Present(),
		e.MessageReceive.Name():     e.MessageReceive.Present(),
		e.PeerConnection.Name():     e.PeerConnection.Present(),
		e.DataChannel.Name():        e.DataChannel.Present(),
		e.IceCandidate.Name():       e.IceCandidate.Present(),
		e.SessionDescription.Name(): e.SessionDescription.Present(),
		e.UserMedia.Name():          e.UserMedia.Present(),
		e.DisplayMedia.Name():       e.DisplayMedia.Present(),
		e.EnumerateDevices.Name():   e.EnumerateDevices.Present(),
		e.ExtensionMessage.Name():   e.ExtensionMessage.Present(),
	}
}
