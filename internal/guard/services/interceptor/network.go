package interceptor

import (
	"context"
	"io"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/haukened/rr-guard/internal/guard/capability"
	"github.com/haukened/rr-guard/internal/guard/domain"
	"github.com/haukened/rr-guard/internal/guard/gateways/sse"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// GuardFetch refuses requests whose URL is blocked. The request body is
// closed on refusal, as the RoundTripper contract requires.
func (g *Guard) GuardFetch(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL != nil {
			if err := g.check(domain.CapFetch, "blocked fetch request", req.URL.String()); err != nil {
				if req.Body != nil {
					_ = req.Body.Close()
				}
				return nil, err
			}
		}
		return next.RoundTrip(req)
	})
}

// GuardOpenRequest refuses to build requests for blocked URLs.
func (g *Guard) GuardOpenRequest(next capability.OpenRequestFunc) capability.OpenRequestFunc {
	return func(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
		if err := g.check(domain.CapXHROpen, "blocked xhr open", url); err != nil {
			return nil, err
		}
		return next(ctx, method, url, body)
	}
}

// GuardWebSocket refuses websocket dials to blocked URLs.
func (g *Guard) GuardWebSocket(next capability.WebSocketDialFunc) capability.WebSocketDialFunc {
	return func(ctx context.Context, url string, header http.Header) (*websocket.Conn, *http.Response, error) {
		if err := g.check(domain.CapWebSocket, "blocked websocket connection", url); err != nil {
			return nil, nil, err
		}
		return next(ctx, url, header)
	}
}

// GuardEventSource refuses event streams from blocked URLs.
func (g *Guard) GuardEventSource(next capability.EventSourceFunc) capability.EventSourceFunc {
	return func(ctx context.Context, url string) (*sse.Stream, error) {
		if err := g.check(domain.CapEventSource, "blocked eventsource connection", url); err != nil {
			return nil, err
		}
		return next(ctx, url)
	}
}

// GuardDial refuses raw connections to blocked host:port addresses.
func (g *Guard) GuardDial(next capability.DialFunc) capability.DialFunc {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		if err := g.check(domain.CapDial, "blocked dial", address); err != nil {
			return nil, err
		}
		return next(ctx, network, address)
	}
}

// GuardMessages drops messages sent from blocked origins before any handler
// sees them.
func (g *Guard) GuardMessages(next capability.MessageHandler) capability.MessageHandler {
	return func(ctx context.Context, msg capability.Message) error {
		if err := g.check(domain.CapMessageReceive, "dropped message from blocked origin", msg.Origin); err != nil {
			return err
		}
		return next(ctx, msg)
	}
}
