// Package sse is a minimal EventSource client: it opens a text/event-stream
// response and decodes events from it.
package sse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// ErrNotEventStream is returned when the server answers with another media type.
var ErrNotEventStream = errors.New("response is not text/event-stream")

// Event is one dispatched server-sent event.
type Event struct {
	ID   string
	Type string // "message" unless the server set an event field
	Data string // data lines joined with "\n"
}

// Stream reads events from an open response body. It is not safe for
// concurrent use.
type Stream struct {
	body   io.ReadCloser
	r      *bufio.Reader
	lastID string
}

// Client opens event streams with the given HTTP client.
type Client struct {
	HTTP *http.Client
}

// Connect opens url with http.DefaultClient.
func Connect(ctx context.Context, url string) (*Stream, error) {
	return (&Client{}).Connect(ctx, url)
}

// Connect issues the GET and validates the response before handing back a
// Stream. The caller must Close the stream.
func (c *Client) Connect(ctx context.Context, url string) (*Stream, error) {
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("event stream %s: unexpected status %d", url, resp.StatusCode)
	}
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mt != "text/event-stream" {
		resp.Body.Close()
		return nil, ErrNotEventStream
	}
	return NewStream(resp.Body), nil
}

// NewStream decodes events from body.
func NewStream(body io.ReadCloser) *Stream {
	return &Stream{body: body, r: bufio.NewReader(body)}
}

// Next blocks until the next event is dispatched. It returns io.EOF when the
// stream ends; a partially received event at EOF is discarded.
func (s *Stream) Next() (Event, error) {
	var (
		data    strings.Builder
		hasData bool
		typ     string
	)
	for {
		line, err := s.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return Event{}, err
		}
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		if line == "" {
			if !hasData {
				typ = ""
				continue
			}
			ev := Event{ID: s.lastID, Type: typ, Data: data.String()}
			if ev.Type == "" {
				ev.Type = "message"
			}
			return ev, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			typ = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				s.lastID = value
			}
		}
		if err == io.EOF {
			return Event{}, io.EOF
		}
	}
}

// LastEventID returns the most recent id field seen on the stream.
func (s *Stream) LastEventID() string { return s.lastID }

func (s *Stream) Close() error { return s.body.Close() }
