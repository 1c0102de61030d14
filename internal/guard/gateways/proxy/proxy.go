// Package proxy is the rr-guardd HTTP surface. Absolute-form requests and
// CONNECT tunnels leave through the guarded capability slots, so every
// outbound destination passes the matcher. HTML responses can be swept for
// injected monitoring elements on the way back.
package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haukened/rr-guard/internal/guard/capability"
	"github.com/haukened/rr-guard/internal/guard/common/log"
	"github.com/haukened/rr-guard/internal/guard/domain"
	"github.com/haukened/rr-guard/internal/guard/infra/metrics"
	"github.com/haukened/rr-guard/internal/guard/services/watcher"
)

type Options struct {
	Environment *capability.Environment
	// Indicators enables HTML sanitizing when SanitizeHTML is set.
	Indicators      watcher.Indicators
	SanitizeHTML    bool
	SecurityHeaders bool
	MarkerAttribute string
	Metrics         *metrics.Metrics
	// Status is served as JSON on /healthz.
	Status func() any
	Logger log.Logger
}

// Handler routes proxy and local requests.
type Handler struct {
	env      *capability.Environment
	ind      watcher.Indicators
	sanitize bool
	headers  bool
	marker   string
	metrics  *metrics.Metrics
	status   func() any
	logger   log.Logger
	local    *http.ServeMux
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		env:      opts.Environment,
		ind:      opts.Indicators,
		sanitize: opts.SanitizeHTML && opts.Indicators != nil,
		headers:  opts.SecurityHeaders,
		marker:   opts.MarkerAttribute,
		metrics:  opts.Metrics,
		status:   opts.Status,
		logger:   opts.Logger,
	}
	if h.env == nil {
		h.env = capability.NewEnvironment()
	}
	if h.logger == nil {
		h.logger = log.GetLogger()
	}
	if h.status == nil {
		h.status = func() any { return map[string]string{"status": "ok"} }
	}
	h.local = http.NewServeMux()
	h.local.HandleFunc("/healthz", h.healthz)
	h.local.Handle("/metrics", h.metrics.Handler())
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

	switch {
	case r.Method == http.MethodConnect:
		h.tunnel(rec, r)
	case r.URL.IsAbs():
		h.secure(rec)
		h.forward(rec, r)
	default:
		h.secure(rec)
		h.local.ServeHTTP(rec, r)
	}
	h.metrics.ObserveProxy(r.Method, rec.code, time.Since(start))
}

func (h *Handler) secure(w http.ResponseWriter) {
	if h.headers {
		setSecurityHeaders(w.Header())
	}
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

// forward sends an absolute-form request through the fetch slot.
func (h *Handler) forward(w http.ResponseWriter, r *http.Request) {
	rt, err := h.env.Fetch.Get()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	out := r.Clone(r.Context())
	out.RequestURI = ""
	removeHopHeaders(out.Header)
	if h.sanitize {
		// let the transport negotiate and decode compression itself
		out.Header.Del("Accept-Encoding")
	}

	resp, err := rt.RoundTrip(out)
	if err != nil {
		h.fail(w, r.URL.String(), err)
		return
	}
	defer resp.Body.Close()

	removeHopHeaders(resp.Header)
	if h.sanitize && isHTML(resp.Header) {
		enc := resp.Header.Get("Content-Encoding")
		if enc == "" {
			h.writeSanitized(w, resp)
			return
		}
		h.metrics.IncUnsanitized(strings.ToLower(enc))
		h.logger.Debug(map[string]any{"encoding": enc, "url": r.URL.String()}, "html_passed_unsanitized")
	}
	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Debug(map[string]any{"error": err.Error(), "url": r.URL.String()}, "proxy_copy_interrupted")
	}
}

func (h *Handler) writeSanitized(w http.ResponseWriter, resp *http.Response) {
	var buf bytes.Buffer
	removed, err := watcher.SanitizeHTML(resp.Body, &buf, h.ind,
		watcher.WithLogger(h.logger),
		watcher.WithMarkerAttribute(h.marker),
		watcher.WithCounter(h.metrics),
	)
	h.metrics.ObserveSanitize(err)
	if err != nil {
		h.logger.Error(map[string]any{"error": err.Error(), "url": resp.Request.URL.String()}, "sanitize_failed")
		http.Error(w, "upstream document could not be processed", http.StatusBadGateway)
		return
	}
	if removed > 0 {
		h.logger.Debug(map[string]any{"removed": removed, "url": resp.Request.URL.String()}, "sanitized_document")
	}

	copyHeaders(w.Header(), resp.Header)
	w.Header().Del("Content-Length")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(buf.Bytes())
}

// tunnel dials the CONNECT authority through the dial slot and pipes bytes
// both ways until either side closes.
func (h *Handler) tunnel(w *statusRecorder, r *http.Request) {
	dial, err := h.env.Dial.Get()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	upstream, err := dial(r.Context(), "tcp", r.Host)
	if err != nil {
		h.fail(w, r.Host, err)
		return
	}

	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		upstream.Close()
		http.Error(w, "tunneling not supported", http.StatusInternalServerError)
		return
	}
	client, _, err := hj.Hijack()
	if err != nil {
		upstream.Close()
		h.logger.Error(map[string]any{"error": err.Error()}, "hijack_failed")
		return
	}
	if _, err := client.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n")); err != nil {
		client.Close()
		upstream.Close()
		return
	}
	w.code = http.StatusOK

	go transfer(upstream, client)
	transfer(client, upstream)
}

// fail maps a transport error onto a status code. Policy refusals answer 403
// with the fixed message; the interceptor has already logged the warning.
func (h *Handler) fail(w http.ResponseWriter, destination string, err error) {
	if domain.IsBlocked(err) {
		fields := map[string]any{"destination": destination}
		var bd *domain.BlockedDestinationError
		if errors.As(err, &bd) {
			fields["detail"] = bd.Detail()
		}
		if class := domain.ClassificationOf(err); class != "" {
			fields["classification"] = string(class)
		}
		h.logger.Debug(fields, "proxy_refused")
		http.Error(w, domain.BlockedMessage, http.StatusForbidden)
		return
	}
	h.logger.Warn(map[string]any{"destination": destination, "error": err.Error()}, "upstream_failed")
	http.Error(w, "upstream request failed", http.StatusBadGateway)
}

func transfer(dst io.WriteCloser, src io.ReadCloser) {
	defer dst.Close()
	defer src.Close()
	_, _ = io.Copy(dst, src)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	code    int
	written bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.code = code
		r.written = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

var _ http.Handler = (*Handler)(nil)
