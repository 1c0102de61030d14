package proxy

import (
	"net/http"
	"strings"
)

// contentSecurityPolicy is permissive enough for third-party embeds while
// still pinning frame ancestors to the serving origin.
var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self' https: data: blob:",
	"script-src 'self' 'unsafe-inline' 'unsafe-eval' https: blob: data:",
	"worker-src 'self' blob:",
	"object-src 'self' https: data:",
	"style-src 'self' 'unsafe-inline' https:",
	"img-src 'self' data: https: blob:",
	"font-src 'self' data: https:",
	"connect-src 'self' https: wss: blob: data:",
	"media-src 'self' https: blob: data:",
	"frame-src 'self' https:",
	"frame-ancestors 'self'",
}, "; ")

func setSecurityHeaders(h http.Header) {
	h.Set("Content-Security-Policy", contentSecurityPolicy)
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "no-referrer-when-downgrade")
}

// hopByHop headers apply to a single connection and are never forwarded.
var hopByHop = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// removeHopHeaders strips hop-by-hop headers, including any named in the
// Connection header.
func removeHopHeaders(h http.Header) {
	for _, v := range h.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopByHop {
		h.Del(name)
	}
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func isHTML(h http.Header) bool {
	ct := strings.ToLower(h.Get("Content-Type"))
	return strings.HasPrefix(strings.TrimSpace(ct), "text/html")
}
