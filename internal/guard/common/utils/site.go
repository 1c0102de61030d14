package utils

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DestinationHost extracts the host from a URL, origin, or host:port string.
// It returns "" when no host can be found.
func DestinationHost(dest string) string {
	dest = CanonicalCandidate(dest)
	if dest == "" {
		return ""
	}
	if strings.Contains(dest, "://") {
		u, err := url.Parse(dest)
		if err != nil {
			return ""
		}
		return u.Hostname()
	}
	if host, _, err := net.SplitHostPort(dest); err == nil {
		return strings.Trim(host, "[]")
	}
	if i := strings.IndexAny(dest, "/?#"); i >= 0 {
		dest = dest[:i]
	}
	return strings.TrimSuffix(dest, ".")
}

// RegistrableDomain returns the eTLD+1 of the destination's host, the IP
// literal itself for IP hosts, or "" when neither applies.
func RegistrableDomain(dest string) string {
	host := DestinationHost(dest)
	if host == "" {
		return ""
	}
	if net.ParseIP(host) != nil {
		return host
	}
	site, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return site
}
