package util

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address for rate-limit keying. The
// X-Forwarded-For header is only honored when the direct peer is a
// loopback or private address (the reverse proxy in front of the API).
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer := net.ParseIP(host)
	if peer == nil || !(peer.IsLoopback() || peer.IsPrivate()) {
		return host
	}
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded == "" {
		return host
	}
	// First hop in the chain is the original client.
	first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
	if net.ParseIP(first) == nil {
		return host
	}
	return first
}
