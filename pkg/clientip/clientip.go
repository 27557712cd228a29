package clientip

import (
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

var trustProxy atomic.Bool

// TrustProxyHeaders makes RealClientIP honour X-Forwarded-For and X-Real-IP.
// Enable it only when the app sits behind a reverse proxy that overwrites
// those headers.
func TrustProxyHeaders(trust bool) {
	trustProxy.Store(trust)
}

// RealClientIP returns the client IP used for rate limiting and logging.
// By default only r.RemoteAddr is used.
func RealClientIP(r *http.Request) string {
	if trustProxy.Load() {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			// Left-most entry is the original client
			first, _, _ := strings.Cut(fwd, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}
