package gate

import (
	"net/http"
	"strings"
)

// ClientIP extracts the client address from proxy headers, in order of
// trust: X-Forwarded-For (first entry), X-Real-IP, CF-Connecting-IP. With no
// proxy header present the request is assumed local.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	return "127.0.0.1"
}
