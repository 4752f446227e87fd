package ratelimit

import (
	"net/http"
	"strings"
)

// KeyFunc extracts the throttle key from a request.
type KeyFunc func(r *http.Request) string

// ParseStrategy maps a declared key strategy to its extractor:
// "ip" (the default), "header:<name>", or "endpoint" (method + path).
func ParseStrategy(strategy string) KeyFunc {
	switch {
	case strategy == "endpoint":
		return EndpointKeyFunc
	case strings.HasPrefix(strategy, "header:"):
		return HeaderKeyFunc(strings.TrimPrefix(strategy, "header:"))
	default:
		return IPKeyFunc
	}
}

// IPKeyFunc keys attempts by client IP.
func IPKeyFunc(r *http.Request) string {
	return ClientIP(r)
}

// HeaderKeyFunc keys attempts by a header value, falling back to the
// client IP when the header is absent.
func HeaderKeyFunc(header string) KeyFunc {
	return func(r *http.Request) string {
		if value := r.Header.Get(header); value != "" {
			return value
		}
		return ClientIP(r)
	}
}

// EndpointKeyFunc keys attempts by method and path, so every caller
// shares one budget per endpoint.
func EndpointKeyFunc(r *http.Request) string {
	return r.Method + ":" + r.URL.Path
}

// RouteKeyFunc scopes a base key to one route, so distinct routes with
// the same policy keep separate counters.
func RouteKeyFunc(routeID string, base KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		return routeID + ":" + base(r)
	}
}

// ClientIP extracts the client IP, honoring the usual proxy headers
// before falling back to the connection address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		ip = ip[:i]
	}
	ip = strings.TrimPrefix(ip, "[")
	return strings.TrimSuffix(ip, "]")
}
