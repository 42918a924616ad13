// Package handlers contains the HTTP handler implementations for the API.
//
// Handlers resolve their domain services through the Services locator at
// request time rather than holding constructed services: every integration
// is optional, so construction must stay lazy and per-request resolution
// surfaces the same configuration error the explicit getter would.
package handlers

import (
	"net/http"
	"strings"

	"appstarter/internal/cache"
	"appstarter/internal/media"
	"appstarter/internal/user"
)

// Services is the service locator contract the handlers depend on.
// Satisfied by *registry.Registry; tests substitute fakes.
type Services interface {
	UserService() (user.Service, error)
	CacheService() (cache.Service, error)
	MediaService() (media.Service, error)
}

// ClientIP extracts the caller's IP for rate limiting: the first hop of
// X-Forwarded-For, then X-Real-IP, then the transport address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}

	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	if host == "" {
		return "unknown"
	}
	return host
}
