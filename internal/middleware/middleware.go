// Package middleware contains HTTP middleware for the fleet intake server.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler
// and are composed with Stack. Handlers that need per-session state are
// wrapped individually inside the ServeMux so the matched route pattern
// stays visible to the metrics middleware around it.
package middleware

import (
	"net/http"
	"strings"
)

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	intake := Stack(sessionMw.WithSession, csrfMw.Protect)
//	mux.Handle("POST /intake/submit", intake(submitHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// isAPIRequest determines if the request expects a JSON response.
//
// htmx requests always want HTML fragments. Otherwise a JSON Accept or
// Content-Type header, or an /api/ path, selects JSON.
func isAPIRequest(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// isSafeMethod reports whether the method never changes session state.
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
