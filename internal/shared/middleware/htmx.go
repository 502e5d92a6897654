// Package middleware holds the HTTP middleware shared by the web surfaces.
package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const (
	htmxKey  contextKey = "htmx"
	ownerKey contextKey = "owner"
)

// HTMXRequest describes the htmx headers of a request.
type HTMXRequest struct {
	Enabled bool
	Target  string
	Boosted bool
}

// HTMX records whether the request came from htmx so handlers can answer with a
// fragment instead of a full page.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := HTMXRequest{
			Enabled: r.Header.Get("HX-Request") == "true",
			Target:  r.Header.Get("HX-Target"),
			Boosted: r.Header.Get("HX-Boosted") == "true",
		}
		w.Header().Add("Vary", "HX-Request")
		ctx := context.WithValue(r.Context(), htmxKey, req)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IsHTMX reports whether the request wants a fragment. Boosted navigation gets a
// full page.
func IsHTMX(r *http.Request) bool {
	req, ok := r.Context().Value(htmxKey).(HTMXRequest)
	return ok && req.Enabled && !req.Boosted
}

// HTMXTarget returns the id of the element htmx will swap.
func HTMXTarget(r *http.Request) string {
	req, _ := r.Context().Value(htmxKey).(HTMXRequest)
	return req.Target
}
