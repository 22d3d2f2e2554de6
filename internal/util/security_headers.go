package util

import (
	"net/http"
	"strings"
)

// WithSecurityHeaders sets response headers for a JSON API consumed
// cross-origin by a browser client. Nothing served here is a document,
// so the CSP denies every source outright.
func WithSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "geolocation=(), camera=(), microphone=()")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		// The web client fetches critique JSON and synthesized audio from
		// another origin.
		h.Set("Cross-Origin-Resource-Policy", "cross-origin")

		// HSTS is only meaningful once the request arrived over TLS,
		// directly or via the proxy.
		if r.TLS != nil || strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https") {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}
