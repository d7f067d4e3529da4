// security.go - Security headers for all responses.
package server

import "net/http"

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME sniffing on downloaded content.
		w.Header().Set("X-Content-Type-Options", "nosniff")
		// This is a JSON/byte-stream API; never allow framing.
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
