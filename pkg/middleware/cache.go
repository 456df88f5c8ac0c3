package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// CacheControl marks GET and HEAD responses cacheable for maxAge.
// Authenticated routes should pass private=true so shared caches skip them.
// Every other request is marked no-store.
func CacheControl(maxAge time.Duration, private bool) func(http.Handler) http.Handler {
	scope := "public"
	if private {
		scope = "private"
	}
	cacheable := fmt.Sprintf("%s, max-age=%d", scope, int(maxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				w.Header().Set("Cache-Control", cacheable)
			} else {
				w.Header().Set("Cache-Control", "no-store")
			}
			next.ServeHTTP(w, r)
		})
	}
}
