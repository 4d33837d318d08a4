package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerAuth gates a route group behind a static token allow-list.
// Every configured token is compared in constant time.
func BearerAuth(tokens []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, prefix) {
				unauthorized(w)
				return
			}
			presented := []byte(strings.TrimPrefix(header, prefix))
			ok := false
			for _, token := range tokens {
				if subtle.ConstantTimeCompare([]byte(token), presented) == 1 {
					ok = true
				}
			}
			if !ok {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "incorrect token")
}
