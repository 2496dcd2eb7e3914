package middleware

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/sha3"
)

// APIKeyHeader is the request header holding the shared secret.
const APIKeyHeader = "x-api-key"

// APIKey rejects requests whose x-api-key header does not equal key. An empty
// key rejects everything. Keys are compared as SHA3-256 digests in constant time.
func APIKey(key string) func(http.Handler) http.Handler {
	want := sha3.Sum256([]byte(key))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(APIKeyHeader)
			have := sha3.Sum256([]byte(got))
			if key == "" || got == "" || subtle.ConstantTimeCompare(have[:], want[:]) != 1 {
				w.Header().Set("WWW-Authenticate", "ApiKey")
				writeJSONError(w, http.StatusUnauthorized, map[string]string{
					"error":   "Unauthorized",
					"message": "Invalid or missing API key",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
