package chi

import (
	"net/http"
	"strings"
)

const codeUnauthorized errorCode = "unauthorized"

// BearerAuthMiddleware validates Bearer tokens against the configured key
// set. An empty key set disables authentication entirely. Health and
// metrics stay reachable without a token so probes keep working.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing or malformed authorization header")
				return
			}
			if _, ok := keys[token]; !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
