// internal/api/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/newthinker/invert50/internal/api/response"
	"github.com/newthinker/invert50/internal/core"
)

// APIKeyAuth returns middleware that validates the X-API-Key header, or a bearer
// token in Authorization. An empty apiKey disables authentication.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get("X-API-Key")
			if providedKey == "" {
				providedKey, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			if providedKey == "" {
				response.Error(w, http.StatusUnauthorized,
					core.WrapError(core.ErrConfigMissing, errors.New("api key required")))
				return
			}

			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
				response.Error(w, http.StatusUnauthorized,
					core.WrapError(core.ErrConfigInvalid, errors.New("invalid api key")))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
