package auth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// ExtractToken returns the credential carried by r, checking the cookie
// first, then the Authorization header, then the "token" query parameter.
// Browsers cannot set headers on a websocket handshake, hence the fallbacks.
func ExtractToken(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}

	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		if token := strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix)); token != "" {
			return token
		}
	}

	return r.URL.Query().Get("token")
}
