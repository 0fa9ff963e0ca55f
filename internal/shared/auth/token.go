package auth

import (
	"net/http"
	"strings"
)

// BearerToken returns the token carried by an Authorization header value, or "".
// The scheme match is case-insensitive.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// RequestToken looks for a token in the Authorization header first and then in the
// given query parameter (browsers cannot set headers on websocket upgrades).
func RequestToken(r *http.Request, queryParam string) string {
	if r == nil {
		return ""
	}
	if token := BearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if queryParam == "" || r.URL == nil {
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get(queryParam))
}
