package httpapi

import (
	"net/http"
	"strings"

	"dogloot/server/internal/token"
)

// bearerToken extracts and validates the Authorization header's syntactic
// shape: exactly "Bearer <32 hex chars>". It does not check whether the
// token is registered — that is unknownToken, a separate error kind from
// invalidToken.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	t := strings.TrimPrefix(header, prefix)
	if len(t) != token.Length {
		return "", false
	}
	for _, c := range t {
		if !isHexDigit(c) {
			return "", false
		}
	}
	return t, true
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func writeInvalidToken(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalidToken", "missing or malformed bearer token")
}

func writeUnknownToken(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unknownToken", "player token was not found")
}
