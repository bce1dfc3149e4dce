package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// resolveSourceIP picks the callback's source address, preferring the first
// entry of a forwarded-for header over the transport-level peer address.
func resolveSourceIP(forwardedFor, peer string) string {
	if forwardedFor != "" {
		first := strings.Split(forwardedFor, ",")[0]
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return peer
}

// isOriginAllowed checks the source address against the allowlist. An empty
// allowlist allows everything; the fail-open is logged at startup and on
// every accepted callback.
func isOriginAllowed(allowed []string, source string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, ip := range allowed {
		if ip == source {
			return true
		}
	}
	return false
}

// verifySignature recomputes an HMAC-SHA256 over the exact raw request body
// and compares it against the provided hex signature in constant time. An
// empty secret disables verification (fail-open, logged).
func verifySignature(secret string, rawBody []byte, providedSignature string) bool {
	if secret == "" {
		return true
	}
	if len(rawBody) == 0 || providedSignature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	computed := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(computed), []byte(providedSignature))
}
