package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestResolveSourceIP(t *testing.T) {
	tests := []struct {
		name         string
		forwardedFor string
		peer         string
		want         string
	}{
		{"no forwarded header", "", "196.201.214.200", "196.201.214.200"},
		{"single forwarded entry", "196.201.214.200", "10.0.0.1", "196.201.214.200"},
		{"first of chain wins", "196.201.214.200, 10.0.0.2, 10.0.0.1", "10.0.0.1", "196.201.214.200"},
		{"whitespace trimmed", "  196.201.214.200 , 10.0.0.1", "10.0.0.1", "196.201.214.200"},
		{"empty header falls back to peer", " , ", "10.0.0.1", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveSourceIP(tt.forwardedFor, tt.peer); got != tt.want {
				t.Errorf("resolveSourceIP(%q, %q) = %q, want %q", tt.forwardedFor, tt.peer, got, tt.want)
			}
		})
	}
}

func TestIsOriginAllowed(t *testing.T) {
	allowed := []string{"196.201.214.200", "196.201.214.206"}

	if !isOriginAllowed(allowed, "196.201.214.206") {
		t.Error("listed address rejected")
	}
	if isOriginAllowed(allowed, "10.0.0.1") {
		t.Error("unlisted address accepted")
	}
	if !isOriginAllowed(nil, "10.0.0.1") {
		t.Error("empty allowlist must accept everything")
	}
}

func TestVerifySignature(t *testing.T) {
	secret := "callback-secret"
	body := []byte(`{"Body":{"stkCallback":{"ResultCode":0}}}`)

	t.Run("valid signature", func(t *testing.T) {
		if !verifySignature(secret, body, signBody(secret, body)) {
			t.Error("valid signature rejected")
		}
	})

	t.Run("wrong signature", func(t *testing.T) {
		if verifySignature(secret, body, signBody("other-secret", body)) {
			t.Error("signature under wrong secret accepted")
		}
	})

	t.Run("tampered body", func(t *testing.T) {
		sig := signBody(secret, body)
		tampered := []byte(`{"Body":{"stkCallback":{"ResultCode":1}}}`)
		if verifySignature(secret, tampered, sig) {
			t.Error("signature over different body accepted")
		}
	})

	t.Run("missing signature", func(t *testing.T) {
		if verifySignature(secret, body, "") {
			t.Error("empty signature accepted while secret is set")
		}
	})

	t.Run("no secret disables verification", func(t *testing.T) {
		if !verifySignature("", body, "") {
			t.Error("unset secret must fail open")
		}
		if !verifySignature("", body, "garbage") {
			t.Error("unset secret must ignore any provided signature")
		}
	})
}
