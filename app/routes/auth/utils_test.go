package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct-horse-battery" {
		t.Fatal("password stored in the clear")
	}
	if !CheckPasswordHash("correct-horse-battery", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("wrong-password", hash) {
		t.Error("wrong password accepted")
	}
}

func TestGenerateSessionID(t *testing.T) {
	a, b := GenerateSessionID(), GenerateSessionID()
	if a == uuid.Nil || b == uuid.Nil {
		t.Fatal("nil session id generated")
	}
	if a == b {
		t.Error("session ids must be unique")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	sessionID := GenerateSessionID().String()
	token, err := GenerateJWT("user-1", "parent@example.com", "Jane", "Wanjiru", sessionID, []string{"parent"})
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "parent@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.SessionID != sessionID {
		t.Errorf("session id = %q, want %q", claims.SessionID, sessionID)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "parent" {
		t.Errorf("roles = %v, want [parent]", claims.Roles)
	}
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	if _, err := ValidateJWT("not-a-token"); err == nil {
		t.Error("malformed token accepted")
	}
}
