package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expires, err := tm.GenerateToken("u-1", "alice", true)
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(expires) > 5*time.Minute {
		t.Errorf("expiry %v beyond ttl", expires)
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "u-1" || claims.Username != "alice" || !claims.Staff {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenRejections(t *testing.T) {
	issuer := NewTokenManager("secret", 1)
	token, _, err := issuer.GenerateToken("u-1", "alice", false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewTokenManager("other", 1).ParseToken(token); err == nil {
		t.Error("token accepted with the wrong secret")
	}

	late := NewTokenManager("secret", 1)
	late.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := late.ParseToken(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestHashPassword(t *testing.T) {
	if _, err := HashPassword("short", 4); err != ErrPasswordTooShort {
		t.Fatalf("HashPassword(short) err = %v", err)
	}
	hashed, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatal(err)
	}
	if ComparePassword(hashed, "correct horse") != nil {
		t.Error("matching password rejected")
	}
	if ComparePassword(hashed, "wrong horse") == nil {
		t.Error("wrong password accepted")
	}
}
