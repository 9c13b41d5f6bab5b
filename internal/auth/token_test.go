package auth

import (
	"testing"
	"time"
)

func newTestTokens(secret string) *Tokens {
	return NewTokens(TokenConfig{
		Secret: []byte(secret),
		Issuer: "race-server",
		TTL:    time.Hour,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := newTestTokens("test-secret")

	tok, err := tokens.Issue("room-1", "sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := tokens.Verify("room-1", "sess-1", tok); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestTokenRejectsWrongSession(t *testing.T) {
	tokens := newTestTokens("test-secret")

	tok, err := tokens.Issue("room-1", "sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := tokens.Verify("room-1", "sess-2", tok); err == nil {
		t.Fatal("token for another session must not verify")
	}
	if err := tokens.Verify("room-2", "sess-1", tok); err == nil {
		t.Fatal("token for another room must not verify")
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	minted := newTestTokens("secret-a")
	verifier := newTestTokens("secret-b")

	tok, err := minted.Issue("room-1", "sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := verifier.Verify("room-1", "sess-1", tok); err == nil {
		t.Fatal("token signed with a different secret must not verify")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	tokens := NewTokens(TokenConfig{
		Secret: []byte("test-secret"),
		Issuer: "race-server",
		TTL:    -time.Minute,
	})

	tok, err := tokens.Issue("room-1", "sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := tokens.Verify("room-1", "sess-1", tok); err == nil {
		t.Fatal("expired token must not verify")
	}
}

func TestTokenRejectsGarbage(t *testing.T) {
	tokens := newTestTokens("test-secret")

	if err := tokens.Verify("room-1", "sess-1", "not-a-jwt"); err == nil {
		t.Fatal("malformed token must not verify")
	}
}
