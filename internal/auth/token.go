package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims binds a reconnect token to one session in one room.
type SessionClaims struct {
	RoomID    string `json:"room_id"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// TokenConfig holds reconnect token configuration.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// Tokens mints and validates reconnect tokens. A client that loses its
// connection proves ownership of its session by presenting the token it
// received at join.
type Tokens struct {
	cfg TokenConfig
}

// NewTokens builds a token service.
func NewTokens(cfg TokenConfig) *Tokens {
	return &Tokens{cfg: cfg}
}

// Issue creates a signed token for the given room/session pair.
func (t *Tokens) Issue(roomID, sessionID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RoomID:    roomID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.cfg.Secret)
}

// Verify parses the token and checks it was issued for this room/session.
func (t *Tokens) Verify(roomID, sessionID, tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.cfg.Secret, nil
	})
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("invalid token claims")
	}
	if t.cfg.Issuer != "" && claims.Issuer != t.cfg.Issuer {
		return fmt.Errorf("invalid issuer")
	}
	if claims.RoomID != roomID || claims.SessionID != sessionID {
		return fmt.Errorf("token does not match session")
	}
	return nil
}
