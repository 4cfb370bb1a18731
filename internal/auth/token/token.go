// Package token signs and verifies the session cookie value. The cookie
// carries an HS256 JWT whose subject is the session ID; all authentication
// state stays server-side, the signature only stops token forgery.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"playdex/internal/sentinel"
)

const issuer = "playdex"

// Codec issues and parses signed session tokens.
type Codec struct {
	signingKey []byte
	ttl        time.Duration
}

// NewCodec builds a codec signing with the given key. Tokens expire ttl
// after issue, matching the absolute session lifetime.
func NewCodec(signingKey string, ttl time.Duration) *Codec {
	return &Codec{signingKey: []byte(signingKey), ttl: ttl}
}

// Issue signs a token for the given session ID.
func (c *Codec) Issue(sessionID uuid.UUID, now time.Time) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sessionID.String(),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	})
	signed, err := newToken.SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the session ID it names. Expired tokens
// map to sentinel.ErrExpired; anything else that fails verification maps to
// sentinel.ErrInvalidInput.
func (c *Codec) Parse(tokenString string) (uuid.UUID, error) {
	if tokenString == "" {
		return uuid.Nil, fmt.Errorf("empty session token: %w", sentinel.ErrInvalidInput)
	}

	claims := new(jwt.RegisteredClaims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm %q", t.Method.Alg())
		}
		return c.signingKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, fmt.Errorf("session token expired: %w", sentinel.ErrExpired)
		}
		return uuid.Nil, fmt.Errorf("session token rejected: %w", sentinel.ErrInvalidInput)
	}
	if !parsed.Valid {
		return uuid.Nil, fmt.Errorf("session token rejected: %w", sentinel.ErrInvalidInput)
	}

	sessionID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("session token subject is not a session id: %w", sentinel.ErrInvalidInput)
	}
	return sessionID, nil
}
