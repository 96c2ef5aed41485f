// Package auth - session cookie signing.
//
// SESSION TOKEN DESIGN:
// The authoritative session lives server-side (a row in the sessions
// table). The cookie the browser holds is a signed JWT whose Subject is
// the session ID - opaque to the client, but self-verifying for us:
//
//  1. Signature check (no DB hit) rejects forged or expired cookies cheaply.
//  2. The session store lookup that follows is the real authority: logout
//     deletes the row, which revokes access even while the JWT is unexpired.
//
// So unlike a pure-JWT scheme, "logout" actually means something here.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "mannsakha"

// TokenService signs and verifies session cookies. It holds the HMAC
// secret - the same secret must be used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production
// (SESSION_SECRET=$(openssl rand -hex 32)).
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. The registered Subject claim carries the
// session ID.
type claims struct {
	jwt.RegisteredClaims
}

// Generate signs a session ID into a cookie token valid for ttl.
// The ttl should match the session row's expiry so both checks agree.
func (s *TokenService) Generate(sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a cookie token, returning the session ID.
//
// jwt.WithValidMethods pins HS256 - without it an attacker could attempt
// an algorithm-confusion downgrade. Expiry and issuer are checked by the
// library as well.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
