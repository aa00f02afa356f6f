// Package auth issues and validates session tokens and hashes passwords.
//
// Session tokens are HS256 JWTs carrying only the admin's email as the
// subject and an absolute expiry. They are not stored anywhere, so a token
// stays valid until it expires even if the account changes in between; the
// short fixed lifetime is the only revocation.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of every session token.
const TokenTTL = 5 * time.Minute

// TokenType is reported to clients alongside the token.
const TokenType = "bearer"

// Token errors
var (
	ErrExpired   = errors.New("token expired")
	ErrMalformed = errors.New("invalid token")
)

// TokenService handles JWT operations
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// Option configures a TokenService.
type Option func(*TokenService)

// WithClock replaces time.Now, so tests can move time forward.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret string, opts ...Option) *TokenService {
	s := &TokenService{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for identity that expires TokenTTL from now.
func (s *TokenService) Issue(identity string) (string, error) {
	now := s.now()

	claims := jwt.RegisteredClaims{
		Subject:   identity,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Validate checks the signature and expiry of tokenString and returns the
// identity it was issued for.
//
// The signature is verified before any claim, so a token that is both
// tampered with and expired reports ErrMalformed.
func (s *TokenService) Validate(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMalformed
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrMalformed)
	}

	return claims.Subject, nil
}
