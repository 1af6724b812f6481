// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vadimbarashkov/shortener/internal/entity"
)

// ErrUnsupportedAlgorithm is returned when the configured signing algorithm is not an HMAC one.
var ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// TokenManager signs and verifies access tokens that carry the username as subject.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager for the given HMAC algorithm (HS256, HS384 or HS512).
func NewTokenManager(secret, algorithm string, ttl time.Duration) (*TokenManager, error) {
	const op = "auth.NewTokenManager"

	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnsupportedAlgorithm, algorithm)
	}

	return &TokenManager{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue returns a signed token for the subject that expires after the configured TTL.
func (m *TokenManager) Issue(subject string) (string, error) {
	const op = "auth.TokenManager.Issue"

	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%s: failed to sign token: %w", op, err)
	}

	return token, nil
}

// Parse verifies the token and returns its subject.
// Every verification failure is reported as entity.ErrInvalidToken.
func (m *TokenManager) Parse(token string) (string, error) {
	const op = "auth.TokenManager.Parse"

	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, entity.ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%s: %w: missing subject", op, entity.ErrInvalidToken)
	}

	return claims.Subject, nil
}
