package auth

import (
	"errors"
	"fmt"

	"github.com/vadimbarashkov/shortener/internal/entity"
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the given bcrypt cost.
// A cost of zero selects bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the salted bcrypt hash of the password.
func (h *Hasher) Hash(password string) (string, error) {
	const op = "auth.Hasher.Hash"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%s: %w", op, entity.ErrPasswordTooLong)
		}
		return "", fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	return string(hash), nil
}

// Verify reports whether the password matches the hash.
func (h *Hasher) Verify(hash, password string) (bool, error) {
	const op = "auth.Hasher.Verify"

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("%s: failed to compare password: %w", op, err)
	}

	return true, nil
}
