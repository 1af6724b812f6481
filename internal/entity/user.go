package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents an account that owns short URLs.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
}

// UserUpdate holds the profile fields a user may change. Nil fields are left untouched.
type UserUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
