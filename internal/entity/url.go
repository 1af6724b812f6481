// Package entity defines the entities and errors used in the application.
// It includes the ShortURL and User structs, the pagination and sorting
// parameters shared by list operations, and the sentinel errors returned by
// the repository and use case layers.
package entity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxSlugLength is the maximum length of a normalized slug.
	MaxSlugLength = 64
	// MaxIdentLength is the maximum length of a stored identifier.
	MaxIdentLength = 64
)

var (
	slugSpaceRe = regexp.MustCompile(`\s+`)
	slugRe      = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

// ShortURL represents a shortened URL.
type ShortURL struct {
	ID          int64      // ID is the unique identifier of the record in the database.
	Ident       string     // Ident is the generated public key used in redirect paths.
	Origin      string     // Origin is the full URL the identifier resolves to.
	Slug        *string    // Slug is an optional human-chosen alternative key.
	OwnerID     uuid.UUID  // OwnerID is the ID of the user who created the record.
	Views       int64      // Views is the number of successful redirects.
	CreatedAt   time.Time  // CreatedAt is the timestamp when the record was created.
	ExpiresAt   *time.Time // ExpiresAt is the optional moment after which the record stops resolving.
	LastVisitAt *time.Time // LastVisitAt is the timestamp of the most recent redirect.
}

// IsExpired reports whether the record has an expiration that is not after now.
func (u *ShortURL) IsExpired(now time.Time) bool {
	return u.ExpiresAt != nil && !u.ExpiresAt.After(now)
}

// IsOwnedBy reports whether the record belongs to the user with the given ID.
func (u *ShortURL) IsOwnedBy(userID uuid.UUID) bool {
	return u.OwnerID == userID
}

// Lifetime returns the original expiration window of the record.
// It returns false if the record never expires.
func (u *ShortURL) Lifetime() (time.Duration, bool) {
	if u.ExpiresAt == nil {
		return 0, false
	}
	return u.ExpiresAt.Sub(u.CreatedAt), true
}

// NormalizeSlug trims the slug, lowercases it and replaces runs of
// whitespace with a single dash.
func NormalizeSlug(slug string) string {
	slug = strings.ToLower(strings.TrimSpace(slug))
	return slugSpaceRe.ReplaceAllString(slug, "-")
}

// ValidSlug reports whether a normalized slug contains only lowercase
// letters, digits, dashes and underscores and fits MaxSlugLength.
func ValidSlug(slug string) bool {
	return len(slug) <= MaxSlugLength && slugRe.MatchString(slug)
}

// ShortURLFilter narrows down list queries over short URLs.
type ShortURLFilter struct {
	OwnerID *uuid.UUID // OwnerID restricts results to a single owner when set.
}
