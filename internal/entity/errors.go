package entity

import "errors"

var (
	// ErrIdentExists is returned when attempting to create a short URL with an identifier that already exists.
	ErrIdentExists = errors.New("identifier exists")
	// ErrSlugExists is returned when attempting to create a short URL with a slug that already exists.
	ErrSlugExists = errors.New("slug exists")
	// ErrURLNotFound is returned when a short URL cannot be found or is not visible to the requester.
	ErrURLNotFound = errors.New("url not found")
	// ErrURLExpired is returned when a short URL exists but its expiration has passed.
	ErrURLExpired = errors.New("url expired")
	// ErrInvalidSlug is returned when a slug contains unsupported characters after normalization.
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameExists is returned when a username is already taken.
	ErrUsernameExists = errors.New("username exists")
	// ErrEmailExists is returned when an email is already taken.
	ErrEmailExists = errors.New("email exists")

	// ErrPasswordTooLong is returned when a password exceeds what bcrypt can hash.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrInvalidCredentials is returned when the username or the password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a bearer token is missing, malformed or expired.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInactiveUser is returned when an authenticated user has been deactivated.
	ErrInactiveUser = errors.New("inactive user")
	// ErrForbidden is returned when a user lacks the privileges for an operation.
	ErrForbidden = errors.New("not enough privileges")

	// ErrInvalidSortField is returned when a list is requested with an unsupported sort field.
	ErrInvalidSortField = errors.New("invalid sort field")
)
