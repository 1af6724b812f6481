// Package ident generates short identifiers for URLs.
package ident

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrInvalidLength is returned when the requested identifier length is not positive.
var ErrInvalidLength = errors.New("length must be positive")

// Generate returns an identifier of the given length whose characters are
// sampled at random, with replacement, from the hex MD5 digest of origin.
//
// The digest is deterministic but the sampling is not, so two calls for the
// same origin usually return different identifiers. Uniqueness is left to the
// storage layer.
func Generate(origin string, length int) (string, error) {
	const op = "ident.Generate"

	if length <= 0 {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidLength)
	}

	sum := md5.Sum([]byte(origin))

	id, err := gonanoid.Generate(hex.EncodeToString(sum[:]), length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to sample digest: %w", op, err)
	}

	return id, nil
}
