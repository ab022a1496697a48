package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidID indicates a malformed entity identifier. It is distinct from
// a not-found condition: the id could never name an entity.
var ErrInvalidID = errors.New("invalid identifier")

// ErrNotFound indicates the referenced entity does not exist. Storage layers
// surface it so callers can tell a missing record from an outage.
var ErrNotFound = errors.New("record not found")

// ValidateID checks that the provided string is a well-formed entity id.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// FoldName normalizes usernames and email addresses for case-insensitive
// matching and uniqueness.
func FoldName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
