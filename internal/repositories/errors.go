package repositories

import (
	"errors"

	"github.com/clipstream/backend/internal/models"
)

var (
	// ErrNotFound indicates the requested record does not exist. It is the
	// models.ErrNotFound sentinel, so packages that cannot import this one
	// can still branch on the condition.
	ErrNotFound = models.ErrNotFound
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)
