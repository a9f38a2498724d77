package store

import "github.com/tunescout/tunescout-server/internal/errors"

// Sentinel errors returned by store operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.ErrNotFound

	// ErrAlreadyExists is returned when creating an entity whose key is taken.
	ErrAlreadyExists = errors.ErrConflict
)
