package entities

import "errors"

// Storage-independent errors shared by every backend.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("already exists")
	ErrInvalidStatus = errors.New("invalid reading status")
)
