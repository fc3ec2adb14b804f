package repository

import "errors"

var (
	// ErrNotFound is returned when a requested key does not exist.
	ErrNotFound = errors.New("entity not found")
)
