package repository

import "errors"

var (
	// ErrNotFound is returned when a requested row doesn't exist for the
	// requesting owner.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a repository rejects its input.
	ErrInvalidInput = errors.New("invalid input")
)
