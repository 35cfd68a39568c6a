package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrForeignKey is returned when a referenced row doesn't exist
	ErrForeignKey = errors.New("foreign key violation")
)
