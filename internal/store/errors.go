package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the note does not exist or belongs to another user.
	ErrNotFound = errors.New("note not found")

	// ErrInvalidInput is returned for empty or oversized note text.
	ErrInvalidInput = errors.New("invalid input")
)

// StorageError wraps a driver or transaction failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
