package state

import (
	"errors"
	"fmt"
)

var (
	ErrUninitialized  = errors.New("owner not initialized")
	ErrStorageFailure = errors.New("storage failure")

	errNoStore = errors.New("store is required")
)

// StorageError reports a rejected read or write on the backing store, or a
// stored payload that could not be decoded. It matches ErrStorageFailure.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}
