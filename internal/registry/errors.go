package registry

import (
	"errors"

	"scoria/internal/state"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrAddressNotFound = errors.New("address not found")
	ErrUnknownMessage  = errors.New("unknown message")

	// Re-exported so callers can classify every registry error from one package.
	ErrUninitialized  = state.ErrUninitialized
	ErrStorageFailure = state.ErrStorageFailure
)
