package host

import (
	"errors"
	"net/http"

	"scoria/internal/registry"
	"scoria/internal/tx"
)

var (
	ErrAlreadyInstantiated = errors.New("already instantiated")
	ErrStaleNonce          = errors.New("stale nonce")
	ErrBadRequest          = errors.New("bad request")
	ErrInternal            = errors.New("internal error")
)

const (
	CodeUnauthorized        = "unauthorized"
	CodeAddressNotFound     = "address_not_found"
	CodeUninitialized       = "uninitialized"
	CodeAlreadyInstantiated = "already_instantiated"
	CodeStaleNonce          = "stale_nonce"
	CodeInvalidSignature    = "invalid_signature"
	CodeUnknownMessage      = "unknown_message"
	CodeBadRequest          = "bad_request"
	CodeStorageFailure      = "storage_failure"
	CodeInternal            = "internal"
)

var codes = []struct {
	err    error
	code   string
	status int
}{
	{registry.ErrUnauthorized, CodeUnauthorized, http.StatusForbidden},
	{registry.ErrAddressNotFound, CodeAddressNotFound, http.StatusNotFound},
	{registry.ErrUninitialized, CodeUninitialized, http.StatusConflict},
	{ErrAlreadyInstantiated, CodeAlreadyInstantiated, http.StatusConflict},
	{ErrStaleNonce, CodeStaleNonce, http.StatusConflict},
	{tx.ErrInvalidSignature, CodeInvalidSignature, http.StatusUnauthorized},
	{registry.ErrUnknownMessage, CodeUnknownMessage, http.StatusBadRequest},
	{ErrBadRequest, CodeBadRequest, http.StatusBadRequest},
	{registry.ErrStorageFailure, CodeStorageFailure, http.StatusInternalServerError},
}

// ErrorBody is the JSON payload of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Classify maps an error onto its wire code and HTTP status.
func Classify(err error) (string, int) {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code, c.status
		}
	}
	return CodeInternal, http.StatusInternalServerError
}

// ErrorFromCode is the inverse of Classify, used by clients to recover the
// sentinel behind a response.
func ErrorFromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return ErrInternal
}
