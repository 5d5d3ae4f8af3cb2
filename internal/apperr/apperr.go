// Package apperr defines the error kinds surfaced to API clients and their HTTP statuses.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrMissingToken          = errors.New("missing token")
	ErrMalformedToken        = errors.New("malformed token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrForbidden             = errors.New("forbidden")
	ErrBadRequest            = errors.New("bad request")
	ErrInternal              = errors.New("internal")
)

type kind struct {
	err    error
	status int
}

// Order matters: the first sentinel found in the chain decides the status.
var kinds = []kind{
	{ErrInvalidCredentials, http.StatusUnauthorized},
	{ErrMissingToken, http.StatusUnauthorized},
	{ErrMalformedToken, http.StatusUnauthorized},
	{ErrInvalidOrExpiredToken, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrBadRequest, http.StatusBadRequest},
}

// Status returns the HTTP status for err. Unrecognised errors are internal failures.
func Status(err error) int {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing message for err. Auth failures keep the
// generic sentinel text; bad requests keep their detail since it only echoes input.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrBadRequest):
		return err.Error()
	case IsInternal(err):
		return ErrInternal.Error()
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err.Error()
		}
	}
	return ErrInternal.Error()
}

// IsInternal reports whether err is not one of the client-facing kinds.
func IsInternal(err error) bool {
	return Status(err) == http.StatusInternalServerError
}
