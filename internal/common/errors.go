// Package common defines shared constants and sentinel errors used across
// the holder service layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrDuplicateUser = errors.New("username or email already exists")
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// Service-level errors.
	ErrInternal           = errors.New("internal error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("inactive user")
	ErrValidation         = errors.New("validation error")
	ErrIntegrity          = errors.New("content integrity check failed")

	// Session token errors.
	ErrExpiredSession   = errors.New("session expired")
	ErrMalformedSession = errors.New("malformed session token")

	// Invitation and remote agent errors.
	ErrParse                 = errors.New("parse error")
	ErrUnrecognizedState     = errors.New("unrecognized state")
	ErrRemoteOperationFailed = errors.New("remote operation failed")
	ErrAgentUnreachable      = errors.New("agent unreachable")
)

// RemoteError is returned when the agent answers a request with a
// non-success status. It matches ErrRemoteOperationFailed.
type RemoteError struct {
	Op     string
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: agent returned %d: %s", e.Op, e.Status, e.Body)
}

func (e *RemoteError) Unwrap() error {
	return ErrRemoteOperationFailed
}
