package session

import "errors"

var (
	// ErrNotFound means the identity has neither live nor durable state.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidIdentity means the identity is empty after normalization.
	ErrInvalidIdentity = errors.New("invalid session identity")

	// ErrConnection means the driver could not establish or keep a
	// connection after the retry policy was exhausted.
	ErrConnection = errors.New("connection failed")

	// ErrConnectionTimeout means a lifecycle command exceeded its bound
	// waiting for a state transition.
	ErrConnectionTimeout = errors.New("connection timed out")
)
