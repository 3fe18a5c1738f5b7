package domain

import "errors"

var (
	// ErrInvalidInput marks requests rejected before any processing.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the referenced session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrSessionClosed means the session already reached a terminal status.
	ErrSessionClosed = errors.New("session is not active")

	// ErrUnavailable is the generic "try again" condition for text
	// generation paths that have no deterministic fallback.
	ErrUnavailable = errors.New("interviewer temporarily unavailable")

	// ErrTurnPending means the last answer is still waiting for an
	// interviewer reply and a different answer was submitted.
	ErrTurnPending = errors.New("interviewer reply pending")
)
