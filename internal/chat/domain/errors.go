package domain

import "errors"

var (
	// ErrStoreUnavailable the persistence medium is disabled, full or unreachable
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrMalformedSnapshot a stored key could not be decoded
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	// ErrInvalidInput empty text or username
	ErrInvalidInput = errors.New("invalid input")
	// ErrWriteConflict other writers kept moving the clock during every update attempt
	ErrWriteConflict = errors.New("write conflict")
	// ErrContextClosed the context was torn down and takes no more writes
	ErrContextClosed = errors.New("context closed")
)
