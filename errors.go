package fileit

import "errors"

var (
	// ErrNotFound is returned when a book, object, or user does not exist
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when a credential or signature check fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnsupportedType is returned when an uploaded document cannot be converted
	ErrUnsupportedType = errors.New("unsupported content type")
	// ErrNotSupported is returned when the storage backend lacks an optional capability
	ErrNotSupported = errors.New("not supported")
)
