package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrConstraint indicates a constraint violation: a duplicate item path
	// or a missing required field
	ErrConstraint = errors.New("constraint violation")

	// ErrNotFound indicates an operation on a non-existent record
	ErrNotFound = errors.New("not found")

	// ErrTxFailed indicates the underlying storage commit failed; the
	// in-flight operation has been rolled back
	ErrTxFailed = errors.New("transaction failed")

	// ErrIndexDesync indicates an index write was attempted outside a write
	// transaction. Treated as a programming error, not a runtime condition
	ErrIndexDesync = errors.New("search index desync")

	// ErrUnsupported indicates a file format is not supported
	ErrUnsupported = errors.New("unsupported")

	// ErrInvalidQuery indicates a query string could not be parsed
	ErrInvalidQuery = errors.New("invalid query")
)
