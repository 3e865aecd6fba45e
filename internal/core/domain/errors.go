package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks request validation failures caught before any I/O.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a missing referenced entity (department, semester,
	// document). Ingestion naming an unknown department fails the record.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks a non-success response from the embedding, rerank or
	// parse services. Retryable at the call site.
	ErrUpstream = errors.New("upstream failure")
	// ErrParse marks a document whose structure is missing expected elements,
	// so batch ingestion can skip one malformed record without aborting.
	ErrParse = errors.New("parse failure")
	// ErrTemporary marks transient infrastructure failures.
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
