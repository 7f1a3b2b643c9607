package openapi

import (
	"fmt"
	"strings"
)

// OperationNotFoundError is returned when an operation id is not part of the
// indexed document. Ids normally come from the same document, so this points
// at a programming or configuration mistake rather than bad user input.
type OperationNotFoundError struct {
	OperationID string
}

func (e *OperationNotFoundError) Error() string {
	return fmt.Sprintf("invalid operation id %q", e.OperationID)
}

// DuplicateOperationError reports two operations sharing one operationId.
type DuplicateOperationError struct {
	OperationID string
	First       string // "GET /path"
	Second      string
}

func (e *DuplicateOperationError) Error() string {
	return fmt.Sprintf("duplicate operationId %q (%s conflicts with %s)", e.OperationID, e.Second, e.First)
}

// SchemaResolutionError is returned for malformed or dangling schema references.
type SchemaResolutionError struct {
	OperationID string
	Ref         string
	Reason      string
}

func (e *SchemaResolutionError) Error() string {
	if e.OperationID == "" {
		return fmt.Sprintf("cannot resolve schema %q: %s", e.Ref, e.Reason)
	}
	return fmt.Sprintf("operation %q: cannot resolve schema %q: %s", e.OperationID, e.Ref, e.Reason)
}

// ValidationError is returned when a request payload does not satisfy the
// operation's request body schema.
type ValidationError struct {
	SchemaName string
	Problems   []string
	Err        error
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("payload does not match schema %q", e.SchemaName)
	}
	return fmt.Sprintf("payload does not match schema %q:\n  %s", e.SchemaName, strings.Join(e.Problems, "\n  "))
}

func (e *ValidationError) Unwrap() error { return e.Err }
