package domain

import (
	"context"
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeConflict   = "CONFLICT"
)

var (
	ErrEmptyQuery        = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrInvalidSearchMode = NewDomainError(ErrCodeValidation, "invalid search mode")
	ErrSessionNotFound   = NewDomainError(ErrCodeNotFound, "session not found")
	ErrTurnInProgress    = NewDomainError(ErrCodeConflict, "a turn is already in progress for this session")
)

// Causes wrapped by segment and turn validation errors.
var (
	ErrInvalidSegment = errors.New("invalid segment")
	ErrInvalidTurn    = errors.New("invalid turn")
)

// ErrorKind classifies failures of calls to external collaborators.
type ErrorKind string

const (
	KindUnavailable     ErrorKind = "unavailable"
	KindTimeout         ErrorKind = "timeout"
	KindInvalidResponse ErrorKind = "invalid_response"
)

// AdapterError is returned by every adapter that talks to an external service
// (vector store, web search, generative model).
type AdapterError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError creates an AdapterError of the given kind.
func NewAdapterError(kind ErrorKind, op string, err error) *AdapterError {
	return &AdapterError{Kind: kind, Op: op, Err: err}
}

// ClassifyError wraps err as an AdapterError. Context deadlines become
// KindTimeout; existing adapter errors keep their kind; everything else is
// KindUnavailable.
func ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewAdapterError(KindTimeout, op, err)
	}
	return NewAdapterError(KindUnavailable, op, err)
}

// KindOf returns the ErrorKind of err, or "" when err is not an AdapterError.
func KindOf(err error) ErrorKind {
	var adapterErr *AdapterError
	if errors.As(err, &adapterErr) {
		return adapterErr.Kind
	}
	return ""
}
