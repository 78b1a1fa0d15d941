package shared

import "fmt"

// DomainError is the base error type for all domain errors
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(message string) *DomainError {
	return &DomainError{Message: message}
}

// ValidationError reports a field-level validation failure
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConcurrencyConflictError signals that a concurrent writer won the race.
// The operation is safe to retry with the same inputs.
type ConcurrencyConflictError struct {
	*DomainError
	Resource string
	ID       string
}

func NewConcurrencyConflictError(resource, id string) *ConcurrencyConflictError {
	return &ConcurrencyConflictError{
		DomainError: &DomainError{Message: fmt.Sprintf("concurrent modification of %s %s", resource, id)},
		Resource:    resource,
		ID:          id,
	}
}

// InternalError wraps a failure in a dependency that the caller cannot act on.
// The original cause is retained for logging but not exposed in the message.
type InternalError struct {
	*DomainError
	Cause error
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		DomainError: &DomainError{Message: message},
		Cause:       cause,
	}
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}
