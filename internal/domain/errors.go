package domain

import "errors"

// Common domain errors
var (
	// Registry errors
	ErrInvalidArtifact = errors.New("invalid artifact")
	ErrInvalidName     = errors.New("invalid artifact name")
	ErrInvalidAlias    = errors.New("invalid alias")
	ErrEmptyContent    = errors.New("content cannot be empty")
	ErrNotFound        = errors.New("resource not found")

	// Dataset errors
	ErrEmptyDataset  = errors.New("dataset cannot be empty")
	ErrInvalidRecord = errors.New("invalid dataset record")

	// Harness errors
	ErrRetrievalFailed = errors.New("retrieval call failed")
	ErrRunDegraded     = errors.New("every configuration degraded")
	ErrEmptySpace      = errors.New("search space cannot be empty")

	// Optimizer errors
	ErrOptimizationFailed = errors.New("optimization failed")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state transition")
)

// DomainError wraps a domain error with additional context
type DomainError struct {
	Err     error
	Message string
	Code    string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewDomainError(err error, message string) *DomainError {
	return &DomainError{
		Err:     err,
		Message: message,
	}
}

func NewDomainErrorWithCode(err error, message, code string) *DomainError {
	return &DomainError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}
