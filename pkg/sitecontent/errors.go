package sitecontent

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error types
var (
	// ErrNotFound indicates no item exists for the requested key
	ErrNotFound = errors.New("content item not found")

	// ErrDuplicateKey indicates an item with the same id already exists
	ErrDuplicateKey = errors.New("content item already exists")

	// ErrInvalidContentType indicates a content type outside the known set
	ErrInvalidContentType = errors.New("invalid content type")

	// ErrInvalidContentStatus indicates a status outside the known set
	ErrInvalidContentStatus = errors.New("invalid content status")
)

// FieldError describes one invalid field of a request.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every invalid field of a request, not only the first.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ItemError represents an error related to an item operation
type ItemError struct {
	ID  string
	Op  string
	Err error
}

func (e *ItemError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("content operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("content operation %s failed for item %s: %v", e.Op, e.ID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// StorageError represents a repository or transport failure. The service
// never retries these; callers may.
type StorageError struct {
	Backend string
	Op      string
	Key     string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage operation %s failed on backend %s: %v", e.Op, e.Backend, e.Err)
	}
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ErrorCategory groups errors the way the HTTP façade reports them.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation_error"
	CategoryDuplicate  ErrorCategory = "duplicate_key"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryStorage    ErrorCategory = "storage_error"
	CategoryInternal   ErrorCategory = "internal_error"
)

// Category classifies err into one of the error categories.
func Category(err error) ErrorCategory {
	var validationErr *ValidationError
	var storageErr *StorageError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return CategoryValidation
	case errors.Is(err, ErrDuplicateKey):
		return CategoryDuplicate
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.As(err, &storageErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return CategoryStorage
	default:
		return CategoryInternal
	}
}
