package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrDatabase      = errors.New("database error")
	ErrExport        = errors.New("export error")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// DatabaseError wraps a failure reported by the XML database or its connection.
// It matches both ErrDatabase and the underlying cause with errors.Is.
type DatabaseError struct {
	Op       string
	Database string
	Err      error
}

func (e *DatabaseError) Error() string {
	if e.Database != "" {
		return fmt.Sprintf("database %s: %s: %v", e.Database, e.Op, e.Err)
	}
	return fmt.Sprintf("database: %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() []error { return []error{ErrDatabase, e.Err} }

// NewDatabaseError wraps err for operation op against database db.
func NewDatabaseError(op, db string, err error) *DatabaseError {
	return &DatabaseError{Op: op, Database: db, Err: err}
}
