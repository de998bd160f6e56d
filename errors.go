package datasetkit

import (
	"errors"
	"fmt"
)

// Common acquisition errors
var (
	ErrNoFile       = errors.New("Please select a file to validate.") //nolint:staticcheck // shown to users verbatim
	ErrNotExist     = errors.New("file does not exist")
	ErrPermission   = errors.New("permission denied")
	ErrIsDir        = errors.New("is a directory")
	ErrNotDir       = errors.New("not a directory")
	ErrInvalidName  = errors.New("invalid name")
	ErrNotSupported = errors.New("operation not supported")
	ErrNotAllowed   = errors.New("operation not allowed")
	ErrTooLarge     = errors.New("file too large")
	ErrNotText      = errors.New("file is not valid UTF-8 text")
)

// PathError records an error and the operation and file path that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError creates a PathError
func NewPathError(op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Err: err}
}

// AcquisitionError reports that a file could not be read as text.
// It is surfaced on its own and never turned into verdict issues.
type AcquisitionError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("An unexpected error occurred: %v", e.Err)
}

// Unwrap returns the underlying error
func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// IsNotExist reports whether an error indicates that a file does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsPermission reports whether an error indicates that permission is denied
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission)
}

// IsAcquisitionError reports whether err came from reading a file
func IsAcquisitionError(err error) bool {
	var acqErr *AcquisitionError
	return errors.As(err, &acqErr)
}
