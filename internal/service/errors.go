package service

import "errors"

// ErrNotFound indicates the requested resource was not found, or belongs to
// another organization.
var ErrNotFound = errors.New("not found")

// ErrForbidden indicates the caller is authenticated but may not perform the
// operation on this particular target.
var ErrForbidden = errors.New("forbidden")

// ValidationError represents a bad-request condition (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError represents a conflict condition (HTTP 409).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func validationErr(msg string) error { return &ValidationError{Message: msg} }

func conflictErr(msg string) error { return &ConflictError{Message: msg} }
