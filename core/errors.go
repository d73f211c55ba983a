package core

import "github.com/pkg/errors"

var (
	ErrAuthenticationFailed = errors.New("invalid credentials")
	ErrMissingCredential    = errors.New("missing credentials")
	ErrInvalidCredential    = errors.New("invalid or expired credentials")
	ErrForbidden            = errors.New("permission denied")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError reports a write rejected by a uniqueness constraint.
type ConflictError struct {
	Err    error
	Fields []FieldError
}

func NewConflictError(err error, flds ...FieldError) error {
	return &ConflictError{err, flds}
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return "conflict"
	}
	return err.Err.Error()
}

// NotFoundError is returned by repositories when the requested record does not exist.
// Packages declare one as a sentinel, e.g. `ErrNotFound = core.NewNotFoundError("user")`.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

// DependencyError wraps the failure of an external service.
type DependencyError struct {
	Service string
	Err     error
}

func NewDependencyError(service string, err error) error {
	return &DependencyError{Service: service, Err: err}
}

func (err DependencyError) Error() string {
	if err.Err == nil {
		return err.Service + " unavailable"
	}
	return err.Service + ": " + err.Err.Error()
}

func (err DependencyError) Unwrap() error { return err.Err }

// IsDependencyError reports whether err was caused by an external service failure.
func IsDependencyError(err error) bool {
	_, ok := errors.Cause(err).(*DependencyError)
	return ok
}
