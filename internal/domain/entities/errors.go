package entities

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the build pipeline. Match with errors.Is.
var (
	ErrInvalidRequest = errors.New("invalid build request")
	ErrIO             = errors.New("filesystem operation failed")
	ErrFetch          = errors.New("source fetch failed")
	ErrPatch          = errors.New("patch application failed")
	ErrCompile        = errors.New("compilation failed")
)

// BuildError ties a pipeline failure to its kind and the operation that failed
type BuildError struct {
	Kind error
	Op   string
	Err  error
}

func (e *BuildError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause
func (e *BuildError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewInvalidRequestError creates an error for a request rejected before any work
func NewInvalidRequestError(op string, err error) error {
	return &BuildError{Kind: ErrInvalidRequest, Op: op, Err: err}
}

// NewIOError creates an error for a failed filesystem operation
func NewIOError(op string, err error) error {
	return &BuildError{Kind: ErrIO, Op: op, Err: err}
}

// NewFetchError creates an error for a failed clone or reset
func NewFetchError(op string, err error) error {
	return &BuildError{Kind: ErrFetch, Op: op, Err: err}
}

// NewPatchError creates an error for a patch that did not apply
func NewPatchError(op string, err error) error {
	return &BuildError{Kind: ErrPatch, Op: op, Err: err}
}

// NewCompileError creates an error for a failed configure or build step
func NewCompileError(op string, err error) error {
	return &BuildError{Kind: ErrCompile, Op: op, Err: err}
}

// ErrorKind returns a short label for the kind of a pipeline error, or
// "unknown" when err does not carry one.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrPatch):
		return "patch"
	case errors.Is(err, ErrCompile):
		return "compile"
	default:
		return "unknown"
	}
}
