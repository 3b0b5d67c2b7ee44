// Package exception provides the error taxonomy for the emissions data core.
// All failures surfaced by the core are classified by Kind so that callers can
// distinguish connection faults, query faults, alignment faults and upload
// faults without inspecting message text.
package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind identifies the failure category of an AppError.
type Kind int

const (
	// KindConnection indicates the warehouse was unreachable or rejected
	// authentication. Fatal to the current operation; never retried here.
	KindConnection Kind = iota
	// KindQuery indicates malformed SQL or a missing warehouse object.
	KindQuery
	// KindAlignment indicates an input table is missing its expected
	// timestamp column. No partial alignment is attempted.
	KindAlignment
	// KindUpload indicates a failure in one of the staging/copy sub-steps.
	// Uploads are not atomic; see the upload package documentation.
	KindUpload
)

// String returns the human-readable name of the Kind.
func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindQuery:
		return "query"
	case KindAlignment:
		return "alignment"
	case KindUpload:
		return "upload"
	default:
		return "unknown"
	}
}

// AppError is the error type produced by the emissions data core.
// It carries the failure kind, the module that raised it, the failed sub-step
// (uploads only), the wrapped original error and a stack trace for debugging.
type AppError struct {
	// Kind is the failure category.
	Kind Kind
	// Module names the component that raised the error (e.g. "fetch", "upload").
	Module string
	// Step names the failed sub-step for upload errors (e.g. "stage", "copy").
	// Empty for other kinds.
	Step string
	// Message is a concise description of the failure.
	Message string
	// OriginalErr is the wrapped underlying error, if any.
	OriginalErr error
	// StackTrace is the stack captured when the error was created.
	StackTrace string
}

// newAppError creates an AppError capturing the current stack.
func newAppError(kind Kind, module, message string, originalErr error) *AppError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &AppError{
		Kind:        kind,
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		StackTrace:  string(buf[:n]),
	}
}

// NewConnectionError creates an AppError of KindConnection.
func NewConnectionError(module, message string, originalErr error) *AppError {
	return newAppError(KindConnection, module, message, originalErr)
}

// NewQueryError creates an AppError of KindQuery.
func NewQueryError(module, message string, originalErr error) *AppError {
	return newAppError(KindQuery, module, message, originalErr)
}

// NewAlignmentError creates an AppError of KindAlignment.
func NewAlignmentError(module, message string, originalErr error) *AppError {
	return newAppError(KindAlignment, module, message, originalErr)
}

// NewUploadError creates an AppError of KindUpload. step names the
// staging/copy sub-step that failed so operators can reconcile target-table
// state by hand.
func NewUploadError(module, step, message string, originalErr error) *AppError {
	e := newAppError(KindUpload, module, message, originalErr)
	e.Step = step
	return e
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Step != "" {
		if e.OriginalErr != nil {
			return fmt.Sprintf("[%s] %s (step %s): %s: %v", e.Module, e.Kind, e.Step, e.Message, e.OriginalErr)
		}
		return fmt.Sprintf("[%s] %s (step %s): %s", e.Module, e.Kind, e.Step, e.Message)
	}
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Module, e.Kind, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Module, e.Kind, e.Message)
}

// Unwrap returns the wrapped original error.
func (e *AppError) Unwrap() error {
	return e.OriginalErr
}

// IsKind reports whether err (or any error it wraps) is an AppError of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// StepOf returns the failed sub-step recorded on err, or "" if err is not an
// AppError or carries no step.
func StepOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Step
	}
	return ""
}
