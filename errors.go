// Package diskbench is the public facade tying the platform/queue/integrity/
// workload/worker/sweep/stats packages together for external callers, plus
// the error taxonomy and report types shared by all of them.
package diskbench

import (
	"errors"
	"fmt"
)

// ErrorCode is diskbench's high-level error taxonomy (spec.md §7).
type ErrorCode string

const (
	// ErrCodeArgument marks a malformed CLI invocation, caught before any I/O.
	ErrCodeArgument ErrorCode = "argument error"

	// ErrCodeOpenFailed marks a file-open or sizing failure on a target.
	ErrCodeOpenFailed ErrorCode = "open failed"

	// ErrCodeSubmitFailed marks an adapter submission failure (SubmitRead/SubmitWrite).
	ErrCodeSubmitFailed ErrorCode = "submit failed"

	// ErrCodeReapFailed marks a completion-reap failure (Queue.Wait/Barrier).
	ErrCodeReapFailed ErrorCode = "reap failed"

	// ErrCodeIntegrity marks a data-pattern mismatch detected on read.
	ErrCodeIntegrity ErrorCode = "integrity error"

	// ErrCodeInvalidParameters marks an internally-inconsistent configuration
	// (e.g. a queue depth the buffer region cannot support).
	ErrCodeInvalidParameters ErrorCode = "invalid parameters"
)

// Error is diskbench's structured error: an operation, a target file (if
// applicable), a high-level code, and the wrapped cause.
type Error struct {
	Op     string    // operation that failed, e.g. "platform.Open", "queue.SubmitWrite"
	Target string    // file path or device, empty if not file-scoped
	Code   ErrorCode
	Msg    string
	Inner  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Target != "" {
		parts = append(parts, fmt.Sprintf("target=%s", e.Target))
	}

	msg := e.Msg
	if msg == "" && e.Inner != nil {
		msg = e.Inner.Error()
	}
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("diskbench: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("diskbench: %s", msg)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparison by Code against another *Error.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewError builds a structured error with no target file.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewFileError builds a structured error scoped to a target file.
func NewFileError(op, target string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Target: target, Code: code, Msg: msg}
}

// WrapError wraps an existing error under a diskbench operation and code,
// preserving it as Inner for errors.Unwrap/errors.As.
func WrapError(op string, code ErrorCode, inner error) *Error {
	if inner == nil {
		return nil
	}
	if de, ok := inner.(*Error); ok {
		return &Error{Op: op, Target: de.Target, Code: code, Msg: de.Msg, Inner: de}
	}
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is (or wraps) a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
