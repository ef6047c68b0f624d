// Package errors provides structured error types for the unifier.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the driver and the core packages
//   - Machine-readable error codes for CI to branch on (e.g. ChangesRequired
//     is an expected non-zero exit, not a failure)
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Usage
//
//	err := errors.New(errors.ErrCodeChecksumMismatch, "member %s: checksum drift", member)
//	if errors.Is(err, errors.ErrCodeChecksumMismatch) {
//	    // CI should fail the build
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes, one per failure mode the unifier can hit.
const (
	// ErrCodeMetadataInvalid means cargo metadata's resolve graph is
	// missing or internally inconsistent. Aborts the whole run.
	ErrCodeMetadataInvalid Code = "METADATA_INVALID"

	// ErrCodeUnsupportedSource means a dependency's origin could not be
	// classified (a non-crates.io registry, or a path+file source).
	ErrCodeUnsupportedSource Code = "UNSUPPORTED_SOURCE"

	// ErrCodeTargetDependenciesPresent means a manifest has a top-level
	// [target.'cfg(...)'.dependencies] table, which the editor refuses to
	// touch. Aborts the whole run.
	ErrCodeTargetDependenciesPresent Code = "TARGET_DEPENDENCIES_PRESENT"

	// ErrCodeStashCorrupted means a stash entry is neither a dependency
	// value, a string, nor the literal `false` sentinel.
	ErrCodeStashCorrupted Code = "STASH_CORRUPTED"

	// ErrCodeChecksumMismatch means the recorded lock checksum no longer
	// matches the manifest's dependency tables.
	ErrCodeChecksumMismatch Code = "CHECKSUM_MISMATCH"

	// ErrCodeChangesRequired is returned by check/hack --dry when further
	// unification would occur. This is an *expected* non-zero exit for CI,
	// not an internal failure.
	ErrCodeChangesRequired Code = "CHANGES_REQUIRED"

	// ErrCodeInvalidPackage flags a package or dependency that cannot be
	// resolved or parsed: an unknown crate name, a missing or ambiguous
	// version, an unreachable feature node, or a malformed target string.
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"

	// ErrCodeInvalidPath flags a metadata or manifest file that could not be
	// read, written, or renamed into place.
	ErrCodeInvalidPath Code = "INVALID_PATH"

	// ErrCodeInternal covers anything that should never happen given a
	// valid metadata snapshot (a bug, not a user-facing condition).
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
