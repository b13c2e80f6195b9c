package graph

import (
	"errors"
	"fmt"
)

// Error represents a failed or exceptional store operation.
//
// Every error leaving this package is an *Error (possibly wrapping an
// engine-level cause), so callers can branch on the code with the Is*
// helpers instead of string matching. NotFound is a code like any other:
// a normal outcome callers are expected to handle, not a fault.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Op names the store operation that failed.
	Op string

	// Key is the affected key or id, when known.
	Key string

	// Err is the underlying cause, when any.
	Err error
}

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeEngineUnavailable indicates the engine could not serve the
	// operation (open, begin, or commit failed). Fatal, not retried.
	ErrCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"

	// ErrCodeNotFound indicates a get/delete target does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeKeyEncoding indicates a key component is empty or contains a
	// reserved byte, so it cannot be encoded unambiguously.
	ErrCodeKeyEncoding ErrorCode = "KEY_ENCODING"

	// ErrCodeKeyDecoding indicates a key does not decode into exactly
	// three non-empty components.
	ErrCodeKeyDecoding ErrorCode = "KEY_DECODING"

	// ErrCodeCodecMismatch indicates a stored value does not match the
	// expected record shape.
	ErrCodeCodecMismatch ErrorCode = "CODEC_MISMATCH"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	switch {
	case e.Op != "" && e.Key != "":
		return fmt.Sprintf("%s: %s (op=%s, key=%s)", e.Code, msg, e.Op, e.Key)
	case e.Op != "":
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, msg, e.Op)
	default:
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error is a not-found outcome.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsEngineUnavailable returns true if the error is an engine-level fault.
func IsEngineUnavailable(err error) bool {
	return hasCode(err, ErrCodeEngineUnavailable)
}

// IsKeyEncodingError returns true if the error is a key encoding rejection.
func IsKeyEncodingError(err error) bool {
	return hasCode(err, ErrCodeKeyEncoding)
}

// IsKeyDecodingError returns true if the error is a key decoding failure.
func IsKeyDecodingError(err error) bool {
	return hasCode(err, ErrCodeKeyDecoding)
}

// IsCodecMismatch returns true if the error is a stored-record shape
// mismatch.
func IsCodecMismatch(err error) bool {
	return hasCode(err, ErrCodeCodecMismatch)
}

func hasCode(err error, code ErrorCode) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

func errNotFound(op, key string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: "no record for key",
		Op:      op,
		Key:     key,
	}
}

func errEngine(op, key string, err error) *Error {
	return &Error{
		Code:    ErrCodeEngineUnavailable,
		Message: "engine operation failed",
		Op:      op,
		Key:     key,
		Err:     err,
	}
}

func errKeyEncoding(op, message string) *Error {
	return &Error{
		Code:    ErrCodeKeyEncoding,
		Message: message,
		Op:      op,
	}
}

func errKeyDecoding(op, key, message string) *Error {
	return &Error{
		Code:    ErrCodeKeyDecoding,
		Message: message,
		Op:      op,
		Key:     key,
	}
}

func errCodecMismatch(op, key string, err error) *Error {
	return &Error{
		Code:    ErrCodeCodecMismatch,
		Message: "stored value does not match record shape",
		Op:      op,
		Key:     key,
		Err:     err,
	}
}

// wrapEngine converts a raw engine fault into an EngineUnavailable error.
// Errors already typed by this package pass through unchanged, so a typed
// outcome surfaced inside a transaction keeps its code.
func wrapEngine(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return err
	}
	return errEngine(op, key, err)
}
