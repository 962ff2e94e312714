package apperror

import (
	"errors"
	"fmt"
)

// Type names a failure category of a capture attempt.
type Type string

const (
	TypeSourceUnavailable     Type = "source_unavailable"
	TypeInvalidImage          Type = "invalid_image"
	TypeClassificationFailure Type = "classification_failure"
	TypeWriteFailure          Type = "write_failure"
	TypePersistenceFailure    Type = "persistence_failure"

	// TypeLowContrast is reported on rejected attempts. It is an outcome and
	// is never returned as an error.
	TypeLowContrast Type = "low_contrast_rejection"
)

// Error is a categorized failure.
type Error struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(t Type, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

func NewSourceUnavailable(message string, cause error) *Error {
	return New(TypeSourceUnavailable, message, cause)
}

func NewInvalidImage(message string, cause error) *Error {
	return New(TypeInvalidImage, message, cause)
}

func NewClassificationFailure(message string, cause error) *Error {
	return New(TypeClassificationFailure, message, cause)
}

func NewWriteFailure(message string, cause error) *Error {
	return New(TypeWriteFailure, message, cause)
}

func NewPersistenceFailure(message string, cause error) *Error {
	return New(TypePersistenceFailure, message, cause)
}

// IsType reports whether any error in err's chain is an *Error of type t.
func IsType(err error, t Type) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// TypeOf returns the category of err, or "" when err is not categorized.
func TypeOf(err error) Type {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
