package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures
type ErrorKind string

const (
	ErrorKindCamera  ErrorKind = "camera"
	ErrorKindNetwork ErrorKind = "network"
	ErrorKindFormat  ErrorKind = "format"
	ErrorKindParse   ErrorKind = "parse"
	ErrorKindTimeout ErrorKind = "timeout"
)

// MsgInvalidPDF is reported when fetched content fails the PDF sniff.
const MsgInvalidPDF = "Fetched file isn't a valid PDF"

// Error is a pipeline failure with a kind and a human-readable message.
// Message is shown to the user as is; Err keeps the underlying cause for logs.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new pipeline error
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func CameraError(message string, err error) *Error {
	return NewError(ErrorKindCamera, message, err)
}

func NetworkError(message string, err error) *Error {
	return NewError(ErrorKindNetwork, message, err)
}

// StatusError reports a non-success HTTP status.
func StatusError(status int) *Error {
	e := NewError(ErrorKindNetwork, fmt.Sprintf("HTTP %d", status), nil)
	e.StatusCode = status
	return e
}

func FormatError(message string) *Error {
	return NewError(ErrorKindFormat, message, nil)
}

func ParseError(message string, err error) *Error {
	return NewError(ErrorKindParse, message, err)
}

func TimeoutError(message string, err error) *Error {
	return NewError(ErrorKindTimeout, message, err)
}

// AsError extracts a *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" when err is not a pipeline error.
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return ""
}
