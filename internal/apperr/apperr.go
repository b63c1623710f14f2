// Package apperr is the error taxonomy shared by the engine, the aggregator
// and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kinds. Match with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrStore         = errors.New("store error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Error carries the kind, the operation that failed and an optional cause.
type Error struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Store wraps a persistence failure. op names the store operation, e.g.
// "reports.Insert".
func Store(op string, err error) *Error {
	return &Error{Kind: ErrStore, Op: op, Message: "store operation failed", Err: err}
}

func Configuration(op, format string, args ...any) *Error {
	return &Error{Kind: ErrConfiguration, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NotFound(op, format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool    { return errors.Is(err, ErrValidation) }
func IsStore(err error) bool         { return errors.Is(err, ErrStore) }
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }
func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }

// Op returns the failed operation of an *Error anywhere in the chain.
func Op(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
