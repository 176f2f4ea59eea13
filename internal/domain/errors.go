package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the boundary layer can map them to
// transport responses.
type ErrorKind string

const (
	KindInvalidRequest      ErrorKind = "invalid_request"
	KindInsufficientData    ErrorKind = "insufficient_data"
	KindNotFound            ErrorKind = "not_found"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindSerialization       ErrorKind = "serialization_failure"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Sentinels for errors.Is. A sentinel matches any *Error of the same kind.
var (
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest}
	ErrInsufficientData    = &Error{Kind: KindInsufficientData}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable}
	ErrSerialization       = &Error{Kind: KindSerialization}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidRequest(format string, args ...any) *Error {
	return newError(KindInvalidRequest, format, args...)
}

func InsufficientData(format string, args ...any) *Error {
	return newError(KindInsufficientData, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func UpstreamUnavailable(err error, format string, args ...any) *Error {
	e := newError(KindUpstreamUnavailable, format, args...)
	e.Err = err
	return e
}

func SerializationFailure(err error, format string, args ...any) *Error {
	e := newError(KindSerialization, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// MessageOf returns the human message of the first *Error in err's chain,
// falling back to err.Error().
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
