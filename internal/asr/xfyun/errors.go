package xfyun

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by Client matches exactly one of these
// through errors.Is.
var (
	// ErrTransport covers network failures, non-2xx HTTP and unreadable bodies.
	ErrTransport = errors.New("asr transport error")
	// ErrAPIRejected is a well-formed response carrying a server-side error code.
	ErrAPIRejected = errors.New("asr request rejected")
	// ErrProtocol is an unexpected status, malformed payload or local state violation.
	ErrProtocol = errors.New("asr protocol violation")
	// ErrTimeout means the poll cap was exhausted before completion.
	ErrTimeout = errors.New("asr timed out")
)

// Error describes a failed ASR operation.
type Error struct {
	Kind    error
	Op      string
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Code != 0 {
		msg += fmt.Sprintf(" (err_no=%d)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func transportError(op string, err error) *Error {
	return &Error{Kind: ErrTransport, Op: op, Err: err}
}

func protocolError(op, message string) *Error {
	return &Error{Kind: ErrProtocol, Op: op, Message: message}
}

func rejectedError(op string, code int, message string) *Error {
	return &Error{Kind: ErrAPIRejected, Op: op, Code: code, Message: message}
}
