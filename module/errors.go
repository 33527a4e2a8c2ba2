package module

import (
	"errors"
	"fmt"
)

// ErrorCode is the outcome of the most recent operation on a Module.
type ErrorCode int

const (
	// OK means the operation completed.
	OK ErrorCode = iota
	// Unknown covers protocol, validation, parse and timeout failures
	// that have no more specific code.
	Unknown
	// Timeout is reported when the module did not become ready in time,
	// or when the positioning engine could not be started or stopped.
	Timeout
	// GnssNotFixed means the positioning engine has no fix yet.
	// Callers should retry later.
	GnssNotFixed
)

func (c ErrorCode) String() string {
	switch c {
	case OK:
		return "ok"
	case Unknown:
		return "unknown"
	case Timeout:
		return "timeout"
	case GnssNotFixed:
		return "gnss not fixed"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

var (
	// ErrTimeout is returned by a Channel when no matching reply
	// arrived before the read deadline.
	ErrTimeout = errors.New("timed out waiting for reply")

	// ErrPollTimeout is returned by Module.Poll when the condition
	// was not met before the timeout elapsed.
	ErrPollTimeout = errors.New("condition not met before timeout")

	// ErrBufferTooSmall is returned when a reply would not fit into
	// the capacity given by the caller.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrLineNotWired is returned by ControlLines implementations
	// that cannot drive the requested signal.
	ErrLineNotWired = errors.New("control line not wired")

	// ErrUnexpectedReply is returned when a reply line does not have
	// the shape the command documents.
	ErrUnexpectedReply = errors.New("unexpected reply")

	// ErrNotRegistered is returned when the network denies registration.
	ErrNotRegistered = errors.New("registration denied")
)

// Error is the error type returned by every public operation of the driver.
// Code tells callers which kind of failure occurred.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf formats an error and tags it with code.
// The %w verb is supported.
func Errorf(code ErrorCode, format string, a ...interface{}) error {
	return &Error{Code: code, Err: fmt.Errorf(format, a...)}
}

// WithCode tags err with code, keeping err in the chain.
// nil stays nil.
func WithCode(code ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Err: err}
}

// CodeOf returns the ErrorCode carried by err.
// nil maps to OK and untagged errors map to Unknown.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unknown
}
