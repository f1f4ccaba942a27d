package common

import (
	"errors"
	"fmt"
)

// RunErrType ...
type RunErrType uint32

const (
	// ConfigError is a missing or malformed setting, detected before any
	// worker is spawned.
	ConfigError RunErrType = iota
	// SpawnError means a worker binary could not be started.
	SpawnError
	// ProtocolError is a console write failure or a stream that closed before
	// a prompt was observed.
	ProtocolError
	// ValidationError is a worker response that contradicts the
	// configuration, or that cannot be parsed.
	ValidationError
	// InvalidArgument ...
	InvalidArgument
	// AlreadyInitialized is raised when a once-only field is set twice.
	AlreadyInitialized
	// NotInitialized is raised when a once-only field is read before it was
	// set.
	NotInitialized
	// AlreadyRun ...
	AlreadyRun
	// ConcurrentRequest is raised when a console session receives a request
	// while another one is outstanding.
	ConcurrentRequest
)

// RunErr ...
type RunErr struct {
	subject string
	errType RunErrType
	op      string
	cause   error
}

// NewRunErr ...
func NewRunErr(subject string, errType RunErrType, op string, cause error) RunErr {
	return RunErr{
		subject: subject,
		errType: errType,
		op:      op,
		cause:   cause,
	}
}

// Error ...
func (e RunErr) Error() string {
	m := ""
	switch e.errType {
	case ConfigError:
		m = "Config Error"
	case SpawnError:
		m = "Spawn Error"
	case ProtocolError:
		m = "Protocol Error"
	case ValidationError:
		m = "Validation Error"
	case InvalidArgument:
		m = "Invalid Argument"
	case AlreadyInitialized:
		m = "Already Initialized"
	case NotInitialized:
		m = "Not Initialized"
	case AlreadyRun:
		m = "Already Run"
	case ConcurrentRequest:
		m = "Concurrent Request"
	}

	if e.cause != nil {
		return fmt.Sprintf("%s, %s, %s: %v", e.subject, e.op, m, e.cause)
	}

	return fmt.Sprintf("%s, %s, %s", e.subject, e.op, m)
}

// Unwrap returns the underlying cause, if any.
func (e RunErr) Unwrap() error {
	return e.cause
}

// Type ...
func (e RunErr) Type() RunErrType {
	return e.errType
}

// Subject returns the component or node the error is attributed to.
func (e RunErr) Subject() string {
	return e.subject
}

// IsRun checks that err, or an error it wraps, is a RunErr of type t.
func IsRun(err error, t RunErrType) bool {
	var runErr RunErr
	return errors.As(err, &runErr) && runErr.errType == t
}

// IsProgramming reports whether err is a contract violation in the calling
// code rather than a failure of a worker or of the configuration.
func IsProgramming(err error) bool {
	var runErr RunErr
	if !errors.As(err, &runErr) {
		return false
	}
	switch runErr.errType {
	case AlreadyInitialized, NotInitialized, AlreadyRun, ConcurrentRequest:
		return true
	}
	return false
}
