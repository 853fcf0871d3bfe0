package status

import (
	"context"
	"errors"
	"fmt"
)

// Status is an immutable (code, message) pair. The zero value is Success.
type Status struct {
	code    Code
	message string
}

// OK is the successful Status.
var OK = Status{}

// New returns a Status with code and message.
func New(code Code, message string) Status {
	return Status{code: code, message: message}
}

// Newf returns a Status with code and a formatted message.
func Newf(code Code, format string, args ...any) Status {
	return Status{code: code, message: fmt.Sprintf(format, args...)}
}

// Code returns the status code.
func (s Status) Code() Code { return s.code }

// Message returns the user message.
func (s Status) Message() string { return s.message }

// OK reports whether s is a success.
func (s Status) OK() bool { return s.code.IsSuccess() }

// IsSDKError reports whether s failed inside the client.
func (s Status) IsSDKError() bool { return s.code.IsSDKError() }

// IsRPCError reports whether s failed in the transport.
func (s Status) IsRPCError() bool { return s.code.IsRPCError() }

// IsResponseError reports whether the robot reported a failure.
func (s Status) IsResponseError() bool { return s.code.IsResponseError() }

// IsRetryable reports whether the failed call may succeed when retried.
func (s Status) IsRetryable() bool { return s.code.IsRetryable() }

// IsPersistent reports whether the failed call will keep failing.
func (s Status) IsPersistent() bool { return s.code.IsPersistent() }

// Chain returns a Status with the same code whose message is msg followed by
// the original message.
func (s Status) Chain(msg string) Status {
	if s.message == "" {
		return Status{code: s.code, message: msg}
	}
	return Status{code: s.code, message: msg + ": " + s.message}
}

// ChainCode returns a Status with code whose message is msg followed by the
// full string form of s, so the original code stays visible.
func (s Status) ChainCode(code Code, msg string) Status {
	return Status{code: code, message: msg + ": " + s.String()}
}

// Err returns nil for a success and s otherwise.
func (s Status) Err() error {
	if s.OK() {
		return nil
	}
	return s
}

// Error implements error.
func (s Status) Error() string { return s.String() }

// String formats s as "<value>(<code name>): <message>".
func (s Status) String() string {
	return fmt.Sprintf("%d(%s): %s", s.code.value, s.code.String(), s.message)
}

// Is matches another Status with the same code.
func (s Status) Is(target error) bool {
	var other Status
	if errors.As(target, &other) {
		return other.code == s.code
	}
	return false
}

// FromError recovers the Status carried by err. A nil error is Success,
// context errors map to the RPC codes a transport would have produced, and
// any other error becomes a GenericSDKError.
func FromError(err error) Status {
	if err == nil {
		return OK
	}
	var st Status
	if errors.As(err, &st) {
		return st
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return New(TimedOut, err.Error())
	case errors.Is(err, context.Canceled):
		return New(ClientCancelled, err.Error())
	}
	if st, ok := fromGRPCError(err); ok {
		return st
	}
	return New(GenericSDKError, err.Error())
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	if err == nil {
		return code.IsSuccess()
	}
	return FromError(err).code == code
}
