package client

import (
	"errors"
	"fmt"

	"github.com/tase2-protocol/tase2-go/pkg/mms"
)

// Sentinel errors for connection and discovery failures. Wrap sites
// add context with fmt.Errorf("%w: ...").
var (
	// ErrNotConnected is returned when an operation requires an open
	// association and there is none.
	ErrNotConnected = errors.New("client: not connected")

	// ErrConnectionClosed is returned when the association dropped
	// mid-operation.
	ErrConnectionClosed = errors.New("client: connection closed")

	// ErrVariableNotFound is returned when a named variable does not
	// exist on the server.
	ErrVariableNotFound = errors.New("client: variable not found")

	// ErrDataSetNotFound is returned when a named variable list does
	// not exist on the server.
	ErrDataSetNotFound = errors.New("client: data set not found")

	// ErrTransferSetNotFound is returned when a transfer set cannot be
	// resolved in a domain.
	ErrTransferSetNotFound = errors.New("client: transfer set not found")

	// ErrDeviceBlocked is returned when a control is refused because
	// of an inhibiting tag.
	ErrDeviceBlocked = errors.New("client: device blocked by tag")

	// ErrRBENotSupported is returned when Block 2 operations are
	// attempted against a server without transfer sets.
	ErrRBENotSupported = errors.New("client: report by exception not supported")

	// ErrMessageTooLarge is returned when an outgoing information
	// message exceeds the protocol size limit.
	ErrMessageTooLarge = errors.New("client: information message too large")
)

// ErrTypeMismatch is returned when a value's kind does not match the
// requested accessor.
var ErrTypeMismatch = mms.ErrKindMismatch

// ConnectError reports that establishing an association failed.
type ConnectError struct {
	Host  string
	Port  int
	Cause error
}

// Error renders the server address and the cause.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("client: connect %s:%d failed: %v", e.Host, e.Port, e.Cause)
}

// Unwrap exposes the underlying cause.
func (e *ConnectError) Unwrap() error { return e.Cause }

// ReadError reports a failed point or data-set read.
type ReadError struct {
	Domain string
	Name   string
	Cause  error
}

// Error renders the full variable name and the cause.
func (e *ReadError) Error() string {
	return fmt.Sprintf("client: read %s/%s: %v", e.Domain, e.Name, e.Cause)
}

// Unwrap exposes the underlying cause.
func (e *ReadError) Unwrap() error { return e.Cause }

// WriteError reports a failed variable write.
type WriteError struct {
	Domain string
	Name   string
	Cause  error
}

// Error renders the full variable name and the cause.
func (e *WriteError) Error() string {
	return fmt.Sprintf("client: write %s/%s: %v", e.Domain, e.Name, e.Cause)
}

// Unwrap exposes the underlying cause.
func (e *WriteError) Unwrap() error { return e.Cause }

// TagError reports a failed Block 5 tag operation. Cause holds the
// last candidate-variable failure.
type TagError struct {
	Domain string
	Device string
	Cause  error
}

// Error renders the device and the cause.
func (e *TagError) Error() string {
	return fmt.Sprintf("client: tag %s/%s: %v", e.Domain, e.Device, e.Cause)
}

// Unwrap exposes the underlying cause.
func (e *TagError) Unwrap() error { return e.Cause }
