package sbo

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoTransport is returned when the controller has no transport.
var ErrNoTransport = errors.New("sbo: no transport configured")

// SelectError is returned when every select candidate write and the
// implicit-select read fallback failed.
type SelectError struct {
	Domain string
	Device string

	// Causes holds the per-candidate failures, in attempt order.
	Causes []error
}

// Error renders the device key and the collected causes.
func (e *SelectError) Error() string {
	msgs := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		msgs[i] = c.Error()
	}
	return fmt.Sprintf("sbo: select %s/%s failed: %s", e.Domain, e.Device, strings.Join(msgs, "; "))
}

// Unwrap exposes the candidate failures to errors.Is/As.
func (e *SelectError) Unwrap() []error {
	return e.Causes
}

// OperateError is returned when an operate fails, either because the
// select expired or because the write itself failed.
type OperateError struct {
	Domain string
	Device string

	// Expired is set when the select record outlived the SBO timeout.
	Expired bool

	// Elapsed is the select age at operate time (expiry case only).
	Elapsed time.Duration

	// Cause is the underlying write failure (non-expiry case).
	Cause error
}

// Error includes the word "expired" and the elapsed time for the
// expiry case, so callers can tell it from a generic write failure.
func (e *OperateError) Error() string {
	if e.Expired {
		return fmt.Sprintf("sbo: operate %s/%s: select expired after %s (elapsed: %.1fs)",
			e.Domain, e.Device, Timeout, e.Elapsed.Seconds())
	}
	return fmt.Sprintf("sbo: operate %s/%s: %v", e.Domain, e.Device, e.Cause)
}

// Unwrap exposes the underlying write failure.
func (e *OperateError) Unwrap() error {
	return e.Cause
}
