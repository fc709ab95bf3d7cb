package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBackendUnreachable indicates the broker backend failed its health
// probe or a request to it did not complete. Operations that hit it abort
// with a safe default rather than surfacing a hard failure.
var ErrBackendUnreachable = errors.New("broker backend unreachable")

// ErrBrokerNotFound indicates an unknown broker ID
var ErrBrokerNotFound = errors.New("broker not found")

// ValidationError reports missing or malformed credential/order fields.
// It is raised before any network call is made.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// NewValidationError creates a ValidationError for the given field names
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// AuthError indicates the broker rejected an authentication handshake, or
// an operation required an authenticated connection that does not exist.
type AuthError struct {
	BrokerID string
	Reason   string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: authentication failed", e.BrokerID)
	}
	return fmt.Sprintf("%s: %s", e.BrokerID, e.Reason)
}

// StreamError indicates a transport-level failure on an open quote stream.
// The affected stream is closed; streams for other brokers are unaffected.
type StreamError struct {
	BrokerID string
	Err      error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s: stream failed: %v", e.BrokerID, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// OrderRejectedError indicates the broker declined an order submission.
// The order is not considered placed.
type OrderRejectedError struct {
	BrokerID string
	Reason   string
}

func (e *OrderRejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: order rejected", e.BrokerID)
	}
	return fmt.Sprintf("%s: order rejected: %s", e.BrokerID, e.Reason)
}
