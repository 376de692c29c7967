package models

import "fmt"

// ValidationError reports malformed or empty input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports an unknown order, product or customer id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Kind + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// GatewayError wraps a failure of the external payment provider.
type GatewayError struct {
	Provider string
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.Provider, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// NotificationError wraps an email delivery failure. It is never fatal to the
// operation that triggered the notification.
type NotificationError struct {
	OrderID  string
	Attempts int
	Err      error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification for order %s failed after %d attempt(s): %v", e.OrderID, e.Attempts, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError from a format string.
func Invalid(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// StatusRegression reports a move to an earlier fulfillment stage while
// strict transitions are enforced.
func StatusRegression(id string, from, to OrderStatus) error {
	return Invalid("cannot move order %s from %q back to %q", id, from, to)
}
