package scale

import (
	"errors"
	"fmt"
)

// ErrorKind classifies controller failures.
type ErrorKind string

const (
	// KindMalformedEvent means the payload could not be decoded.
	KindMalformedEvent ErrorKind = "MalformedEvent"
	// KindPersistenceRead means the current scale could not be read.
	KindPersistenceRead ErrorKind = "PersistenceReadError"
	// KindPersistenceWrite means the new scale could not be written.
	KindPersistenceWrite ErrorKind = "PersistenceWriteError"
	// KindNotificationPublish means the change record could not be published.
	KindNotificationPublish ErrorKind = "NotificationPublishError"
)

// Error is a structured controller failure.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Message is a short description safe to return to callers.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}

	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind, true
	}

	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	got, ok := KindOf(err)

	return ok && got == kind
}
