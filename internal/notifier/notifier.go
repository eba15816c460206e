package notifier

import (
	"context"
	"errors"
)

// Publisher sends a notification to a topic bound at construction.
type Publisher interface {
	Publish(ctx context.Context, subject string, body []byte) error
}

// Nop discards every notification.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, []byte) error {
	return nil
}

// Multi publishes to every sink in order. All sinks are attempted; their
// errors are joined.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, subject string, body []byte) error {
	var errs []error

	for _, publisher := range m {
		if err := publisher.Publish(ctx, subject, body); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
