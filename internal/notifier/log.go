package notifier

import (
	"context"

	"github.com/oshokin/scale-controller/internal/logger"
)

// LogPublisher writes notifications to the logger.
type LogPublisher struct{}

// Publish logs subject and body at info level.
func (LogPublisher) Publish(ctx context.Context, subject string, body []byte) error {
	logger.InfoKV(ctx, "Notification", "subject", subject, "body", string(body))

	return nil
}
