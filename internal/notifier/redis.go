package notifier

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStreamPublisher appends notifications to a redis stream.
type RedisStreamPublisher struct {
	// client is the redis connection.
	client *redis.Client
	// stream is the stream key.
	stream string
	// maxLen caps the stream length approximately. Zero keeps everything.
	maxLen int64
}

// NewRedisStreamPublisher creates a publisher for stream.
func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// Publish adds one entry with subject and body fields.
func (p *RedisStreamPublisher) Publish(ctx context.Context, subject string, body []byte) error {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"subject": subject,
			"body":    string(body),
		},
	}

	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("append to stream %s: %w", p.stream, err)
	}

	return nil
}
