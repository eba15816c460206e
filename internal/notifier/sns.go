package notifier

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/oshokin/scale-controller/internal/logger"
)

// snsSubjectLimit is the maximum SNS subject length in characters.
const snsSubjectLimit = 100

// SNSAPI is the subset of the SNS client used by SNSPublisher.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes to an SNS topic.
type SNSPublisher struct {
	// api is the SNS client.
	api SNSAPI
	// topicARN is the destination topic.
	topicARN string
}

// errTopicRequired is returned when no topic is configured.
var errTopicRequired = errors.New("topic ARN must be provided")

// NewSNSPublisher creates a publisher for topicARN.
func NewSNSPublisher(api SNSAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{
		api:      api,
		topicARN: topicARN,
	}
}

// Publish sends the message to the topic.
func (p *SNSPublisher) Publish(ctx context.Context, subject string, body []byte) error {
	if p.topicARN == "" {
		return errTopicRequired
	}

	subject = truncateRunes(subject, snsSubjectLimit)

	output, err := p.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.topicARN, err)
	}

	logger.DebugKV(ctx, "Notification published", "topic", p.topicARN, "message_id", aws.ToString(output.MessageId))

	return nil
}

// truncateRunes cuts s to at most limit runes without splitting a character.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	return string([]rune(s)[:limit])
}
