package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

var errTestPublish = errors.New("test publish error")

// fakeSNS records published inputs.
type fakeSNS struct {
	// inputs holds every publish request.
	inputs []*sns.PublishInput
	// err is returned when set.
	err error
}

// Publish records the input and returns err.
func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}

	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

// TestSNSPublisher_Publish verifies the request shape and error wrapping.
func TestSNSPublisher_Publish(t *testing.T) {
	t.Parallel()

	api := new(fakeSNS)
	p := NewSNSPublisher(api, "arn:aws:sns:us-east-1:123456789012:scale")

	require.NoError(t, p.Publish(context.Background(), "Deployment Scale Changed: small to medium", []byte(`{"a":1}`)))
	require.Len(t, api.inputs, 1)
	require.Equal(t, "arn:aws:sns:us-east-1:123456789012:scale", aws.ToString(api.inputs[0].TopicArn))
	require.Equal(t, `{"a":1}`, aws.ToString(api.inputs[0].Message))

	// Long subjects are truncated to the SNS limit.
	require.NoError(t, p.Publish(context.Background(), strings.Repeat("x", 150), nil))
	require.Len(t, aws.ToString(api.inputs[1].Subject), snsSubjectLimit)

	// Multi-byte subjects are cut on a character boundary.
	require.NoError(t, p.Publish(context.Background(), strings.Repeat("é", 60)+strings.Repeat("日", 60), nil))
	subject := aws.ToString(api.inputs[2].Subject)
	require.True(t, utf8.ValidString(subject))
	require.Equal(t, snsSubjectLimit, utf8.RuneCountInString(subject))
	require.Equal(t, strings.Repeat("é", 60)+strings.Repeat("日", 40), subject)

	api.err = errTestPublish
	require.ErrorIs(t, p.Publish(context.Background(), "s", nil), errTestPublish)

	require.ErrorIs(t, NewSNSPublisher(api, "").Publish(context.Background(), "s", nil), errTopicRequired)
}

// TestRedisStreamPublisher_Publish checks entries land in the stream.
func TestRedisStreamPublisher_Publish(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	defer func() {
		_ = client.Close()
	}()

	p := NewRedisStreamPublisher(client, "deployment-scale-changes", 100)

	require.NoError(t, p.Publish(context.Background(), "Deployment Scale Changed: medium to large", []byte(`{"newScale":"large"}`)))

	entries, err := client.XRange(context.Background(), "deployment-scale-changes", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Deployment Scale Changed: medium to large", entries[0].Values["subject"])
	require.Equal(t, `{"newScale":"large"}`, entries[0].Values["body"])

	mr.Close()
	require.Error(t, p.Publish(context.Background(), "s", nil))
}

// TestLogAndNop never fail.
func TestLogAndNop(t *testing.T) {
	t.Parallel()

	require.NoError(t, LogPublisher{}.Publish(context.Background(), "subject", []byte("body")))
	require.NoError(t, Nop{}.Publish(context.Background(), "subject", nil))
}

// failingPublisher always fails.
type failingPublisher struct{ calls *int }

func (f failingPublisher) Publish(context.Context, string, []byte) error {
	*f.calls++

	return errTestPublish
}

// TestMulti_PublishesToAll keeps going after a failing sink.
func TestMulti_PublishesToAll(t *testing.T) {
	t.Parallel()

	var calls int

	api := new(fakeSNS)
	m := Multi{failingPublisher{calls: &calls}, NewSNSPublisher(api, "arn:aws:sns:us-east-1:123456789012:scale"), Nop{}}

	err := m.Publish(context.Background(), "subject", []byte("body"))
	require.ErrorIs(t, err, errTestPublish)
	require.Equal(t, 1, calls)
	require.Len(t, api.inputs, 1)

	require.NoError(t, Multi{Nop{}, LogPublisher{}}.Publish(context.Background(), "subject", nil))
}
