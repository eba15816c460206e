package scale

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	domain "github.com/oshokin/scale-controller/internal/domain/scale"
	"github.com/oshokin/scale-controller/internal/repository/parameter"
)

// fakeService implements the Service interface for unit testing the transport.
type fakeService struct {
	handleFn func(ctx context.Context, event *domain.AlarmEvent) (*domain.Outcome, error)
	value    *parameter.Value
	readErr  error
}

func (f *fakeService) Handle(ctx context.Context, event *domain.AlarmEvent) (*domain.Outcome, error) {
	return f.handleFn(ctx, event)
}

func (f *fakeService) Current(context.Context) (*parameter.Value, error) {
	return f.value, f.readErr
}

func (f *fakeService) Rules() []domain.Rule { return domain.DefaultRules() }

// TestServer_GetScale checks the status payload including the resource table.
func TestServer_GetScale(t *testing.T) {
	t.Parallel()

	updatedAt := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	s := NewServer(&fakeService{
		value: &parameter.Value{Scale: domain.Medium, Version: 7, UpdatedAt: updatedAt},
	})

	response, err := s.GetScale(context.Background(), new(emptypb.Empty))
	require.NoError(t, err)

	decoded, err := DecodeStatus(response)
	require.NoError(t, err)
	require.Equal(t, domain.Medium, decoded.Scale)
	require.EqualValues(t, 7, decoded.Version)
	require.True(t, updatedAt.Equal(decoded.UpdatedAt))
	require.Equal(t, 4, decoded.Resources.EC2)

	resources := response.GetFields()["resources"].GetStructValue().GetFields()
	require.InDelta(t, 2, resources["sg"].GetNumberValue(), 0)
}

// TestServer_GetScale_ReadFailure maps persistence errors to Unavailable.
func TestServer_GetScale_ReadFailure(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeService{
		readErr: domain.NewError(domain.KindPersistenceRead, "read current scale", errors.New("boom")),
	})

	_, err := s.GetScale(context.Background(), new(emptypb.Empty))
	require.Equal(t, codes.Unavailable, status.Code(err))
}

// TestServer_HandleAlarm exercises the request/response conversion.
func TestServer_HandleAlarm(t *testing.T) {
	t.Parallel()

	var received *domain.AlarmEvent

	s := NewServer(&fakeService{
		handleFn: func(_ context.Context, event *domain.AlarmEvent) (*domain.Outcome, error) {
			received = event

			return domain.Transitioned(&domain.ChangeRecord{
				PreviousScale: domain.Small,
				NewScale:      domain.Medium,
				AlarmName:     event.AlarmName,
			}), nil
		},
	})

	request, err := EncodeEvent(&domain.AlarmEvent{
		AlarmName:      domain.AlarmScaleUpSmallToMedium,
		NewStateValue:  domain.StateAlarm,
		NewStateReason: "threshold crossed",
	})
	require.NoError(t, err)

	response, err := s.HandleAlarm(context.Background(), request)
	require.NoError(t, err)

	require.Equal(t, domain.AlarmScaleUpSmallToMedium, received.AlarmName)
	require.Equal(t, "threshold crossed", received.NewStateReason)

	result := DecodeResult(response)
	require.Equal(t, domain.OutcomeTransitioned, result.Outcome)
	require.Equal(t, domain.Small, result.From)
	require.Equal(t, domain.Medium, result.To)
	require.Empty(t, result.NotificationError)
	require.Contains(t, result.Message, "from small to medium")
}

// TestServer_HandleAlarm_Errors verifies status code mapping.
func TestServer_HandleAlarm_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{
			name: "malformed",
			err:  domain.NewError(domain.KindMalformedEvent, "alarm name is required", nil),
			code: codes.InvalidArgument,
		},
		{
			name: "write failure",
			err:  domain.NewError(domain.KindPersistenceWrite, "write new scale", errors.New("boom")),
			code: codes.Unavailable,
		},
		{
			name: "unexpected",
			err:  errors.New("boom"),
			code: codes.Internal,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := NewServer(&fakeService{
				handleFn: func(context.Context, *domain.AlarmEvent) (*domain.Outcome, error) {
					return nil, tc.err
				},
			})

			request, err := EncodeEvent(&domain.AlarmEvent{AlarmName: "x", NewStateValue: domain.StateAlarm})
			require.NoError(t, err)

			_, err = s.HandleAlarm(context.Background(), request)
			require.Equal(t, tc.code, status.Code(err))
		})
	}

	_, err := NewServer(new(fakeService)).HandleAlarm(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_ListRules returns the table in order.
func TestServer_ListRules(t *testing.T) {
	t.Parallel()

	response, err := NewServer(new(fakeService)).ListRules(context.Background(), new(emptypb.Empty))
	require.NoError(t, err)
	require.Equal(t, domain.DefaultRules(), DecodeRules(response))
}
