//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/scale-controller/internal/api/grpc/scale"
	domain "github.com/oshokin/scale-controller/internal/domain/scale"
	"github.com/oshokin/scale-controller/internal/repository/parameter"
)

// fakeScaleClient answers ScaleService calls without a network.
type fakeScaleClient struct {
	handled *domain.AlarmEvent
	err     error
}

func (f *fakeScaleClient) GetScale(context.Context, *emptypb.Empty, ...grpc.CallOption) (*structpb.Struct, error) {
	if f.err != nil {
		return nil, f.err
	}

	return api.EncodeStatus(&parameter.Value{Scale: domain.Large, Version: 3})
}

func (f *fakeScaleClient) HandleAlarm(
	_ context.Context,
	in *structpb.Struct,
	_ ...grpc.CallOption,
) (*structpb.Struct, error) {
	f.handled = api.DecodeEvent(in)

	return api.EncodeOutcome(domain.NoOp(domain.ReasonNoRule, domain.Large))
}

func (f *fakeScaleClient) ListRules(context.Context, *emptypb.Empty, ...grpc.CallOption) (*structpb.Struct, error) {
	return api.EncodeRules(domain.DefaultRules())
}

// TestDial_ValidatesAddress verifies that Dial rejects empty addresses.
func TestDial_ValidatesAddress(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{
		callTimeout: 0,
	}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	c.callTimeout = 10 * time.Millisecond

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}

// TestFireAlarm_NilEvent asserts that a nil event is rejected by the client.
func TestFireAlarm_NilEvent(t *testing.T) {
	t.Parallel()

	c := new(Client)

	_, err := c.FireAlarm(context.Background(), nil)
	require.Error(t, err)
}

// TestClient_Calls decodes every response through the shared codec.
func TestClient_Calls(t *testing.T) {
	t.Parallel()

	fake := new(fakeScaleClient)
	c := newClient(nil, fake, WithCallTimeout(time.Second))

	current, err := c.GetScale(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.Large, current.Scale)
	require.EqualValues(t, 3, current.Version)
	require.True(t, current.UpdatedAt.IsZero())

	result, err := c.FireAlarm(context.Background(), &domain.AlarmEvent{
		AlarmName:     domain.AlarmScaleUpMediumToLarge,
		NewStateValue: domain.StateAlarm,
	})
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeNoOp, result.Outcome)
	require.Equal(t, domain.ReasonNoRule, result.Reason)
	require.Equal(t, domain.AlarmScaleUpMediumToLarge, fake.handled.AlarmName)

	rules, err := c.ListRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 4)

	require.NoError(t, c.Close())
}

// TestClient_GetScale_Error keeps the gRPC status in the error chain.
func TestClient_GetScale_Error(t *testing.T) {
	t.Parallel()

	c := newClient(nil, &fakeScaleClient{err: status.Error(codes.Unavailable, "down")})

	_, err := c.GetScale(context.Background())
	require.Error(t, err)
	require.Equal(t, codes.Unavailable, status.Code(err))
}
