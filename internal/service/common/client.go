//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	api "github.com/oshokin/scale-controller/internal/api/grpc/scale"
	"github.com/oshokin/scale-controller/internal/config"
	domain "github.com/oshokin/scale-controller/internal/domain/scale"
	pb "github.com/oshokin/scale-controller/internal/pb/v1"
)

// Client wraps the gRPC ScaleService client with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the scale server.
	conn *grpc.ClientConn
	// api is the ScaleService client interface.
	api pb.ScaleServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errEventRequired is returned when an alarm event is not provided.
	errEventRequired = errors.New("alarm event must be provided")
)

// Dial establishes a gRPC connection to the scale server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial scale server: %w", err)
	}

	return newClient(conn, pb.NewScaleServiceClient(conn), opts...), nil
}

// newClient assembles a Client around an existing connection.
func newClient(conn *grpc.ClientConn, service pb.ScaleServiceClient, opts ...Option) *Client {
	client := &Client{
		conn:        conn,
		api:         service,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetScale retrieves the current scale.
func (c *Client) GetScale(ctx context.Context) (*api.Status, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.GetScale(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get scale: %w", err)
	}

	status, err := api.DecodeStatus(resp)
	if err != nil {
		return nil, fmt.Errorf("decode scale: %w", err)
	}

	return status, nil
}

// FireAlarm sends an alarm event to the server.
func (c *Client) FireAlarm(ctx context.Context, event *domain.AlarmEvent) (*api.Result, error) {
	if event == nil {
		return nil, errEventRequired
	}

	request, err := api.EncodeEvent(event)
	if err != nil {
		return nil, fmt.Errorf("encode alarm event: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.HandleAlarm(callCtx, request)
	if err != nil {
		return nil, fmt.Errorf("handle alarm: %w", err)
	}

	return api.DecodeResult(resp), nil
}

// ListRules retrieves the server's transition table.
func (c *Client) ListRules(ctx context.Context) ([]domain.Rule, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListRules(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	return api.DecodeRules(resp), nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
