package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ScaleServiceName is the fully qualified service name.
const ScaleServiceName = "scale.v1.ScaleService"

// Full method names.
const (
	ScaleServiceGetScaleFullMethodName    = "/" + ScaleServiceName + "/GetScale"
	ScaleServiceHandleAlarmFullMethodName = "/" + ScaleServiceName + "/HandleAlarm"
	ScaleServiceListRulesFullMethodName   = "/" + ScaleServiceName + "/ListRules"
)

// ScaleServiceServer is the server API for ScaleService.
type ScaleServiceServer interface {
	// GetScale returns {scale, version, updatedAt, resources}.
	GetScale(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	// HandleAlarm takes {AlarmName, NewStateValue, AlarmDescription, NewStateReason}
	// and returns {outcome, reason, from, to, message, notificationError}.
	HandleAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// ListRules returns {rules: [{alarmName, from, to}]}.
	ListRules(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// ScaleServiceClient is the client API for ScaleService.
type ScaleServiceClient interface {
	GetScale(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	HandleAlarm(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListRules(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// scaleServiceClient invokes methods over a client connection.
type scaleServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewScaleServiceClient creates a client over cc.
//
//nolint:ireturn // Mirrors generated client constructors.
func NewScaleServiceClient(cc grpc.ClientConnInterface) ScaleServiceClient {
	return &scaleServiceClient{cc: cc}
}

// GetScale implements ScaleServiceClient.
func (c *scaleServiceClient) GetScale(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ScaleServiceGetScaleFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// HandleAlarm implements ScaleServiceClient.
func (c *scaleServiceClient) HandleAlarm(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ScaleServiceHandleAlarmFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// ListRules implements ScaleServiceClient.
func (c *scaleServiceClient) ListRules(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ScaleServiceListRulesFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// RegisterScaleServiceServer registers srv on s.
func RegisterScaleServiceServer(s grpc.ServiceRegistrar, srv ScaleServiceServer) {
	s.RegisterService(&ScaleServiceDesc, srv)
}

// ScaleServiceDesc describes ScaleService for grpc.Server.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ScaleServiceDesc = grpc.ServiceDesc{
	ServiceName: ScaleServiceName,
	HandlerType: (*ScaleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetScale",
			Handler:    getScaleHandler,
		},
		{
			MethodName: "HandleAlarm",
			Handler:    handleAlarmHandler,
		},
		{
			MethodName: "ListRules",
			Handler:    listRulesHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "scale/v1/scale.proto",
}

func getScaleHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(ScaleServiceServer).GetScale(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ScaleServiceGetScaleFullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScaleServiceServer).GetScale(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

func handleAlarmHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(ScaleServiceServer).HandleAlarm(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ScaleServiceHandleAlarmFullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScaleServiceServer).HandleAlarm(ctx, req.(*structpb.Struct))
	}

	return interceptor(ctx, in, info, handler)
}

func listRulesHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(ScaleServiceServer).ListRules(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ScaleServiceListRulesFullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScaleServiceServer).ListRules(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}
