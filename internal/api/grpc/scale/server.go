package scale

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/scale-controller/internal/domain/scale"
	"github.com/oshokin/scale-controller/internal/logger"
	pb "github.com/oshokin/scale-controller/internal/pb/v1"
	"github.com/oshokin/scale-controller/internal/repository/parameter"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Handle(ctx context.Context, event *domain.AlarmEvent) (*domain.Outcome, error)
	Current(ctx context.Context) (*parameter.Value, error)
	Rules() []domain.Rule
}

// Server implements the ScaleService gRPC API.
type Server struct {
	// service provides the business logic for scale operations.
	service Service
}

// compile-time check.
var _ pb.ScaleServiceServer = (*Server)(nil)

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetScale returns the current scale with its resource table.
func (s *Server) GetScale(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	value, err := s.service.Current(ctx)
	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	response, err := EncodeStatus(value)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode scale")
	}

	return response, nil
}

// HandleAlarm applies an alarm event.
func (s *Server) HandleAlarm(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	outcome, err := s.service.Handle(ctx, DecodeEvent(req))
	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	response, err := EncodeOutcome(outcome)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode outcome")
	}

	return response, nil
}

// ListRules returns the transition table.
func (s *Server) ListRules(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	response, err := EncodeRules(s.service.Rules())
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode rules")
	}

	return response, nil
}

// toStatusError maps controller errors to gRPC status codes.
func toStatusError(ctx context.Context, err error) error {
	kind, _ := domain.KindOf(err)

	switch kind {
	case domain.KindMalformedEvent:
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.KindPersistenceRead, domain.KindPersistenceWrite:
		return status.Error(codes.Unavailable, err.Error())
	default:
		logger.ErrorKV(ctx, "Unexpected service error", "error", err)

		return status.Error(codes.Internal, "internal error")
	}
}
