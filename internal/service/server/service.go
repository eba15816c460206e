package server

import (
	"context"
	"sync"

	domain "github.com/oshokin/scale-controller/internal/domain/scale"
	"github.com/oshokin/scale-controller/internal/logger"
	"github.com/oshokin/scale-controller/internal/repository/parameter"
)

// handler is the part of the controller the server exposes.
type handler interface {
	Handle(ctx context.Context, event *domain.AlarmEvent) (*domain.Outcome, error)
	Current(ctx context.Context) (*parameter.Value, error)
	Rules() []domain.Rule
}

// service serializes alarm handling within one server process and logs
// every request. Separate processes sharing a store are not coordinated here.
type service struct {
	// handler runs the read-decide-write cycle.
	handler handler
	// mu serializes Handle calls.
	mu sync.Mutex
}

// newService wraps h.
func newService(h handler) *service {
	return &service{
		handler: h,
	}
}

// Handle applies an alarm event.
func (s *service) Handle(ctx context.Context, event *domain.AlarmEvent) (*domain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome, err := s.handler.Handle(ctx, event)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Alarm handled", "alarm_name", event.AlarmName, "outcome", outcome.Kind, "message", outcome.Message())

	return outcome, nil
}

// Current returns the stored scale.
func (s *service) Current(ctx context.Context) (*parameter.Value, error) {
	value, err := s.handler.Current(ctx)
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Scale requested", "scale", value.Scale, "version", value.Version)

	return value, nil
}

// Rules returns the transition table.
func (s *service) Rules() []domain.Rule {
	return s.handler.Rules()
}
