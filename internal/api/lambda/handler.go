package lambda

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/oshokin/scale-controller/internal/domain/scale"
	"github.com/oshokin/scale-controller/internal/logger"
)

// Service abstracts the controller operation the adapter depends on.
type Service interface {
	HandleAlarm(ctx context.Context, payload []byte) (*scale.Outcome, error)
}

// loggerName names every log line of an invocation.
const loggerName = "scale-handler"

// Response is the invocation result.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// responseBody is the JSON rendered into Response.Body.
type responseBody struct {
	Message           string      `json:"message,omitempty"`
	Outcome           string      `json:"outcome,omitempty"`
	Reason            string      `json:"reason,omitempty"`
	From              scale.Scale `json:"from,omitempty"`
	To                scale.Scale `json:"to,omitempty"`
	NotificationError string      `json:"notificationError,omitempty"`
	Error             string      `json:"error,omitempty"`
	Kind              string      `json:"kind,omitempty"`
}

// Handler serves Lambda invocations.
type Handler struct {
	// service handles decoded payloads.
	service Service
	// redeliver returns persistence failures as invocation errors so the
	// runtime retries the event.
	redeliver bool
}

// NewHandler creates a handler over service.
func NewHandler(service Service, redeliver bool) *Handler {
	return &Handler{
		service:   service,
		redeliver: redeliver,
	}
}

// Handle is the Lambda entry point.
func (h *Handler) Handle(ctx context.Context, payload json.RawMessage) (*Response, error) {
	ctx = logger.WithName(ctx, loggerName)

	if lc, ok := lambdacontext.FromContext(ctx); ok {
		ctx = logger.WithKV(ctx, "request_id", lc.AwsRequestID)
	}

	logger.DebugKV(ctx, "Received event", "payload", string(payload))

	outcome, err := h.service.HandleAlarm(ctx, payload)
	if err != nil {
		return h.failure(err)
	}

	body := responseBody{
		Message: outcome.Message(),
		Outcome: string(outcome.Kind),
		Reason:  outcome.Reason,
		From:    outcome.From,
		To:      outcome.To,
	}

	if outcome.PublishErr != nil {
		body.NotificationError = outcome.PublishErr.Error()
	}

	return render(http.StatusOK, body), nil
}

// failure renders a structured error response.
func (h *Handler) failure(err error) (*Response, error) {
	kind, _ := scale.KindOf(err)

	body := responseBody{
		Error: err.Error(),
		Kind:  string(kind),
	}

	if kind == scale.KindMalformedEvent {
		return render(http.StatusBadRequest, body), nil
	}

	response := render(http.StatusInternalServerError, body)
	if h.redeliver {
		return response, err
	}

	return response, nil
}

// render encodes body into a response.
func render(status int, body responseBody) *Response {
	data, err := json.Marshal(body)
	if err != nil {
		// Only strings and scales are encoded.
		data = []byte(`{"error":"encode response"}`)
	}

	return &Response{
		StatusCode: status,
		Body:       string(data),
	}
}
