package scale

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/scale-controller/internal/domain/scale"
	"github.com/oshokin/scale-controller/internal/repository/parameter"
)

// Status is the current scale as reported by GetScale.
type Status struct {
	// Scale is the current tier.
	Scale domain.Scale
	// Version is the parameter version.
	Version int64
	// UpdatedAt is when the parameter was last written, zero if unknown.
	UpdatedAt time.Time
	// Resources is the expected resource table for Scale.
	Resources domain.Resources
}

// Result is the outcome of HandleAlarm as seen by clients.
type Result struct {
	Outcome           domain.OutcomeKind
	Reason            string
	From              domain.Scale
	To                domain.Scale
	Message           string
	NotificationError string
}

// EncodeStatus converts a stored value into a GetScale response.
func EncodeStatus(value *parameter.Value) (*structpb.Struct, error) {
	resources, _ := domain.ResourcesFor(value.Scale)

	counts := make(map[string]any, len(resources.AsMap()))
	for name, count := range resources.AsMap() {
		counts[name] = count
	}

	var updatedAt string
	if !value.UpdatedAt.IsZero() {
		updatedAt = value.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}

	return structpb.NewStruct(map[string]any{
		"scale":     value.Scale.String(),
		"version":   value.Version,
		"updatedAt": updatedAt,
		"resources": counts,
	})
}

// DecodeStatus converts a GetScale response into a Status.
func DecodeStatus(msg *structpb.Struct) (*Status, error) {
	fields := msg.GetFields()

	current, err := domain.Parse(fields["scale"].GetStringValue())
	if err != nil {
		return nil, err
	}

	status := &Status{
		Scale:   current,
		Version: int64(fields["version"].GetNumberValue()),
	}

	status.Resources, _ = domain.ResourcesFor(current)

	if raw := fields["updatedAt"].GetStringValue(); raw != "" {
		if status.UpdatedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("decode updatedAt: %w", err)
		}
	}

	return status, nil
}

// EncodeEvent converts an alarm event into a HandleAlarm request.
func EncodeEvent(event *domain.AlarmEvent) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"AlarmName":        event.AlarmName,
		"NewStateValue":    event.NewStateValue,
		"AlarmDescription": event.AlarmDescription,
		"NewStateReason":   event.NewStateReason,
	})
}

// DecodeEvent converts a HandleAlarm request into an alarm event.
func DecodeEvent(msg *structpb.Struct) *domain.AlarmEvent {
	fields := msg.GetFields()

	return &domain.AlarmEvent{
		AlarmName:        fields["AlarmName"].GetStringValue(),
		NewStateValue:    fields["NewStateValue"].GetStringValue(),
		AlarmDescription: fields["AlarmDescription"].GetStringValue(),
		NewStateReason:   fields["NewStateReason"].GetStringValue(),
	}
}

// EncodeOutcome converts an outcome into a HandleAlarm response.
func EncodeOutcome(outcome *domain.Outcome) (*structpb.Struct, error) {
	var notificationError string
	if outcome.PublishErr != nil {
		notificationError = outcome.PublishErr.Error()
	}

	return structpb.NewStruct(map[string]any{
		"outcome":           string(outcome.Kind),
		"reason":            outcome.Reason,
		"from":              outcome.From.String(),
		"to":                outcome.To.String(),
		"message":           outcome.Message(),
		"notificationError": notificationError,
	})
}

// DecodeResult converts a HandleAlarm response into a Result.
func DecodeResult(msg *structpb.Struct) *Result {
	fields := msg.GetFields()

	return &Result{
		Outcome:           domain.OutcomeKind(fields["outcome"].GetStringValue()),
		Reason:            fields["reason"].GetStringValue(),
		From:              domain.Scale(fields["from"].GetStringValue()),
		To:                domain.Scale(fields["to"].GetStringValue()),
		Message:           fields["message"].GetStringValue(),
		NotificationError: fields["notificationError"].GetStringValue(),
	}
}

// EncodeRules converts rules into a ListRules response.
func EncodeRules(rules []domain.Rule) (*structpb.Struct, error) {
	items := make([]any, 0, len(rules))
	for _, rule := range rules {
		items = append(items, map[string]any{
			"alarmName": rule.AlarmName,
			"from":      rule.From.String(),
			"to":        rule.To.String(),
		})
	}

	return structpb.NewStruct(map[string]any{
		"rules": items,
	})
}

// DecodeRules converts a ListRules response into rules.
func DecodeRules(msg *structpb.Struct) []domain.Rule {
	values := msg.GetFields()["rules"].GetListValue().GetValues()

	rules := make([]domain.Rule, 0, len(values))
	for _, value := range values {
		fields := value.GetStructValue().GetFields()

		rules = append(rules, domain.Rule{
			AlarmName: fields["alarmName"].GetStringValue(),
			From:      domain.Scale(fields["from"].GetStringValue()),
			To:        domain.Scale(fields["to"].GetStringValue()),
		})
	}

	return rules
}
