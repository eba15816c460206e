package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/oshokin/scale-controller/internal/domain/scale"
)

// alarmSchema describes the alarm state change message.
const alarmSchema = `{
  "type": "object",
  "required": ["AlarmName", "NewStateValue"],
  "properties": {
    "AlarmName": {"type": "string", "minLength": 1},
    "NewStateValue": {"type": "string", "enum": ["ALARM", "OK", "INSUFFICIENT_DATA"]},
    "AlarmDescription": {"type": ["string", "null"]},
    "NewStateReason": {"type": ["string", "null"]}
  }
}`

// snsEnvelope is the notification wrapper delivered by SNS subscriptions.
type snsEnvelope struct {
	Records []struct {
		Sns struct {
			Message string `json:"Message"`
		} `json:"Sns"`
	} `json:"Records"`
}

// Decoder turns raw trigger payloads into alarm events.
type Decoder struct {
	schema *gojsonschema.Schema
}

// NewDecoder compiles the alarm schema.
func NewDecoder() (*Decoder, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(alarmSchema))
	if err != nil {
		return nil, fmt.Errorf("compile alarm schema: %w", err)
	}

	return &Decoder{
		schema: schema,
	}, nil
}

// Decode accepts either an SNS envelope, in which case the first record's
// message is decoded, or a bare alarm message. Any failure is a
// KindMalformedEvent error.
func (d *Decoder) Decode(payload []byte) (*scale.AlarmEvent, error) {
	message, err := unwrapEnvelope(payload)
	if err != nil {
		return nil, scale.NewError(scale.KindMalformedEvent, "unwrap notification", err)
	}

	result, err := d.schema.Validate(gojsonschema.NewBytesLoader(message))
	if err != nil {
		return nil, scale.NewError(scale.KindMalformedEvent, "parse alarm message", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return nil, scale.NewError(scale.KindMalformedEvent, "invalid alarm message: "+strings.Join(details, "; "), nil)
	}

	var event scale.AlarmEvent
	if err = json.Unmarshal(message, &event); err != nil {
		return nil, scale.NewError(scale.KindMalformedEvent, "decode alarm message", err)
	}

	return &event, nil
}

// unwrapEnvelope returns the embedded SNS message or the payload itself.
func unwrapEnvelope(payload []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, errEmptyPayload
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	if _, ok := top["Records"]; !ok {
		return trimmed, nil
	}

	var envelope snsEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	if len(envelope.Records) == 0 {
		return nil, errNoRecords
	}

	message := strings.TrimSpace(envelope.Records[0].Sns.Message)
	if message == "" {
		return nil, errEmptyMessage
	}

	return []byte(message), nil
}
