package scale

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeRecord describes a persisted scale transition for audit and alerting.
type ChangeRecord struct {
	// ID uniquely identifies the record so consumers can drop redeliveries.
	ID string
	// PreviousScale is the scale before the transition.
	PreviousScale Scale
	// NewScale is the scale after the transition.
	NewScale Scale
	// Timestamp is when the transition was persisted.
	Timestamp time.Time
	// AlarmName is the alarm that triggered the transition.
	AlarmName string
	// AlarmDescription is copied from the triggering event.
	AlarmDescription string
	// NewStateReason is copied from the triggering event.
	NewStateReason string
}

// recordBody is the published JSON shape of a ChangeRecord.
type recordBody struct {
	ID            string      `json:"id"`
	PreviousScale Scale       `json:"previousScale"`
	NewScale      Scale       `json:"newScale"`
	Timestamp     string      `json:"timestamp"`
	Reason        string      `json:"reason"`
	Metrics       bodyMetrics `json:"metrics"`
}

type bodyMetrics struct {
	AlarmName        string `json:"alarmName"`
	AlarmDescription string `json:"alarmDescription"`
	NewStateReason   string `json:"newStateReason"`
}

// Subject returns the notification subject line.
func (r *ChangeRecord) Subject() string {
	return fmt.Sprintf("Deployment Scale Changed: %s to %s", r.PreviousScale, r.NewScale)
}

// Reason returns the audit reason for the transition.
func (r *ChangeRecord) Reason() string {
	return fmt.Sprintf("Alarm %s triggered the scale change", r.AlarmName)
}

// Body returns the JSON notification body.
func (r *ChangeRecord) Body() ([]byte, error) {
	body := recordBody{
		ID:            r.ID,
		PreviousScale: r.PreviousScale,
		NewScale:      r.NewScale,
		Timestamp:     r.Timestamp.UTC().Format(time.RFC3339Nano),
		Reason:        r.Reason(),
		Metrics: bodyMetrics{
			AlarmName:        r.AlarmName,
			AlarmDescription: r.AlarmDescription,
			NewStateReason:   r.NewStateReason,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode change record: %w", err)
	}

	return data, nil
}
