package scale

// Alarm states reported by the monitoring system.
const (
	StateAlarm            = "ALARM"
	StateOK               = "OK"
	StateInsufficientData = "INSUFFICIENT_DATA"
)

// AlarmEvent is a single alarm state change notification.
type AlarmEvent struct {
	// AlarmName identifies the alarm and selects the transition rule.
	AlarmName string `json:"AlarmName"`
	// NewStateValue is the state the alarm moved into.
	NewStateValue string `json:"NewStateValue"`
	// AlarmDescription is free text attached to the alarm definition.
	AlarmDescription string `json:"AlarmDescription,omitempty"`
	// NewStateReason explains why the alarm changed state.
	NewStateReason string `json:"NewStateReason,omitempty"`
}

// Firing reports whether the alarm entered the ALARM state.
func (e *AlarmEvent) Firing() bool {
	return e.NewStateValue == StateAlarm
}

// KnownState reports whether state belongs to the alarm state vocabulary.
func KnownState(state string) bool {
	switch state {
	case StateAlarm, StateOK, StateInsufficientData:
		return true
	default:
		return false
	}
}
