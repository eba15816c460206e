package scale

// OutcomeKind tells whether handling an event changed the scale.
type OutcomeKind string

const (
	// OutcomeNoOp means the event was accepted and nothing was written.
	OutcomeNoOp OutcomeKind = "noop"
	// OutcomeTransitioned means a new scale was persisted.
	OutcomeTransitioned OutcomeKind = "transitioned"
)

// NoOp reasons.
const (
	ReasonNotFiring = "not firing"
	ReasonNoRule    = "no applicable rule"
	ReasonUnchanged = "scale unchanged"
)

// Outcome is the successful result of handling an alarm event.
type Outcome struct {
	// Kind is either OutcomeNoOp or OutcomeTransitioned.
	Kind OutcomeKind
	// Reason explains a no-op.
	Reason string
	// From is the scale read before the decision. Empty when the store was not read.
	From Scale
	// To is the persisted scale after a transition, or From on a no-op.
	To Scale
	// Record is the change record built for a transition.
	Record *ChangeRecord
	// PublishErr is set when the transition was persisted but the notification failed.
	PublishErr *Error
}

// NoOp builds a no-op outcome.
func NoOp(reason string, current Scale) *Outcome {
	return &Outcome{
		Kind:   OutcomeNoOp,
		Reason: reason,
		From:   current,
		To:     current,
	}
}

// Transitioned builds a transition outcome for record.
func Transitioned(record *ChangeRecord) *Outcome {
	return &Outcome{
		Kind:   OutcomeTransitioned,
		From:   record.PreviousScale,
		To:     record.NewScale,
		Record: record,
	}
}

// Changed reports whether the outcome persisted a new scale.
func (o *Outcome) Changed() bool {
	return o.Kind == OutcomeTransitioned
}

// Message renders a human-readable summary of the outcome.
func (o *Outcome) Message() string {
	switch {
	case o.Changed():
		return "Successfully updated deployment scale from " + o.From.String() + " to " + o.To.String()
	case o.From != "":
		return "No scale change needed (" + o.Reason + "). Remaining at " + o.From.String() + "."
	default:
		return "No action needed (" + o.Reason + ")."
	}
}
