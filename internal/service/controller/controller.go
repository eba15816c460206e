package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/oshokin/scale-controller/internal/domain/scale"
	"github.com/oshokin/scale-controller/internal/logger"
	"github.com/oshokin/scale-controller/internal/metrics"
	"github.com/oshokin/scale-controller/internal/notifier"
	"github.com/oshokin/scale-controller/internal/repository/parameter"
)

// Options tunes the controller. Zero values select defaults.
type Options struct {
	// Table is the transition table. Defaults to scale.DefaultTable.
	Table *scale.Table
	// InitialScale is assumed when the parameter is missing and SeedMissing is set.
	InitialScale scale.Scale
	// SeedMissing treats a missing parameter as InitialScale.
	SeedMissing bool
	// ConditionalWrite makes writes fail when the parameter changed since it was read.
	ConditionalWrite bool
	// MaxWriteAttempts bounds read-decide-write cycles on conflicting writes.
	MaxWriteAttempts int
	// BackOff returns the retry policy between conflicting attempts.
	BackOff func() backoff.BackOff
	// Clock stamps change records.
	Clock clock.Clock
	// NewID generates change record identifiers.
	NewID func() string
	// Metrics receives outcome counters. May be nil.
	Metrics *metrics.Metrics
}

// DefaultMaxWriteAttempts is used when Options.MaxWriteAttempts is not set.
const DefaultMaxWriteAttempts = 3

var (
	errEmptyPayload = errors.New("payload is empty")
	errNoRecords    = errors.New("notification has no records")
	errEmptyMessage = errors.New("notification message is empty")
	errNoStore      = errors.New("parameter store must be provided")
	errNoPublisher  = errors.New("publisher must be provided")
)

// Controller moves the deployment scale in response to alarm events.
// It keeps no state between calls; the parameter store is the only state.
type Controller struct {
	store     parameter.Store
	publisher notifier.Publisher
	decoder   *Decoder
	table     *scale.Table
	opts      Options
}

// New wires a controller over store and publisher.
func New(store parameter.Store, publisher notifier.Publisher, opts *Options) (*Controller, error) {
	if store == nil {
		return nil, errNoStore
	}

	if publisher == nil {
		return nil, errNoPublisher
	}

	decoder, err := NewDecoder()
	if err != nil {
		return nil, err
	}

	var options Options
	if opts != nil {
		options = *opts
	}

	if options.Table == nil {
		options.Table = scale.DefaultTable()
	}

	if options.InitialScale == "" {
		options.InitialScale = scale.Small
	}

	if !options.InitialScale.Valid() {
		return nil, fmt.Errorf("invalid initial scale %q", options.InitialScale)
	}

	if options.MaxWriteAttempts <= 0 {
		options.MaxWriteAttempts = DefaultMaxWriteAttempts
	}

	if options.BackOff == nil {
		options.BackOff = defaultBackOff
	}

	if options.Clock == nil {
		options.Clock = clock.NewClock()
	}

	if options.NewID == nil {
		options.NewID = uuid.NewString
	}

	return &Controller{
		store:     store,
		publisher: publisher,
		decoder:   decoder,
		table:     options.Table,
		opts:      options,
	}, nil
}

// HandleAlarm decodes payload and handles the alarm it carries.
func (c *Controller) HandleAlarm(ctx context.Context, payload []byte) (*scale.Outcome, error) {
	event, err := c.decoder.Decode(payload)
	if err != nil {
		c.opts.Metrics.ObserveFailure(scale.KindMalformedEvent)
		logger.ErrorKV(ctx, "Rejected alarm payload", "error", err)

		return nil, err
	}

	return c.Handle(ctx, event)
}

// Handle applies a decoded alarm event.
//
// Non-firing events and events without an applicable rule are no-ops. A
// failed read or write returns a *scale.Error and leaves the stored scale as
// it was. A failed publish is reported in Outcome.PublishErr only.
func (c *Controller) Handle(ctx context.Context, event *scale.AlarmEvent) (*scale.Outcome, error) {
	if event == nil || event.AlarmName == "" || !scale.KnownState(event.NewStateValue) {
		c.opts.Metrics.ObserveFailure(scale.KindMalformedEvent)

		return nil, scale.NewError(scale.KindMalformedEvent, "alarm name and a known state are required", nil)
	}

	ctx = logger.WithFields(ctx, "alarm_name", event.AlarmName, "alarm_state", event.NewStateValue)

	if !event.Firing() {
		logger.Infof(ctx, "Alarm %s is in %s state. No action needed.", event.AlarmName, event.NewStateValue)

		outcome := scale.NoOp(scale.ReasonNotFiring, "")
		c.opts.Metrics.ObserveOutcome(outcome)

		return outcome, nil
	}

	outcome, err := c.transitionWithRetry(ctx, event)
	if err != nil {
		kind, _ := scale.KindOf(err)
		c.opts.Metrics.ObserveFailure(kind)
		logger.ErrorKV(ctx, "Scale transition failed", "kind", kind, "error", err)

		return nil, err
	}

	if outcome.Changed() {
		c.publish(ctx, outcome)
	}

	c.opts.Metrics.ObserveOutcome(outcome)

	return outcome, nil
}

// Current returns the stored scale, applying the seed policy for a missing parameter.
func (c *Controller) Current(ctx context.Context) (*parameter.Value, error) {
	return c.readCurrent(ctx)
}

// Rules returns the transition rules in use.
func (c *Controller) Rules() []scale.Rule {
	return c.table.Rules()
}

// transitionWithRetry runs one read-decide-write cycle, repeating it on
// conflicting conditional writes.
func (c *Controller) transitionWithRetry(ctx context.Context, event *scale.AlarmEvent) (*scale.Outcome, error) {
	if !c.opts.ConditionalWrite {
		return c.transition(ctx, event)
	}

	var (
		outcome  *scale.Outcome
		attempts int
	)

	operation := func() error {
		attempts++

		result, err := c.transition(ctx, event)

		switch {
		case err == nil:
			outcome = result

			return nil
		case errors.Is(err, parameter.ErrConflict):
			c.opts.Metrics.ObserveConflict()
			logger.WarnKV(ctx, "Scale changed concurrently, retrying", "attempt", attempts)

			return err
		default:
			return backoff.Permanent(err)
		}
	}

	//nolint:gosec // MaxWriteAttempts is positive after New.
	policy := backoff.WithContext(
		backoff.WithMaxRetries(c.opts.BackOff(), uint64(c.opts.MaxWriteAttempts-1)),
		ctx,
	)

	err := backoff.Retry(operation, policy)

	switch {
	case err == nil:
		return outcome, nil
	case errors.Is(err, parameter.ErrConflict):
		return nil, scale.NewError(
			scale.KindPersistenceWrite,
			fmt.Sprintf("write scale: conflicting writes after %d attempts", attempts),
			err,
		)
	default:
		if _, ok := scale.KindOf(err); !ok {
			err = scale.NewError(scale.KindPersistenceWrite, "write scale", err)
		}

		return nil, err
	}
}

// transition reads the current scale, looks up the rule and writes the target.
// With conditional writes a conflict is returned as parameter.ErrConflict for
// the retry loop; every other failure is a *scale.Error.
func (c *Controller) transition(ctx context.Context, event *scale.AlarmEvent) (*scale.Outcome, error) {
	current, err := c.readCurrent(ctx)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Current deployment scale", "scale", current.Scale, "version", current.Version)

	rule, ok := c.table.Lookup(event.AlarmName, current.Scale)
	if !ok {
		logger.Infof(ctx, "No scale change needed. Remaining at %s.", current.Scale)

		return scale.NoOp(scale.ReasonNoRule, current.Scale), nil
	}

	if rule.To == current.Scale {
		return scale.NoOp(scale.ReasonUnchanged, current.Scale), nil
	}

	expectedVersion := parameter.Unconditional
	if c.opts.ConditionalWrite {
		expectedVersion = current.Version
	}

	if _, err = c.store.Put(ctx, rule.To, expectedVersion); err != nil {
		if c.opts.ConditionalWrite && errors.Is(err, parameter.ErrConflict) {
			return nil, err
		}

		return nil, scale.NewError(scale.KindPersistenceWrite, "write scale", err)
	}

	logger.InfoKV(ctx, "Updated deployment scale", "from", current.Scale, "to", rule.To)

	record := &scale.ChangeRecord{
		ID:               c.opts.NewID(),
		PreviousScale:    current.Scale,
		NewScale:         rule.To,
		Timestamp:        c.opts.Clock.Now().UTC(),
		AlarmName:        event.AlarmName,
		AlarmDescription: event.AlarmDescription,
		NewStateReason:   event.NewStateReason,
	}

	return scale.Transitioned(record), nil
}

// readCurrent reads the stored scale.
func (c *Controller) readCurrent(ctx context.Context) (*parameter.Value, error) {
	current, err := c.store.Get(ctx)

	switch {
	case err == nil:
		return current, nil
	case errors.Is(err, parameter.ErrNotFound) && c.opts.SeedMissing:
		logger.WarnKV(ctx, "Scale parameter missing, assuming initial scale", "scale", c.opts.InitialScale)

		return &parameter.Value{Scale: c.opts.InitialScale}, nil
	default:
		return nil, scale.NewError(scale.KindPersistenceRead, "read scale", err)
	}
}

// publish sends the change record and records a failure on the outcome.
func (c *Controller) publish(ctx context.Context, outcome *scale.Outcome) {
	record := outcome.Record

	body, err := record.Body()
	if err == nil {
		err = c.publisher.Publish(ctx, record.Subject(), body)
	}

	if err != nil {
		outcome.PublishErr = scale.NewError(scale.KindNotificationPublish, "publish change record", err)
		logger.ErrorKV(ctx, "Scale changed but notification failed", "record_id", record.ID, "error", err)

		return
	}

	logger.InfoKV(ctx, "Scale change published", "record_id", record.ID, "subject", record.Subject())
}

// defaultBackOff is a short exponential policy; conflicts resolve within milliseconds.
func defaultBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = time.Second
	policy.MaxElapsedTime = 5 * time.Second

	return policy
}
