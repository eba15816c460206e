package controller

import (
	"context"
	"sync"

	"github.com/oshokin/scale-controller/internal/domain/scale"
	"github.com/oshokin/scale-controller/internal/repository/parameter"
)

// fakeStore is an in-memory parameter store with injectable failures.
type fakeStore struct {
	// value is the stored parameter, nil when missing.
	value *parameter.Value
	// getErr is returned by Get when set.
	getErr error
	// putErr is returned by Put when set.
	putErr error
	// gets counts Get calls.
	gets int
	// puts records written scales.
	puts []scale.Scale
	// mu protects the fields above.
	mu sync.Mutex
}

// newFakeStore returns a store holding s at version 1.
func newFakeStore(s scale.Scale) *fakeStore {
	return &fakeStore{
		value: &parameter.Value{Scale: s, Version: 1},
	}
}

// Get returns the stored value or the configured error.
func (f *fakeStore) Get(context.Context) (*parameter.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gets++

	if f.getErr != nil {
		return nil, f.getErr
	}

	if f.value == nil {
		return nil, parameter.ErrNotFound
	}

	result := *f.value

	return &result, nil
}

// Put stores the scale unless putErr is set or the version check fails.
func (f *fakeStore) Put(_ context.Context, value scale.Scale, expectedVersion int64) (*parameter.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.puts = append(f.puts, value)

	if f.putErr != nil {
		return nil, f.putErr
	}

	var current int64
	if f.value != nil {
		current = f.value.Version
	}

	if expectedVersion != parameter.Unconditional && expectedVersion != current {
		return nil, parameter.ErrConflict
	}

	f.value = &parameter.Value{Scale: value, Version: current + 1}

	result := *f.value

	return &result, nil
}

// current returns the stored scale.
func (f *fakeStore) current() scale.Scale {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.value == nil {
		return ""
	}

	return f.value.Scale
}

// published is one recorded notification.
type published struct {
	subject string
	body    []byte
}

// fakePublisher records notifications.
type fakePublisher struct {
	// err is returned by Publish when set.
	err error
	// messages holds every publish call.
	messages []published
	// mu protects the fields above.
	mu sync.Mutex
}

// Publish records the message and returns err.
func (f *fakePublisher) Publish(_ context.Context, subject string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, published{subject: subject, body: body})

	return f.err
}

// count returns the number of publish calls.
func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.messages)
}

// gatedStore holds the first n readers until all of them have read,
// forcing concurrent read-decide-write cycles to overlap.
type gatedStore struct {
	parameter.Store

	// barrier is released once n readers arrived.
	barrier sync.WaitGroup
	// mu protects remaining.
	mu sync.Mutex
	// remaining is the number of readers still to be gated.
	remaining int
}

// newGatedStore gates the first n Get calls on inner.
func newGatedStore(inner parameter.Store, n int) *gatedStore {
	g := &gatedStore{
		Store:     inner,
		remaining: n,
	}

	g.barrier.Add(n)

	return g
}

// Get reads from the inner store and waits for the other gated readers.
func (g *gatedStore) Get(ctx context.Context) (*parameter.Value, error) {
	value, err := g.Store.Get(ctx)

	g.mu.Lock()
	gated := g.remaining > 0
	if gated {
		g.remaining--
	}
	g.mu.Unlock()

	if gated {
		g.barrier.Done()
		g.barrier.Wait()
	}

	return value, err
}
