package parameter

import (
	"context"
	"sync"

	"code.cloudfoundry.org/clock"

	"github.com/oshokin/scale-controller/internal/domain/scale"
)

// MemoryStore keeps the parameter in process memory.
// It backs the scale server's "memory" store and tests.
type MemoryStore struct {
	// clock stamps writes.
	clock clock.Clock
	// value is nil until the first write.
	value *Value
	// mu protects value.
	mu sync.Mutex
}

// NewMemoryStore creates an empty store. A nil clock uses the wall clock.
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.NewClock()
	}

	return &MemoryStore{
		clock: clk,
	}
}

// Get returns the current value.
func (m *MemoryStore) Get(_ context.Context) (*Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.value == nil {
		return nil, ErrNotFound
	}

	result := *m.value

	return &result, nil
}

// Put writes value, honoring expectedVersion.
func (m *MemoryStore) Put(_ context.Context, value scale.Scale, expectedVersion int64) (*Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if m.value != nil {
		current = m.value.Version
	}

	if expectedVersion != Unconditional && expectedVersion != current {
		return nil, ErrConflict
	}

	m.value = &Value{
		Scale:     value,
		Version:   current + 1,
		UpdatedAt: m.clock.Now(),
	}

	result := *m.value

	return &result, nil
}
