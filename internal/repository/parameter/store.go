package parameter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/scale-controller/internal/domain/scale"
)

// Unconditional is the expected version that skips the version check on Put.
const Unconditional int64 = 0

// Value is a stored scale with its version metadata.
type Value struct {
	// Scale is the stored tier.
	Scale scale.Scale
	// Version increases by one with every successful write. Zero means never written.
	Version int64
	// UpdatedAt is when the value was last written, if the backend reports it.
	UpdatedAt time.Time
}

// Store defines persistence operations for the deployment scale parameter.
type Store interface {
	// Get returns the current value or ErrNotFound.
	Get(ctx context.Context) (*Value, error)
	// Put overwrites the value. When expectedVersion is not Unconditional the
	// write fails with ErrConflict if the stored version differs.
	Put(ctx context.Context, value scale.Scale, expectedVersion int64) (*Value, error)
}

var (
	// ErrNotFound is returned when the parameter does not exist yet.
	ErrNotFound = errors.New("parameter not found")
	// ErrConflict is returned when a conditional write lost a race.
	ErrConflict = errors.New("parameter changed since it was read")
)

// parseStored converts a raw stored string into a scale.
func parseStored(raw string) (scale.Scale, error) {
	s, err := scale.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("decode stored scale: %w", err)
	}

	return s, nil
}
