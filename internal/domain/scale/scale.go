package scale

import (
	"fmt"
	"strings"
)

// Scale is a deployment sizing tier.
type Scale string

const (
	// Small is the lowest tier.
	Small Scale = "small"
	// Medium is the middle tier.
	Medium Scale = "medium"
	// Large is the highest tier.
	Large Scale = "large"
)

// ordered lists the tiers from lowest to highest.
//
//nolint:gochecknoglobals // Static tier order.
var ordered = []Scale{Small, Medium, Large}

// All returns every tier from lowest to highest.
func All() []Scale {
	result := make([]Scale, len(ordered))
	copy(result, ordered)

	return result
}

// Parse converts a stored or user-provided value into a Scale.
func Parse(value string) (Scale, error) {
	candidate := Scale(strings.ToLower(strings.TrimSpace(value)))
	if !candidate.Valid() {
		return "", fmt.Errorf("unknown scale %q", value)
	}

	return candidate, nil
}

// Valid reports whether s is one of the known tiers.
func (s Scale) Valid() bool {
	return s.rank() >= 0
}

// Less reports whether s is a lower tier than other.
func (s Scale) Less(other Scale) bool {
	return s.rank() < other.rank()
}

// Distance returns the number of tiers between s and other.
func (s Scale) Distance(other Scale) int {
	d := s.rank() - other.rank()
	if d < 0 {
		return -d
	}

	return d
}

// String implements fmt.Stringer.
func (s Scale) String() string {
	return string(s)
}

// rank returns the position of s in the tier order or -1 when unknown.
func (s Scale) rank() int {
	for i, tier := range ordered {
		if tier == s {
			return i
		}
	}

	return -1
}
