package scale

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParse verifies known tiers are accepted regardless of case and padding.
func TestParse(t *testing.T) {
	t.Parallel()

	cases := map[string]Scale{
		"small":    Small,
		" Medium ": Medium,
		"LARGE":    Large,
	}
	for input, want := range cases {
		got, err := Parse(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := Parse("huge")
	require.Error(t, err)

	_, err = Parse("")
	require.Error(t, err)
}

// TestScaleOrder checks the total order small < medium < large.
func TestScaleOrder(t *testing.T) {
	t.Parallel()

	require.True(t, Small.Less(Medium))
	require.True(t, Medium.Less(Large))
	require.False(t, Large.Less(Medium))
	require.False(t, Medium.Less(Medium))

	require.Equal(t, 1, Small.Distance(Medium))
	require.Equal(t, 2, Large.Distance(Small))
	require.Equal(t, 0, Medium.Distance(Medium))

	require.Equal(t, []Scale{Small, Medium, Large}, All())
	require.False(t, Scale("huge").Valid())
}

// TestResourcesFor verifies the static consumer table.
func TestResourcesFor(t *testing.T) {
	t.Parallel()

	small, ok := ResourcesFor(Small)
	require.True(t, ok)
	require.Equal(t, 1, small.EC2)

	medium, ok := ResourcesFor(Medium)
	require.True(t, ok)
	require.Equal(t, 4, medium.EC2)
	require.Equal(t, 2, medium.SecurityGroup)

	large, ok := ResourcesFor(Large)
	require.True(t, ok)
	require.Equal(t, 8, large.EC2)
	require.Equal(t, 2, large.AsMap()["s3"])
	require.Equal(t, 3, large.AsMap()["iam"])

	_, ok = ResourcesFor("huge")
	require.False(t, ok)
}
