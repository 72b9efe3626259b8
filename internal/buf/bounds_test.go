package buf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddOverflowSafe(t *testing.T) {
	sum, ok := AddOverflowSafe(10, 5)
	require.True(t, ok)
	require.Equal(t, 15, sum)

	_, ok = AddOverflowSafe(math.MaxInt, 1)
	require.False(t, ok, "adding to MaxInt must overflow")

	_, ok = AddOverflowSafe(math.MinInt, -1)
	require.False(t, ok, "subtracting from MinInt must underflow")
}

func TestCheckRange(t *testing.T) {
	end, err := CheckRange(64, 4096, 64, 128)
	require.NoError(t, err)
	require.Equal(t, 192, end)

	_, err = CheckRange(64, 4096, 32, 64)
	require.ErrorContains(t, err, "below")

	_, err = CheckRange(64, 4096, 4064, 64)
	require.ErrorContains(t, err, "bounds")

	_, err = CheckRange(0, math.MaxInt, math.MaxInt-1, 8)
	require.ErrorContains(t, err, "overflow")

	_, err = CheckRange(0, 4096, 0, -1)
	require.ErrorContains(t, err, "negative")
}
