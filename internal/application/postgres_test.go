package application

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDBBackoff_StopsAfterRetries(t *testing.T) {
	b := dbBackoff(3)

	for i := 0; i < 2; i++ {
		d, stop := b.Next()
		require.False(t, stop, "attempt %d", i)
		require.Positive(t, d)
		require.LessOrEqual(t, d, dbOpenBackoffCap)
	}

	_, stop := b.Next()
	require.True(t, stop)
}

func TestDBBackoff_NonPositiveRetries(t *testing.T) {
	_, stop := dbBackoff(0).Next()
	require.True(t, stop)
}
