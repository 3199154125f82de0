package custody

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireAmount(t *testing.T, expected int64, actual *big.Int, msgAndArgs ...interface{}) {
	t.Helper()
	require.NotNil(t, actual, msgAndArgs...)
	require.Equal(t, big.NewInt(expected).String(), actual.String(), msgAndArgs...)
}
