package campaign

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

func TestMeetsThresholdBoundary(t *testing.T) {
	total := big.NewInt(100)

	require.True(t, MeetsThreshold(big.NewInt(50), total), "tie passes")
	require.True(t, MeetsThreshold(big.NewInt(51), total))
	require.False(t, MeetsThreshold(big.NewInt(49), total))
}

func TestMeetsThresholdOddTotal(t *testing.T) {
	// 2*100 = 200 < 50*5 = 250, 3*100 = 300 >= 250
	require.False(t, MeetsThreshold(big.NewInt(2), big.NewInt(5)))
	require.True(t, MeetsThreshold(big.NewInt(3), big.NewInt(5)))
}

func TestMeetsThresholdLargeValues(t *testing.T) {
	total, _ := new(big.Int).SetString("340282366920938463463374607431768211456", 10) // 2^128
	half := new(big.Int).Rsh(total, 1)

	require.True(t, MeetsThreshold(half, total))
	require.False(t, MeetsThreshold(new(big.Int).Sub(half, big.NewInt(1)), total))
}

func TestEvaluate(t *testing.T) {
	total := big.NewInt(100)

	require.Equal(t, OutcomePassed, Evaluate(big.NewInt(50), big.NewInt(0), total))
	require.Equal(t, OutcomeRejected, Evaluate(big.NewInt(49), big.NewInt(51), total))
	require.Equal(t, OutcomeNoVotes, Evaluate(big.NewInt(0), big.NewInt(0), total))
	require.Equal(t, OutcomeNoVotes, Evaluate(big.NewInt(0), big.NewInt(0), big.NewInt(0)), "vacuous tally never passes")
	require.Equal(t, OutcomeRejected, Evaluate(big.NewInt(40), big.NewInt(0), total), "low turnout fails even if unanimous")
}

func TestCastVote(t *testing.T) {
	r := NewRegistry([]string{"m0"}, []*big.Int{big.NewInt(10)})
	alice, bob := lib.GetRandomAddr(), lib.GetRandomAddr()
	m := r.items[0]

	require.ErrorIs(t, m.castVote(alice, true, big.NewInt(3)), ErrVotingNotOpen)

	require.NoError(t, r.Open(0, time.Now().Add(time.Minute)))
	require.NoError(t, m.castVote(alice, true, big.NewInt(3)))
	require.NoError(t, m.castVote(bob, false, big.NewInt(2)))

	require.ErrorIs(t, m.castVote(alice, false, big.NewInt(3)), ErrDuplicateVote)
	require.ErrorIs(t, m.castVote(lib.GetRandomAddr(), true, big.NewInt(0)), ErrNotContributor)

	snap, err := r.Get(0)
	require.NoError(t, err)
	requireAmount(t, 3, snap.YesWeight)
	requireAmount(t, 2, snap.NoWeight)
	require.Equal(t, 2, snap.Voters)
}
