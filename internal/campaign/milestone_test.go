package campaign

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

func newTestRegistry() *Registry {
	return NewRegistry(
		[]string{"design", "build", "ship"},
		[]*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)},
	)
}

func TestRegistryOpenInOrder(t *testing.T) {
	r := newTestRegistry()
	deadline := time.Now().Add(time.Minute)

	err := r.Open(1, deadline)
	require.ErrorIs(t, err, ErrMilestoneOutOfOrder)

	err = r.Open(2, deadline)
	require.ErrorIs(t, err, ErrMilestoneOutOfOrder)

	require.NoError(t, r.Open(0, deadline))
	require.ErrorIs(t, r.Open(0, deadline), ErrVotingStillOpen)

	m, err := r.Get(0)
	require.NoError(t, err)
	require.Equal(t, VotingOpen, m.VotingPhase)
	require.Equal(t, deadline, m.VotingDeadline)
	require.Equal(t, 1, m.Round)
}

func TestRegistryOpenAfterRelease(t *testing.T) {
	r := newTestRegistry()
	deadline := time.Now().Add(time.Minute)

	require.NoError(t, r.Open(0, deadline))
	r.items[0].close(big.NewInt(0))
	r.items[0].released = true

	require.ErrorIs(t, r.Open(0, deadline), ErrMilestoneReleased)
	require.NoError(t, r.Open(1, deadline))
	require.Equal(t, 1, r.ReleasedCount())
}

func TestRegistryReopenResetsTally(t *testing.T) {
	r := newTestRegistry()
	voter := lib.GetRandomAddr()

	require.NoError(t, r.Open(0, time.Now()))
	require.NoError(t, r.items[0].castVote(voter, true, big.NewInt(5)))
	require.Equal(t, OutcomeRejected, r.items[0].close(big.NewInt(100)))

	require.NoError(t, r.Open(0, time.Now()))
	m, err := r.Get(0)
	require.NoError(t, err)
	requireAmount(t, 0, m.YesWeight)
	require.Equal(t, 0, m.Voters)
	require.Equal(t, 2, m.Round)

	require.NoError(t, r.items[0].castVote(voter, true, big.NewInt(5)), "a new round accepts previous voters")
}

func TestRegistryOutOfRange(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Get(3)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = r.Get(-1)
	require.ErrorIs(t, err, ErrInvalidAmount)
	require.ErrorIs(t, r.Open(5, time.Now()), ErrInvalidAmount)
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	r := newTestRegistry()

	m, err := r.Get(2)
	require.NoError(t, err)
	m.Amount.SetInt64(100)

	m, err = r.Get(2)
	require.NoError(t, err)
	requireAmount(t, 3, m.Amount)
	require.Len(t, r.All(), 3)
}
