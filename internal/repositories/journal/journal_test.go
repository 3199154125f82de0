package journal

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gitlab.com/TitanInd/milestone-escrow/internal/campaign"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

var testStart = time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)

func newNotification(campaignID string, kind campaign.NotificationKind, i int) campaign.Notification {
	return campaign.Notification{
		ID:             uuid.NewString(),
		CampaignID:     campaignID,
		Kind:           kind,
		Actor:          lib.GetRandomAddr(),
		Amount:         big.NewInt(int64(i + 1)),
		MilestoneIndex: campaign.NoMilestone,
		Timestamp:      testStart.Add(time.Duration(i) * time.Second),
	}
}

func openJournals(t *testing.T, cap int) map[string]Journal {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return map[string]Journal{
		"memory": NewMemory(cap),
		"sqlite": store,
	}
}

func TestJournalListOrderAndLimit(t *testing.T) {
	for name, j := range openJournals(t, 16) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var appended []campaign.Notification
			for i := 0; i < 5; i++ {
				n := newNotification("a", campaign.KindPledgeMade, i)
				require.NoError(t, j.Append(ctx, n))
				require.NoError(t, j.Append(ctx, newNotification("b", campaign.KindPledgeMade, i)))
				appended = append(appended, n)
			}

			all, err := j.List(ctx, "a", 0)
			require.NoError(t, err)
			require.Len(t, all, 5)
			for i, n := range all {
				require.Equal(t, appended[i].ID, n.ID)
				require.Equal(t, appended[i].Actor, n.Actor)
				require.Equal(t, appended[i].Amount.String(), n.Amount.String())
				require.True(t, appended[i].Timestamp.Equal(n.Timestamp))
				require.Equal(t, campaign.NoMilestone, n.MilestoneIndex)
			}

			recent, err := j.List(ctx, "a", 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			require.Equal(t, appended[3].ID, recent[0].ID)
			require.Equal(t, appended[4].ID, recent[1].ID)

			none, err := j.List(ctx, "missing", 10)
			require.NoError(t, err)
			require.Empty(t, none)
		})
	}
}

func TestJournalRejectsDuplicate(t *testing.T) {
	for name, j := range openJournals(t, 16) {
		t.Run(name, func(t *testing.T) {
			n := newNotification("a", campaign.KindVoteCast, 0)
			require.NoError(t, j.Append(context.Background(), n))
			require.ErrorIs(t, j.Append(context.Background(), n), ErrAlreadyExists)
		})
	}
}

func TestJournalKeepsOptionalFields(t *testing.T) {
	for name, j := range openJournals(t, 16) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			n := newNotification("a", campaign.KindMilestoneRejected, 0)
			n.Amount = nil
			n.MilestoneIndex = 2
			n.Support = true
			n.Outcome = campaign.OutcomeNoVotes.String()
			require.NoError(t, j.Append(ctx, n))

			res, err := j.List(ctx, "a", 1)
			require.NoError(t, err)
			require.Len(t, res, 1)
			require.Nil(t, res[0].Amount)
			require.Equal(t, 2, res[0].MilestoneIndex)
			require.True(t, res[0].Support)
			require.Equal(t, n.Outcome, res[0].Outcome)
			require.Equal(t, campaign.KindMilestoneRejected, res[0].Kind)
		})
	}
}

func TestMemoryDropsOldest(t *testing.T) {
	j := NewMemory(3)
	ctx := context.Background()

	var appended []campaign.Notification
	for i := 0; i < 5; i++ {
		n := newNotification("a", campaign.KindPledgeMade, i)
		require.NoError(t, j.Append(ctx, n))
		appended = append(appended, n)
	}
	require.Equal(t, 3, j.Len())

	res, err := j.List(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, res, 3)
	require.Equal(t, appended[2].ID, res[0].ID)

	// dropped IDs are forgotten
	require.NoError(t, j.Append(ctx, appended[0]))
}

func TestMemoryClosed(t *testing.T) {
	j := NewMemory(3)
	require.NoError(t, j.Close())

	require.ErrorIs(t, j.Append(context.Background(), newNotification("a", campaign.KindPledgeMade, 0)), ErrClosed)
	_, err := j.List(context.Background(), "a", 0)
	require.ErrorIs(t, err, ErrClosed)
}

func TestSQLiteReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()
	n := newNotification("a", campaign.KindRefundMade, 0)

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, n))
	require.NoError(t, store.Close())

	store, err = OpenSQLite(path)
	require.NoError(t, err)
	defer store.Close()

	res, err := store.List(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, n.ID, res[0].ID)
}

func TestSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	require.Error(t, err)
}
