package campaign

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

type transfererFunc func(ctx context.Context, to common.Address, amount *big.Int) error

func (f transfererFunc) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	return f(ctx, to, amount)
}

func TestGuardDisburse(t *testing.T) {
	var received *big.Int
	to := lib.GetRandomAddr()
	g := NewDisbursementGuard(transfererFunc(func(ctx context.Context, addr common.Address, amount *big.Int) error {
		require.Equal(t, to, addr)
		received = amount
		return nil
	}))
	g.Deposit(big.NewInt(10))

	err := g.Disburse(context.Background(), to, big.NewInt(4))
	require.NoError(t, err)
	requireAmount(t, 4, received)
	requireAmount(t, 6, g.Balance())
	require.False(t, g.Locked())
}

func TestGuardInsufficientBalance(t *testing.T) {
	called := false
	g := NewDisbursementGuard(transfererFunc(func(context.Context, common.Address, *big.Int) error {
		called = true
		return nil
	}))
	g.Deposit(big.NewInt(3))

	err := g.Disburse(context.Background(), lib.GetRandomAddr(), big.NewInt(4))
	require.ErrorIs(t, err, ErrInsufficientCustodyBalance)
	require.False(t, called)
	requireAmount(t, 3, g.Balance())
	require.False(t, g.Locked())
}

func TestGuardTransferFailureRestoresBalance(t *testing.T) {
	errRecipient := errors.New("recipient rejects")
	g := NewDisbursementGuard(transfererFunc(func(context.Context, common.Address, *big.Int) error {
		return errRecipient
	}))
	g.Deposit(big.NewInt(5))

	err := g.Disburse(context.Background(), lib.GetRandomAddr(), big.NewInt(5))
	require.ErrorIs(t, err, ErrTransferFailed)
	require.ErrorIs(t, err, errRecipient)
	requireAmount(t, 5, g.Balance())
	require.False(t, g.Locked())
}

func TestGuardRejectsReentry(t *testing.T) {
	var nestedErr error
	var g *DisbursementGuard
	g = NewDisbursementGuard(transfererFunc(func(ctx context.Context, to common.Address, amount *big.Int) error {
		nestedErr = g.Disburse(ctx, to, amount)
		return nil
	}))
	g.Deposit(big.NewInt(10))

	err := g.Disburse(context.Background(), lib.GetRandomAddr(), big.NewInt(2))
	require.NoError(t, err)
	require.ErrorIs(t, nestedErr, ErrReentrantCall)
	requireAmount(t, 8, g.Balance(), "nested call must not move funds")
	require.False(t, g.Locked())
}

type pendingTransferError struct{}

func (pendingTransferError) Error() string         { return "receipt not available" }
func (pendingTransferError) TransferPending() bool { return true }

func TestGuardPendingTransferKeepsDebit(t *testing.T) {
	g := NewDisbursementGuard(transfererFunc(func(context.Context, common.Address, *big.Int) error {
		return pendingTransferError{}
	}))
	g.Deposit(big.NewInt(5))

	err := g.Disburse(context.Background(), lib.GetRandomAddr(), big.NewInt(3))
	require.ErrorIs(t, err, ErrTransferPending)
	require.NotErrorIs(t, err, ErrTransferFailed)
	requireAmount(t, 2, g.Balance(), "sent value must not return to custody")
	require.False(t, g.Locked())
}
