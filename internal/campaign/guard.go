package campaign

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
	"go.uber.org/atomic"
)

// Transferer moves value out of custody. A call either fully succeeds or has no effect,
// unless the returned error implements PendingTransfer
type Transferer interface {
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
}

// PendingTransfer is implemented by transfer errors raised after the value was already sent
// but before its confirmation. The funds are treated as gone
type PendingTransfer interface {
	TransferPending() bool
}

// DisbursementGuard is the single exit for funds held in custody. Only one transfer may be
// in flight at a time, a second attempt while locked fails instead of waiting
type DisbursementGuard struct {
	locked     *atomic.Bool
	balance    *big.Int
	mutex      sync.Mutex
	transferer Transferer
}

func NewDisbursementGuard(transferer Transferer) *DisbursementGuard {
	return &DisbursementGuard{
		locked:     atomic.NewBool(false),
		balance:    new(big.Int),
		transferer: transferer,
	}
}

// Deposit records value that has arrived into custody
func (g *DisbursementGuard) Deposit(amount *big.Int) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.balance.Add(g.balance, amount)
}

// Balance returns the funds actually held
func (g *DisbursementGuard) Balance() *big.Int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return new(big.Int).Set(g.balance)
}

// Locked reports whether a transfer is in flight
func (g *DisbursementGuard) Locked() bool {
	return g.locked.Load()
}

// Disburse sends amount to the recipient. The lock is released on every exit path. The custody
// balance is restored if the transfer fails, a pending transfer keeps it debited and is
// reported with ErrTransferPending
func (g *DisbursementGuard) Disburse(ctx context.Context, to common.Address, amount *big.Int) error {
	if !g.locked.CAS(false, true) {
		return ErrReentrantCall
	}
	defer g.locked.Store(false)

	if !isPositive(amount) {
		return ErrInvalidAmount
	}

	if err := g.debit(amount); err != nil {
		return err
	}

	if err := g.transferer.Transfer(ctx, to, amount); err != nil {
		var pending PendingTransfer
		if errors.As(err, &pending) && pending.TransferPending() {
			return lib.WrapError(ErrTransferPending, err)
		}
		g.Deposit(amount)
		return lib.WrapError(ErrTransferFailed, err)
	}
	return nil
}

func (g *DisbursementGuard) debit(amount *big.Int) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if amount.Cmp(g.balance) > 0 {
		return lib.WrapError(ErrInsufficientCustodyBalance, errAmountExceedsBalance(amount, g.balance))
	}
	g.balance.Sub(g.balance, amount)
	return nil
}
