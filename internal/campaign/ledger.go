package campaign

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

// Ledger records what every contributor has pledged and the campaign level total.
// It is not safe for concurrent use, the owning campaign serializes access
type Ledger struct {
	contributions map[common.Address]*big.Int
	totalRaised   *big.Int
}

func NewLedger() *Ledger {
	return &Ledger{
		contributions: make(map[common.Address]*big.Int),
		totalRaised:   new(big.Int),
	}
}

func (l *Ledger) Pledge(from common.Address, amount *big.Int) error {
	if !isPositive(amount) {
		return ErrInvalidAmount
	}
	l.credit(from, amount)
	l.totalRaised.Add(l.totalRaised, amount)
	return nil
}

func (l *Ledger) Withdraw(from common.Address, amount *big.Int) error {
	if !isPositive(amount) {
		return ErrInvalidAmount
	}
	balance, ok := l.contributions[from]
	if !ok || amount.Cmp(balance) > 0 {
		return lib.WrapError(ErrInvalidAmount, errAmountExceedsBalance(amount, l.BalanceOf(from)))
	}
	balance.Sub(balance, amount)
	l.totalRaised.Sub(l.totalRaised, amount)
	return nil
}

// ClearForRefund zeroes the contributor entry and returns what it held. The total is left
// untouched, it stays the base for any later accounting of the closed round
func (l *Ledger) ClearForRefund(from common.Address) (*big.Int, error) {
	balance, ok := l.contributions[from]
	if !ok || balance.Sign() == 0 {
		return nil, ErrNothingToRefund
	}
	cleared := new(big.Int).Set(balance)
	balance.SetInt64(0)
	return cleared, nil
}

// RestoreRefund undoes ClearForRefund
func (l *Ledger) RestoreRefund(from common.Address, amount *big.Int) {
	l.credit(from, amount)
}

// Release takes a milestone amount out of the total without touching individual contributions
func (l *Ledger) Release(amount *big.Int) error {
	if !isPositive(amount) {
		return ErrInvalidAmount
	}
	if amount.Cmp(l.totalRaised) > 0 {
		return ErrInsufficientCustodyBalance
	}
	l.totalRaised.Sub(l.totalRaised, amount)
	return nil
}

// RevertRelease undoes Release
func (l *Ledger) RevertRelease(amount *big.Int) {
	l.totalRaised.Add(l.totalRaised, amount)
}

func (l *Ledger) BalanceOf(addr common.Address) *big.Int {
	if balance, ok := l.contributions[addr]; ok {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}

func (l *Ledger) TotalRaised() *big.Int {
	return new(big.Int).Set(l.totalRaised)
}

// SumOfContributions adds up every individual entry
func (l *Ledger) SumOfContributions() *big.Int {
	sum := new(big.Int)
	for _, amount := range l.contributions {
		sum.Add(sum, amount)
	}
	return sum
}

// Contributors returns the number of identities currently holding a non-zero pledge
func (l *Ledger) Contributors() int {
	count := 0
	for _, amount := range l.contributions {
		if amount.Sign() > 0 {
			count++
		}
	}
	return count
}

func (l *Ledger) credit(addr common.Address, amount *big.Int) {
	balance := l.balance(addr)
	balance.Add(balance, amount)
}

// balance returns the live entry, creating it on first use
func (l *Ledger) balance(addr common.Address) *big.Int {
	balance, ok := l.contributions[addr]
	if !ok {
		balance = new(big.Int)
		l.contributions[addr] = balance
	}
	return balance
}

func isPositive(amount *big.Int) bool {
	return amount != nil && amount.Sign() > 0
}

func errAmountExceedsBalance(amount, balance *big.Int) error {
	return fmt.Errorf("amount %s exceeds balance %s", amount, balance)
}
