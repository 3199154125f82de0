package custody

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/TitanInd/milestone-escrow/internal/interfaces"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

var (
	ErrTransferRejected = errors.New("transfer rejected by recipient")
	ErrInvalidTransfer  = errors.New("invalid transfer amount")
)

// RecipientHook is called on the recipient side before the value is credited.
// Returning an error rejects the transfer
type RecipientHook func(ctx context.Context, amount *big.Int) error

type TransferRecord struct {
	To        common.Address
	Amount    *big.Int
	Timestamp time.Time
}

// Vault is an in-memory value transfer backend. Transfers either fully succeed or have no effect
type Vault struct {
	balances  map[common.Address]*big.Int
	hooks     map[common.Address]RecipientHook
	transfers []TransferRecord
	mutex     sync.Mutex

	log interfaces.ILogger
}

func NewVault(log interfaces.ILogger) *Vault {
	return &Vault{
		balances: make(map[common.Address]*big.Int),
		hooks:    make(map[common.Address]RecipientHook),
		log:      log,
	}
}

func (v *Vault) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidTransfer
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// hook runs unlocked, it is allowed to call back into whoever initiated the transfer
	v.mutex.Lock()
	hook := v.hooks[to]
	v.mutex.Unlock()

	if hook != nil {
		if err := hook(ctx, new(big.Int).Set(amount)); err != nil {
			v.log.Debugf("transfer of %s to %s rejected: %s", amount, to.Hex(), err)
			return lib.WrapError(ErrTransferRejected, err)
		}
	}

	v.mutex.Lock()
	defer v.mutex.Unlock()

	balance, ok := v.balances[to]
	if !ok {
		balance = new(big.Int)
		v.balances[to] = balance
	}
	balance.Add(balance, amount)
	v.transfers = append(v.transfers, TransferRecord{
		To:        to,
		Amount:    new(big.Int).Set(amount),
		Timestamp: time.Now(),
	})

	v.log.Debugf("transferred %s to %s", amount, to.Hex())
	return nil
}

// SetRecipientHook installs hook for the recipient, nil removes it
func (v *Vault) SetRecipientHook(to common.Address, hook RecipientHook) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if hook == nil {
		delete(v.hooks, to)
		return
	}
	v.hooks[to] = hook
}

// BalanceOf returns the total value received by the address
func (v *Vault) BalanceOf(addr common.Address) *big.Int {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if balance, ok := v.balances[addr]; ok {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}

func (v *Vault) Transfers() []TransferRecord {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	res := make([]TransferRecord, len(v.transfers))
	copy(res, v.transfers)
	return res
}
