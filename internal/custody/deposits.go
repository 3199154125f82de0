package custody

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"gitlab.com/TitanInd/milestone-escrow/internal/interfaces"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

var (
	ErrDepositNotFound    = errors.New("deposit transaction not found")
	ErrDepositUnconfirmed = errors.New("deposit transaction not mined yet")
	ErrDepositMismatch    = errors.New("deposit transaction does not match the pledge")
	ErrDepositClaimed     = errors.New("deposit transaction already claimed")
)

// DepositVerifier checks that value claimed by a pledge actually arrived in the custody wallet.
// Every transaction backs at most one pledge
type DepositVerifier struct {
	custody common.Address
	claimed lib.Set[common.Hash]
	mutex   sync.Mutex

	client EthereumClient
	log    interfaces.ILogger
}

func NewDepositVerifier(client EthereumClient, custody common.Address, log interfaces.ILogger) *DepositVerifier {
	return &DepositVerifier{
		custody: custody,
		claimed: lib.NewSet[common.Hash](),
		client:  client,
		log:     log,
	}
}

// Claim verifies that txHash is a mined transfer of exactly amount from sender into custody and
// reserves it. The returned release function gives the reservation back, for a pledge that
// could not be booked
func (v *DepositVerifier) Claim(ctx context.Context, txHash common.Hash, from common.Address, amount *big.Int) (func(), error) {
	if !v.reserve(txHash) {
		return nil, lib.WrapError(ErrDepositClaimed, errors.New(txHash.Hex()))
	}
	release := func() {
		v.mutex.Lock()
		defer v.mutex.Unlock()
		v.claimed.Remove(txHash)
	}

	if err := v.verify(ctx, txHash, from, amount); err != nil {
		release()
		v.log.Debugf("deposit %s rejected: %s", txHash.Hex(), err)
		return nil, err
	}

	v.log.Infof("deposit %s of %s from %s claimed", txHash.Hex(), amount, from.Hex())
	return release, nil
}

func (v *DepositVerifier) reserve(txHash common.Hash) bool {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if v.claimed.Contains(txHash) {
		return false
	}
	v.claimed.Add(txHash)
	return true
}

func (v *DepositVerifier) verify(ctx context.Context, txHash common.Hash, from common.Address, amount *big.Int) error {
	tx, isPending, err := v.client.TransactionByHash(ctx, txHash)
	if err != nil {
		return lib.WrapError(ErrDepositNotFound, err)
	}
	if isPending {
		return ErrDepositUnconfirmed
	}

	receipt, err := v.client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return lib.WrapError(ErrDepositUnconfirmed, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return lib.WrapError(ErrDepositMismatch, ErrTransactionReverted)
	}

	if tx.To() == nil || *tx.To() != v.custody {
		return lib.WrapError(ErrDepositMismatch, fmt.Errorf("recipient is not the custody wallet %s", v.custody.Hex()))
	}
	if amount == nil || tx.Value().Cmp(amount) != 0 {
		return lib.WrapError(ErrDepositMismatch, fmt.Errorf("transaction value %s, pledged %s", tx.Value(), amount))
	}

	chainID, err := v.client.ChainID(ctx)
	if err != nil {
		return err
	}
	sender, err := types.Sender(types.LatestSignerForChainID(chainID), tx)
	if err != nil {
		return lib.WrapError(ErrDepositMismatch, err)
	}
	if sender != from {
		return lib.WrapError(ErrDepositMismatch, fmt.Errorf("sender %s is not the contributor %s", sender.Hex(), from.Hex()))
	}
	return nil
}
