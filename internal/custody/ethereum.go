package custody

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"gitlab.com/TitanInd/milestone-escrow/internal/interfaces"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

const defaultTransferTimeout = 1 * time.Minute

var (
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrNoBaseFee           = errors.New("node does not report base fee, enable legacy transactions")
	ErrTransferPending     = errors.New("transaction sent, receipt not available")
)

// PendingTransferError is returned when a transaction was broadcast but not confirmed in time.
// It may still be mined, so the value must be treated as sent
type PendingTransferError struct {
	TxHash common.Hash
	Err    error
}

func (e *PendingTransferError) Error() string {
	return fmt.Sprintf("%s: tx %s: %s", ErrTransferPending, e.TxHash.Hex(), e.Err)
}

func (e *PendingTransferError) Unwrap() []error {
	return []error{ErrTransferPending, e.Err}
}

func (e *PendingTransferError) TransferPending() bool {
	return true
}

// EthereumTransferer moves native value from the custody wallet
type EthereumTransferer struct {
	// config
	legacyTx bool // use legacy transaction fee, for local node testing
	timeout  time.Duration

	// state
	nonce   uint64
	chainID *big.Int
	pending map[common.Hash]*types.Transaction
	mutex   sync.Mutex

	// deps
	wallet *Wallet
	client EthereumClient
	log    interfaces.ILogger
}

func NewEthereumTransferer(client EthereumClient, wallet *Wallet, log interfaces.ILogger) *EthereumTransferer {
	return &EthereumTransferer{
		timeout: defaultTransferTimeout,
		pending: make(map[common.Hash]*types.Transaction),
		wallet:  wallet,
		client:  client,
		log:     log,
	}
}

func (g *EthereumTransferer) SetLegacyTx(legacyTx bool) {
	g.legacyTx = legacyTx
}

func (g *EthereumTransferer) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		g.timeout = timeout
	}
}

func (g *EthereumTransferer) Address() common.Address {
	return g.wallet.Address()
}

// Transfer sends amount to the recipient and waits until the transaction is mined. Once the
// transaction is broadcast the caller's cancellation no longer applies, and a receipt that does
// not arrive within the timeout yields a PendingTransferError
func (g *EthereumTransferer) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidTransfer
	}

	sendCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	tx, err := g.buildTx(sendCtx, to, amount)
	if err != nil {
		return err
	}

	chainID, err := g.getChainID(sendCtx)
	if err != nil {
		return err
	}

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), g.wallet.PrivateKey())
	if err != nil {
		return err
	}

	err = g.client.SendTransaction(sendCtx, signedTx)
	if err != nil {
		g.resetNonce()
		return err
	}
	g.setPending(signedTx)
	g.log.Debugf("sent tx %s: %s to %s", signedTx.Hash().Hex(), amount, to.Hex())

	waitCtx, waitCancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer waitCancel()

	receipt, err := bind.WaitMined(waitCtx, g.client, signedTx)
	if err != nil {
		g.log.Warnf("tx %s sent, receipt not available: %s", signedTx.Hash().Hex(), err)
		return &PendingTransferError{TxHash: signedTx.Hash(), Err: err}
	}
	g.clearPending(signedTx.Hash())

	if receipt.Status != types.ReceiptStatusSuccessful {
		return lib.WrapError(ErrTransactionReverted, errors.New(signedTx.Hash().Hex()))
	}

	g.log.Infof("tx %s mined in block %s", signedTx.Hash().Hex(), receipt.BlockNumber)
	return nil
}

// PendingTransfers returns the hashes of broadcast transactions whose receipt was not observed
func (g *EthereumTransferer) PendingTransfers() []common.Hash {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	hashes := make([]common.Hash, 0, len(g.pending))
	for hash := range g.pending {
		hashes = append(hashes, hash)
	}
	return hashes
}

func (g *EthereumTransferer) setPending(tx *types.Transaction) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.pending[tx.Hash()] = tx
}

func (g *EthereumTransferer) clearPending(hash common.Hash) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	delete(g.pending, hash)
}

func (g *EthereumTransferer) buildTx(ctx context.Context, to common.Address, amount *big.Int) (*types.Transaction, error) {
	nonce, err := g.getNonce(ctx, g.wallet.Address())
	if err != nil {
		return nil, err
	}

	if g.legacyTx {
		gasPrice, err := g.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, err
		}
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      params.TxGas,
			To:       &to,
			Value:    new(big.Int).Set(amount),
		}), nil
	}

	tip, err := g.client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, err
	}
	head, err := g.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	if head.BaseFee == nil {
		return nil, ErrNoBaseFee
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	chainID, err := g.getChainID(ctx)
	if err != nil {
		return nil, err
	}

	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       params.TxGas,
		To:        &to,
		Value:     new(big.Int).Set(amount),
	}), nil
}

func (g *EthereumTransferer) getChainID(ctx context.Context) (*big.Int, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.chainID != nil {
		return g.chainID, nil
	}
	chainID, err := g.client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	g.chainID = chainID
	return chainID, nil
}

func (g *EthereumTransferer) getNonce(ctx context.Context, from common.Address) (uint64, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	blockchainNonce, err := g.client.PendingNonceAt(ctx, from)
	if err != nil {
		return 0, err
	}

	nonce := blockchainNonce
	if g.nonce > blockchainNonce {
		nonce = g.nonce
	}
	g.nonce = nonce + 1

	return nonce, nil
}

// resetNonce drops the locally cached nonce so the next transaction takes the pending one from the node
func (g *EthereumTransferer) resetNonce() {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.nonce = 0
}
