package custody

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

type ethClientMock struct {
	chainID       *big.Int
	pendingNonce  uint64
	baseFee       *big.Int
	receiptStatus uint64
	noReceipts    bool

	sent  []*types.Transaction
	mined map[common.Hash]*types.Transaction
	mutex sync.Mutex
}

func newEthClientMock() *ethClientMock {
	return &ethClientMock{
		chainID:       big.NewInt(1337),
		baseFee:       big.NewInt(params.GWei),
		receiptStatus: types.ReceiptStatusSuccessful,
		mined:         make(map[common.Hash]*types.Transaction),
	}
}

func (c *ethClientMock) ChainID(ctx context.Context) (*big.Int, error) {
	return c.chainID, nil
}

func (c *ethClientMock) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return c.pendingNonce, nil
}

func (c *ethClientMock) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(2 * params.GWei), nil
}

func (c *ethClientMock) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(params.GWei), nil
}

func (c *ethClientMock) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: c.baseFee}, nil
}

func (c *ethClientMock) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.sent = append(c.sent, tx)
	return nil
}

func (c *ethClientMock) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if c.noReceipts {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: c.receiptStatus, TxHash: txHash, BlockNumber: big.NewInt(2)}, nil
}

func (c *ethClientMock) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	tx, ok := c.mined[hash]
	if !ok {
		return nil, false, ethereum.NotFound
	}
	return tx, false, nil
}

func (c *ethClientMock) sentCount() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.sent)
}

func (c *ethClientMock) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return nil, nil
}

func newTestWallet(t *testing.T) *Wallet {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &Wallet{address: crypto.PubkeyToAddress(key.PublicKey), privateKey: key}
}

func TestEthereumTransferDynamicFee(t *testing.T) {
	client := newEthClientMock()
	wallet := newTestWallet(t)
	transferer := NewEthereumTransferer(client, wallet, &lib.LoggerMock{})
	to := lib.GetRandomAddr()

	err := transferer.Transfer(context.Background(), to, big.NewInt(1000))
	require.NoError(t, err)

	require.Len(t, client.sent, 1)
	tx := client.sent[0]
	require.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	require.Equal(t, to, *tx.To())
	requireAmount(t, 1000, tx.Value())
	require.Equal(t, params.TxGas, tx.Gas())

	sender, err := types.Sender(types.LatestSignerForChainID(client.chainID), tx)
	require.NoError(t, err)
	require.Equal(t, wallet.Address(), sender)
}

func TestEthereumTransferLegacyTx(t *testing.T) {
	client := newEthClientMock()
	transferer := NewEthereumTransferer(client, newTestWallet(t), &lib.LoggerMock{})
	transferer.SetLegacyTx(true)

	err := transferer.Transfer(context.Background(), lib.GetRandomAddr(), big.NewInt(1))
	require.NoError(t, err)

	require.Len(t, client.sent, 1)
	require.Equal(t, uint8(types.LegacyTxType), client.sent[0].Type())
	requireAmount(t, 2*params.GWei, client.sent[0].GasPrice())
}

func TestEthereumTransferNonceIncrements(t *testing.T) {
	client := newEthClientMock()
	client.pendingNonce = 7
	transferer := NewEthereumTransferer(client, newTestWallet(t), &lib.LoggerMock{})

	require.NoError(t, transferer.Transfer(context.Background(), lib.GetRandomAddr(), big.NewInt(1)))
	require.NoError(t, transferer.Transfer(context.Background(), lib.GetRandomAddr(), big.NewInt(1)))

	require.Equal(t, uint64(7), client.sent[0].Nonce())
	require.Equal(t, uint64(8), client.sent[1].Nonce())
}

func TestEthereumTransferReverted(t *testing.T) {
	client := newEthClientMock()
	client.receiptStatus = types.ReceiptStatusFailed
	transferer := NewEthereumTransferer(client, newTestWallet(t), &lib.LoggerMock{})

	err := transferer.Transfer(context.Background(), lib.GetRandomAddr(), big.NewInt(1))
	require.ErrorIs(t, err, ErrTransactionReverted)
}

func TestEthereumTransferNoBaseFee(t *testing.T) {
	client := newEthClientMock()
	client.baseFee = nil
	transferer := NewEthereumTransferer(client, newTestWallet(t), &lib.LoggerMock{})

	err := transferer.Transfer(context.Background(), lib.GetRandomAddr(), big.NewInt(1))
	require.ErrorIs(t, err, ErrNoBaseFee)
	require.Empty(t, client.sent)
}

func TestEthereumTransferReceiptTimeoutIsPending(t *testing.T) {
	client := newEthClientMock()
	client.noReceipts = true
	transferer := NewEthereumTransferer(client, newTestWallet(t), &lib.LoggerMock{})
	transferer.SetTimeout(50 * time.Millisecond)
	to := lib.GetRandomAddr()

	for i := 0; i < 2; i++ {
		err := transferer.Transfer(context.Background(), to, big.NewInt(5))
		require.ErrorIs(t, err, ErrTransferPending)

		var pending *PendingTransferError
		require.ErrorAs(t, err, &pending)
		require.True(t, pending.TransferPending())
		require.Equal(t, client.sent[i].Hash(), pending.TxHash)
	}

	require.Equal(t, 2, client.sentCount())
	require.ElementsMatch(t, []common.Hash{client.sent[0].Hash(), client.sent[1].Hash()}, transferer.PendingTransfers())
}

func TestEthereumTransferIgnoresCallerCancelAfterSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &cancelOnSendClient{ethClientMock: newEthClientMock(), cancel: cancel}
	transferer := NewEthereumTransferer(client, newTestWallet(t), &lib.LoggerMock{})

	err := transferer.Transfer(ctx, lib.GetRandomAddr(), big.NewInt(1))
	require.NoError(t, err, "receipt is awaited even though the caller gave up")
	require.Empty(t, transferer.PendingTransfers())
}

// cancelOnSendClient cancels the caller context right after the transaction is broadcast
type cancelOnSendClient struct {
	*ethClientMock
	cancel context.CancelFunc
}

func (c *cancelOnSendClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	err := c.ethClientMock.SendTransaction(ctx, tx)
	c.cancel()
	return err
}
