package evm_test

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	"github.com/scp-network/scpx-wallet/internal/infrastructure/provider/evm"
	"github.com/scp-network/scpx-wallet/pkg/chain"
	"github.com/stretchr/testify/require"
)

const usdtContract = "0xdac17f958d2ee523a2206206994597c13d831ec7"

func TestGetBalance(t *testing.T) {
	backend := newFakeBackend()
	owner := common.HexToAddress("0x8ba1f109551bd432803012645ac136ddd64dba72")
	backend.balances[owner] = big.NewInt(1000)
	backend.pending[owner] = big.NewInt(1500)
	backend.tokenBalances[owner] = big.NewInt(42)

	t.Run("host", func(t *testing.T) {
		svc, err := evm.NewService(evm.Opts{Name: "ethereum", Backend: backend})
		require.NoError(t, err)

		balance, err := svc.GetBalance(context.Background(), owner.Hex())
		require.NoError(t, err)
		require.Equal(t, "1000", balance.Confirmed.String())
		require.Equal(t, "500", balance.Unconfirmed.String())
	})

	t.Run("token", func(t *testing.T) {
		svc, err := evm.NewService(evm.Opts{
			Name: "usdt", Backend: backend, Contract: usdtContract,
		})
		require.NoError(t, err)

		balance, err := svc.GetBalance(context.Background(), owner.Hex())
		require.NoError(t, err)
		require.Equal(t, "42", balance.Confirmed.String())
		require.Equal(t, "0", balance.Unconfirmed.String())
		require.True(t, strings.EqualFold(usdtContract, backend.lastCallTo.Hex()))
	})

	t.Run("invalid address", func(t *testing.T) {
		svc, err := evm.NewService(evm.Opts{Name: "ethereum", Backend: backend})
		require.NoError(t, err)

		_, err = svc.GetBalance(context.Background(), "not an address")
		require.ErrorIs(t, err, evm.ErrInvalidAddress)
	})
}

func TestGetTxDetail(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
	recipient := common.HexToAddress("0x8ba1f109551bd432803012645ac136ddd64dba72")

	backend := newFakeBackend()
	mined := signTx(t, key, 0, recipient, big.NewInt(7), nil)
	backend.addTx(mined, false, &types.Receipt{
		Status:            types.ReceiptStatusSuccessful,
		GasUsed:           21000,
		BlockNumber:       big.NewInt(100),
		EffectiveGasPrice: big.NewInt(3),
	})
	pending := signTx(t, key, 1, recipient, big.NewInt(9), nil)
	backend.addTx(pending, true, nil)
	backend.headers[100] = &types.Header{Number: big.NewInt(100), Time: 1600000000}

	svc, err := evm.NewService(evm.Opts{Name: "ethereum", Backend: backend})
	require.NoError(t, err)

	t.Run("mined", func(t *testing.T) {
		detail, err := svc.GetTxDetail(context.Background(), mined.Hash().Hex())
		require.NoError(t, err)
		require.Equal(t, sender, detail.From)
		require.Equal(t, strings.ToLower(recipient.Hex()), detail.To)
		require.Equal(t, "7", detail.Value.String())
		require.Equal(t, int64(100), detail.BlockNumber)
		require.Equal(t, "3", detail.GasPrice.String())

		receipt, err := svc.GetTxReceipt(context.Background(), mined.Hash().Hex())
		require.NoError(t, err)
		require.Equal(t, uint64(1), receipt.Status)
		require.Equal(t, uint64(21000), receipt.GasUsed)

		block, err := svc.GetBlock(context.Background(), detail.BlockNumber)
		require.NoError(t, err)
		require.Equal(t, int64(1600000000), block.Timestamp)
	})

	t.Run("pending", func(t *testing.T) {
		detail, err := svc.GetTxDetail(context.Background(), pending.Hash().Hex())
		require.NoError(t, err)
		require.Equal(t, int64(-1), detail.BlockNumber)
		require.Equal(t, "1", detail.GasPrice.String())
	})

	t.Run("token transfer", func(t *testing.T) {
		data, err := chain.PackTransfer(recipient.Hex(), big.NewInt(5))
		require.NoError(t, err)
		tx := signTx(t, key, 2, common.HexToAddress(usdtContract), big.NewInt(0), data)
		backend.addTx(tx, true, nil)

		detail, err := svc.GetTxDetail(context.Background(), tx.Hash().Hex())
		require.NoError(t, err)
		require.Equal(t, usdtContract, detail.To)

		to, amount, err := chain.DecodeTransfer(detail.Input)
		require.NoError(t, err)
		require.Equal(t, strings.ToLower(recipient.Hex()), to)
		require.Equal(t, "5", amount.String())
	})

	t.Run("invalid hash", func(t *testing.T) {
		_, err := svc.GetTxDetail(context.Background(), "0x1234")
		require.ErrorIs(t, err, evm.ErrInvalidTxid)
	})
}

func TestGetTxIds(t *testing.T) {
	backend := newFakeBackend()

	svc, err := evm.NewService(evm.Opts{Name: "ethereum", Backend: backend})
	require.NoError(t, err)
	txids, err := svc.GetTxIds(context.Background(), "0x8ba1f109551bd432803012645ac136ddd64dba72", ports.RangeHint{})
	require.NoError(t, err)
	require.Empty(t, txids)

	svc, err = evm.NewService(evm.Opts{
		Name: "ethereum", Backend: backend, Indexer: fakeIndexer{"0xaa", "0xbb"},
	})
	require.NoError(t, err)
	txids, err = svc.GetTxIds(context.Background(), "0x8ba1f109551bd432803012645ac136ddd64dba72", ports.RangeHint{})
	require.NoError(t, err)
	require.Equal(t, []string{"0xaa", "0xbb"}, txids)
}

func TestNewService(t *testing.T) {
	_, err := evm.NewService(evm.Opts{})
	require.ErrorIs(t, err, evm.ErrMissingBackend)

	_, err = evm.NewService(evm.Opts{Backend: newFakeBackend(), Contract: "0x12"})
	require.ErrorIs(t, err, evm.ErrInvalidAddress)
}

func signTx(
	t *testing.T, key *ecdsa.PrivateKey, nonce uint64,
	to common.Address, value *big.Int, data []byte,
) *types.Transaction {
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      21000,
		GasPrice: big.NewInt(1),
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(1)), key)
	require.NoError(t, err)
	return signed
}

type fakeTx struct {
	tx        *types.Transaction
	isPending bool
	receipt   *types.Receipt
}

type fakeBackend struct {
	balances      map[common.Address]*big.Int
	pending       map[common.Address]*big.Int
	tokenBalances map[common.Address]*big.Int
	txs           map[common.Hash]fakeTx
	headers       map[int64]*types.Header
	lastCallTo    common.Address
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		balances:      make(map[common.Address]*big.Int),
		pending:       make(map[common.Address]*big.Int),
		tokenBalances: make(map[common.Address]*big.Int),
		txs:           make(map[common.Hash]fakeTx),
		headers:       make(map[int64]*types.Header),
	}
}

func (b *fakeBackend) addTx(tx *types.Transaction, isPending bool, receipt *types.Receipt) {
	b.txs[tx.Hash()] = fakeTx{tx, isPending, receipt}
}

func (b *fakeBackend) BalanceAt(
	_ context.Context, account common.Address, _ *big.Int,
) (*big.Int, error) {
	if v, ok := b.balances[account]; ok {
		return v, nil
	}
	return big.NewInt(0), nil
}

func (b *fakeBackend) PendingBalanceAt(
	_ context.Context, account common.Address,
) (*big.Int, error) {
	if v, ok := b.pending[account]; ok {
		return v, nil
	}
	return big.NewInt(0), nil
}

func (b *fakeBackend) CallContract(
	_ context.Context, msg ethereum.CallMsg, _ *big.Int,
) ([]byte, error) {
	b.lastCallTo = *msg.To
	args, err := chain.ERC20ABI.Methods["balanceOf"].Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	owner := args[0].(common.Address)
	balance, ok := b.tokenBalances[owner]
	if !ok {
		balance = big.NewInt(0)
	}
	return chain.ERC20ABI.Methods["balanceOf"].Outputs.Pack(balance)
}

func (b *fakeBackend) TransactionByHash(
	_ context.Context, hash common.Hash,
) (*types.Transaction, bool, error) {
	tx, ok := b.txs[hash]
	if !ok {
		return nil, false, ethereum.NotFound
	}
	return tx.tx, tx.isPending, nil
}

func (b *fakeBackend) TransactionReceipt(
	_ context.Context, hash common.Hash,
) (*types.Receipt, error) {
	tx, ok := b.txs[hash]
	if !ok || tx.receipt == nil {
		return nil, ethereum.NotFound
	}
	return tx.receipt, nil
}

func (b *fakeBackend) HeaderByNumber(
	_ context.Context, number *big.Int,
) (*types.Header, error) {
	header, ok := b.headers[number.Int64()]
	if !ok {
		return nil, ethereum.NotFound
	}
	return header, nil
}

type fakeIndexer []string

func (f fakeIndexer) GetBalance(context.Context, string) (*ports.Balance, error) {
	return nil, nil
}

func (f fakeIndexer) GetTxIds(context.Context, string, ports.RangeHint) ([]string, error) {
	return f, nil
}

func (f fakeIndexer) GetTxDetail(context.Context, string) (*ports.TxDetail, error) {
	return nil, nil
}

func (f fakeIndexer) GetTxReceipt(context.Context, string) (*ports.TxReceipt, error) {
	return nil, nil
}

func (f fakeIndexer) GetBlock(context.Context, int64) (*ports.Block, error) {
	return nil, nil
}
