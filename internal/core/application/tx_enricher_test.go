package application_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/scp-network/scpx-wallet/internal/core/application"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	dbinmemory "github.com/scp-network/scpx-wallet/internal/infrastructure/storage/db/inmemory"
	"github.com/scp-network/scpx-wallet/pkg/chain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	ownEthAddr   = "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf"
	otherEthAddr = "0x8ba1f109551bd432803012645ac136ddd64dba72"
	otherBtcAddr = "1Other"
)

func ether(v int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(v), big.NewInt(1e18))
}

func newTestEnricher(provider ports.ChainDataProvider) (*application.TxEnricher, domain.TxCache) {
	cache := dbinmemory.NewTxCacheImpl()
	resolver := mockResolver{
		"ethereum": provider, "usdt": provider, "bat": provider, "bitcoin": provider,
	}
	return application.NewTxEnricher(registry, resolver, cache), cache
}

func ethOpts(t *testing.T, asset, txid string) application.EnrichOpts {
	return application.EnrichOpts{
		Asset:        meta(t, asset),
		Owner:        testOwner,
		Txid:         txid,
		OwnAddresses: []string{ownEthAddr},
	}
}

func TestEnrichConfirmedUpdate(t *testing.T) {
	ctx := context.Background()
	txid := "0xc0ffee"
	provider := &mockProvider{}
	provider.On("GetTxDetail", txid).Return(&ports.TxDetail{
		Hash: txid, From: otherEthAddr, To: ownEthAddr, Value: ether(2),
		Gas: 21000, GasPrice: big.NewInt(1e9), BlockNumber: -1,
	}, nil).Once()
	provider.On("GetTxDetail", txid).Return(&ports.TxDetail{
		Hash: txid, From: otherEthAddr, To: ownEthAddr, Value: ether(2),
		Gas: 21000, GasPrice: big.NewInt(1e9), BlockNumber: 12345, Timestamp: 1600000000,
	}, nil).Once()
	provider.On("GetTxReceipt", txid).Return(&ports.TxReceipt{
		Status: 1, GasUsed: 21000, BlockNumber: 12345,
	}, nil)
	enricher, cache := newTestEnricher(provider)

	first, err := enricher.Enrich(ctx, ethOpts(t, "ethereum", txid))
	require.NoError(t, err)
	require.Equal(t, int64(-1), first.BlockNo)
	require.False(t, first.FromCache)
	require.True(t, first.IsIncoming)
	require.Equal(t, otherEthAddr, first.ToOrFrom)
	require.Equal(t, otherEthAddr, first.AccountFrom)
	require.Equal(t, ownEthAddr, first.AccountTo)
	require.True(t, decimal.NewFromInt(2).Equal(first.Value))
	require.True(t, first.Fees.IsZero())

	second, err := enricher.Enrich(ctx, ethOpts(t, "ethereum", txid))
	require.NoError(t, err)
	require.Equal(t, int64(12345), second.BlockNo)
	require.False(t, second.FromCache)
	require.Equal(t, time.Unix(1600000000, 0).UTC(), second.Date)

	third, err := enricher.Enrich(ctx, ethOpts(t, "ethereum", txid))
	require.NoError(t, err)
	require.True(t, third.FromCache)
	require.Equal(t, int64(12345), third.BlockNo)

	provider.AssertNumberOfCalls(t, "GetTxDetail", 2)

	cached, err := cache.Get(ctx, domain.TxCacheKey{Family: "ETH", Owner: testOwner, Txid: txid})
	require.NoError(t, err)
	require.Equal(t, int64(12345), cached.BlockNo)
	require.NotZero(t, cached.AddedToCacheAt)
}

func TestEnrichConfirmedNeverOverwritten(t *testing.T) {
	ctx := context.Background()
	txid := "0xdecaf"
	provider := &mockProvider{}
	enricher, cache := newTestEnricher(provider)

	key := domain.TxCacheKey{Family: "ETH", Owner: testOwner, Txid: txid}
	stored, err := cache.Put(ctx, key, domain.EnrichedTx{
		Txid: txid, BlockNo: 100, Value: decimal.NewFromInt(7), Date: time.Unix(1500000000, 0).UTC(),
	})
	require.NoError(t, err)
	require.True(t, stored)

	tx, err := enricher.Enrich(ctx, ethOpts(t, "ethereum", txid))
	require.NoError(t, err)
	require.True(t, tx.FromCache)
	require.True(t, decimal.NewFromInt(7).Equal(tx.Value))
	provider.AssertNotCalled(t, "GetTxDetail", mock.Anything)

	stored, err = cache.Put(ctx, key, domain.EnrichedTx{Txid: txid, BlockNo: -1})
	require.NoError(t, err)
	require.False(t, stored)
}

func TestEnrichOutgoingFee(t *testing.T) {
	ctx := context.Background()
	txid := "0xfee"
	provider := &mockProvider{}
	provider.On("GetTxDetail", txid).Return(&ports.TxDetail{
		Hash: txid, From: ownEthAddr, To: otherEthAddr, Value: ether(1),
		Gas: 50000, GasPrice: big.NewInt(1e9), BlockNumber: 200,
	}, nil)
	provider.On("GetTxReceipt", txid).Return(&ports.TxReceipt{
		Status: 0, GasUsed: 21000, BlockNumber: 200,
	}, nil)
	provider.On("GetBlock", int64(200)).Return(&ports.Block{Number: 200, Timestamp: 1600000100}, nil)
	enricher, _ := newTestEnricher(provider)

	tx, err := enricher.Enrich(ctx, ethOpts(t, "ethereum", txid))
	require.NoError(t, err)
	require.False(t, tx.IsIncoming)
	require.Equal(t, otherEthAddr, tx.ToOrFrom)
	require.Equal(t, ownEthAddr, tx.AccountFrom)
	require.Equal(t, otherEthAddr, tx.AccountTo)
	require.True(t, tx.TxFailedReverted)
	require.True(t, decimal.RequireFromString("0.000021").Equal(tx.Fees), tx.Fees.String())
	require.Equal(t, time.Unix(1600000100, 0).UTC(), tx.Date)
}

func TestEnrichTokenFilter(t *testing.T) {
	ctx := context.Background()
	txid := "0x70ken"
	usdt := meta(t, "usdt")
	input, err := chain.PackTransfer(ownEthAddr, big.NewInt(5000000))
	require.NoError(t, err)

	provider := &mockProvider{}
	provider.On("GetTxDetail", txid).Return(&ports.TxDetail{
		Hash: txid, From: otherEthAddr, To: usdt.ERC20Contract, Value: big.NewInt(0),
		Gas: 60000, GasPrice: big.NewInt(1e9), BlockNumber: 300, Timestamp: 1600000200,
		Input: input,
	}, nil)
	provider.On("GetTxReceipt", txid).Return(&ports.TxReceipt{
		Status: 1, GasUsed: 50000, BlockNumber: 300,
	}, nil)
	enricher, _ := newTestEnricher(provider)

	tx, err := enricher.Enrich(ctx, ethOpts(t, "usdt", txid))
	require.NoError(t, err)
	require.NotNil(t, tx)
	require.Equal(t, "USDT", tx.ERC20)
	require.Equal(t, usdt.ERC20Contract, tx.ERC20Contract)
	require.True(t, tx.IsIncoming)
	require.True(t, decimal.NewFromInt(5).Equal(tx.Value), tx.Value.String())
	require.Equal(t, otherEthAddr, tx.AccountFrom)
	require.Equal(t, ownEthAddr, tx.AccountTo)

	other, err := enricher.Enrich(ctx, ethOpts(t, "bat", txid))
	require.NoError(t, err)
	require.Nil(t, other)

	// The host chain sees the token transfer as well, from the same cache
	// entry.
	host, err := enricher.Enrich(ctx, ethOpts(t, "ethereum", txid))
	require.NoError(t, err)
	require.True(t, host.FromCache)
	provider.AssertNumberOfCalls(t, "GetTxDetail", 1)
}

func TestEnrichStaleOnProviderFailure(t *testing.T) {
	ctx := context.Background()
	txid := "0x57a1e"
	provider := &mockProvider{}
	provider.On("GetTxDetail", txid).Return(nil, errors.New("provider down"))
	enricher, cache := newTestEnricher(provider)

	_, err := enricher.Enrich(ctx, ethOpts(t, "ethereum", txid))
	require.True(t, domain.IsProviderError(err))

	key := domain.TxCacheKey{Family: "ETH", Owner: testOwner, Txid: txid}
	_, err = cache.Put(ctx, key, domain.EnrichedTx{Txid: txid, BlockNo: -1, Value: decimal.NewFromInt(3)})
	require.NoError(t, err)

	tx, err := enricher.Enrich(ctx, ethOpts(t, "ethereum", txid))
	require.NoError(t, err)
	require.True(t, tx.FromCache)
	require.False(t, tx.IsConfirmed())
}

func TestEnrichUtxo(t *testing.T) {
	ctx := context.Background()
	opts := func(txid string) application.EnrichOpts {
		return application.EnrichOpts{
			Asset:        meta(t, "bitcoin"),
			Owner:        testOwner,
			Txid:         txid,
			OwnAddresses: []string{btcAddr},
		}
	}

	provider := &mockProvider{}
	provider.On("GetTxDetail", "in").Return(&ports.TxDetail{
		Hash: "in", BlockNumber: 650000, Timestamp: 1600000000, Fee: big.NewInt(226),
		Inputs: []ports.TxIO{{Addr: otherBtcAddr, Value: big.NewInt(150226)}},
		Outputs: []ports.TxIO{
			{Addr: btcAddr, Value: big.NewInt(100000)},
			{Addr: otherBtcAddr, Value: big.NewInt(50000)},
		},
	}, nil)
	provider.On("GetTxDetail", "out").Return(&ports.TxDetail{
		Hash: "out", BlockNumber: -1, Fee: big.NewInt(226),
		Inputs: []ports.TxIO{{Addr: btcAddr, Value: big.NewInt(100000)}},
		Outputs: []ports.TxIO{
			{Addr: otherBtcAddr, Value: big.NewInt(60000)},
			{Addr: btcAddr, Value: big.NewInt(39774)},
		},
	}, nil)
	enricher, _ := newTestEnricher(provider)

	in, err := enricher.Enrich(ctx, opts("in"))
	require.NoError(t, err)
	require.True(t, in.IsIncoming)
	require.Equal(t, otherBtcAddr, in.ToOrFrom)
	require.Equal(t, otherBtcAddr, in.AccountFrom)
	require.Equal(t, btcAddr, in.AccountTo)
	require.True(t, decimal.RequireFromString("0.001").Equal(in.Value), in.Value.String())
	require.True(t, in.Fees.IsZero())

	out, err := enricher.Enrich(ctx, opts("out"))
	require.NoError(t, err)
	require.False(t, out.IsIncoming)
	require.Equal(t, otherBtcAddr, out.ToOrFrom)
	require.Equal(t, btcAddr, out.AccountFrom)
	require.Equal(t, otherBtcAddr, out.AccountTo)
	require.True(t, decimal.RequireFromString("0.0006").Equal(out.Value), out.Value.String())
	require.True(t, decimal.RequireFromString("0.00000226").Equal(out.Fees), out.Fees.String())
	require.False(t, out.IsConfirmed())
}

func TestEnrichAll(t *testing.T) {
	ctx := context.Background()
	provider := &mockProvider{}
	txids := []string{"0xa", "0xb", "0xc", "0xbad"}
	for i, txid := range txids[:3] {
		provider.On("GetTxDetail", txid).Return(&ports.TxDetail{
			Hash: txid, From: otherEthAddr, To: ownEthAddr, Value: ether(1),
			GasPrice: big.NewInt(1), BlockNumber: int64(100 + i), Timestamp: int64(1600000000 + i),
		}, nil)
		provider.On("GetTxReceipt", txid).Return(&ports.TxReceipt{Status: 1, BlockNumber: int64(100 + i)}, nil)
	}
	provider.On("GetTxDetail", "0xbad").Return(nil, errors.New("not found"))
	enricher, _ := newTestEnricher(provider)

	txs, total, err := enricher.EnrichAll(ctx, application.EnrichBatchOpts{
		Asset:        meta(t, "ethereum"),
		Owner:        testOwner,
		Txids:        txids,
		OwnAddresses: []string{ownEthAddr},
		MaxTxs:       10,
	})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, txs, 3)
	require.Equal(t, []string{"0xc", "0xb", "0xa"}, []string{txs[0].Txid, txs[1].Txid, txs[2].Txid})

	// The cap keeps the most recent txs, whatever their position in the
	// provider list.
	txs, total, err = enricher.EnrichAll(ctx, application.EnrichBatchOpts{
		Asset:        meta(t, "ethereum"),
		Owner:        testOwner,
		Txids:        []string{"0xa", "0xbad", "0xb", "0xc"},
		OwnAddresses: []string{ownEthAddr},
		MaxTxs:       2,
	})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, []string{"0xc", "0xb"}, []string{txs[0].Txid, txs[1].Txid})
}

func TestEnrichAllCapsTokenTxsAfterFiltering(t *testing.T) {
	ctx := context.Background()
	usdt := meta(t, "usdt")
	input, err := chain.PackTransfer(ownEthAddr, big.NewInt(1000000))
	require.NoError(t, err)

	provider := &mockProvider{}
	for i, txid := range []string{"0xeth0", "0xeth1"} {
		provider.On("GetTxDetail", txid).Return(&ports.TxDetail{
			Hash: txid, From: otherEthAddr, To: ownEthAddr, Value: ether(1),
			GasPrice: big.NewInt(1), BlockNumber: int64(500 + i), Timestamp: int64(1600001000 + i),
		}, nil)
		provider.On("GetTxReceipt", txid).Return(&ports.TxReceipt{Status: 1, BlockNumber: int64(500 + i)}, nil)
	}
	provider.On("GetTxDetail", "0xtok").Return(&ports.TxDetail{
		Hash: "0xtok", From: otherEthAddr, To: usdt.ERC20Contract, Value: big.NewInt(0),
		GasPrice: big.NewInt(1), BlockNumber: 400, Timestamp: 1600000500, Input: input,
	}, nil)
	provider.On("GetTxReceipt", "0xtok").Return(&ports.TxReceipt{Status: 1, BlockNumber: 400}, nil)
	enricher, _ := newTestEnricher(provider)

	txs, total, err := enricher.EnrichAll(ctx, application.EnrichBatchOpts{
		Asset:        usdt,
		Owner:        testOwner,
		Txids:        []string{"0xeth0", "0xeth1", "0xtok"},
		OwnAddresses: []string{ownEthAddr},
		MaxTxs:       2,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, txs, 1)
	require.Equal(t, "0xtok", txs[0].Txid)
	require.Equal(t, "USDT", txs[0].ERC20)
}

func TestCapTxs(t *testing.T) {
	date := time.Unix(1600000000, 0)
	txs := []domain.EnrichedTx{
		{Txid: "a", Date: date.Add(-2 * time.Hour), BlockNo: 1},
		{Txid: "b", Date: date, BlockNo: 3},
		{Txid: "c", Date: date.Add(-time.Hour), BlockNo: 2},
	}

	capped, dropped := application.CapTxs(txs, 2)
	require.True(t, dropped)
	require.Equal(t, []string{"b", "c"}, []string{capped[0].Txid, capped[1].Txid})

	all, dropped := application.CapTxs(txs, 5)
	require.False(t, dropped)
	require.Len(t, all, 3)
}

func TestSortTxs(t *testing.T) {
	date := time.Unix(1600000000, 0)
	txs := []domain.EnrichedTx{
		{Txid: "old", Date: date.Add(-time.Hour), BlockNo: 1},
		{Txid: "confirmed", Date: date, BlockNo: 2},
		{Txid: "pending", Date: date, BlockNo: -1},
	}
	application.SortTxs(txs)
	require.Equal(t, "pending", txs[0].Txid)
	require.Equal(t, "confirmed", txs[1].Txid)
	require.Equal(t, "old", txs[2].Txid)
}
