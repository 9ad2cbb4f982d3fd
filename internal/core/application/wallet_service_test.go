package application_test

import (
	"context"
	"testing"

	"github.com/scp-network/scpx-wallet/internal/core/application"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	dbinmemory "github.com/scp-network/scpx-wallet/internal/infrastructure/storage/db/inmemory"
	"github.com/stretchr/testify/require"
)

func newTestWalletService(t *testing.T) (application.WalletService, testVault) {
	v := newTestVault(t)
	resolver := mockResolver{}
	syncSvc, err := application.NewSyncService(application.SyncServiceOpts{
		Store:    v.store,
		Resolver: resolver,
		Enricher: application.NewTxEnricher(registry, resolver, dbinmemory.NewTxCacheImpl()),
	})
	require.NoError(t, err)
	syncSvc.Start(context.Background())
	t.Cleanup(syncSvc.Stop)

	svc, err := application.NewWalletService(application.WalletServiceOpts{
		Registry:  registry,
		Store:     v.store,
		Vault:     v.svc,
		Sync:      syncSvc,
		Supported: []string{"bitcoin", "ethereum", "usdt", "eos"},
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, v
}

func TestWalletNotLoaded(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestWalletService(t)

	_, err := svc.Dump(ctx, application.DumpOpts{})
	require.ErrorIs(t, err, application.ErrWalletNotLoaded)
	_, err = svc.AddAddress(ctx, "BTC")
	require.ErrorIs(t, err, application.ErrWalletNotLoaded)
	_, err = svc.ImportPrivKeys(ctx, "BTC", []string{btcWIF})
	require.ErrorIs(t, err, application.ErrWalletNotLoaded)
	_, err = svc.RemoveImportedAccounts(ctx, "BTC", []string{"Import #1 Bitcoin"})
	require.ErrorIs(t, err, application.ErrWalletNotLoaded)
	require.ErrorIs(t, svc.Refresh(ctx), application.ErrWalletNotLoaded)
	_, err = svc.Backup(ctx)
	require.ErrorIs(t, err, application.ErrWalletNotLoaded)

	_, err = svc.Load(ctx, "", testMPK)
	require.True(t, domain.IsValidationError(err))
	_, err = svc.Load(ctx, testAPK, "")
	require.True(t, domain.IsValidationError(err))
}

func TestWalletService(t *testing.T) {
	ctx := context.Background()
	svc, v := newTestWalletService(t)

	assets, err := svc.Load(ctx, testAPK, testMPK)
	require.NoError(t, err)
	// eos is dropped without an active wallet credential.
	require.Len(t, assets, 3)

	t.Run("dump", func(t *testing.T) {
		dumped, err := svc.Dump(ctx, application.DumpOpts{})
		require.NoError(t, err)
		require.Len(t, dumped, 3)
		for _, a := range dumped {
			require.Nil(t, a.PrivKeys)
			for _, addr := range a.Addresses {
				require.Nil(t, addr.Txs)
			}
		}

		dumped, err = svc.Dump(ctx, application.DumpOpts{Symbol: "ETH", PrivKeys: true, Txs: true})
		require.NoError(t, err)
		require.Len(t, dumped, 1)
		require.Len(t, dumped[0].PrivKeys, 1)
		addr := dumped[0].Addresses[0].Addr
		require.Len(t, dumped[0].PrivKeys[addr], 64)

		_, err = svc.Dump(ctx, application.DumpOpts{Symbol: "LTC"})
		require.True(t, domain.IsValidationError(err))
	})

	t.Run("add address", func(t *testing.T) {
		record, err := svc.AddAddress(ctx, "BTC")
		require.NoError(t, err)
		require.Equal(t, "m/44'/0'/0'/0/1", record.Path)

		_, err = svc.AddAddress(ctx, "NOPE")
		require.True(t, domain.IsValidationError(err))
	})

	t.Run("import and remove", func(t *testing.T) {
		res, err := svc.ImportPrivKeys(ctx, "BTC", []string{btcWIF, newWIF(t, 2)})
		require.NoError(t, err)
		require.Equal(t, 2, res.ImportedAddrCount)

		removed, err := svc.RemoveImportedAccounts(ctx, "BTC", []string{res.AccountName, "Bitcoin"})
		require.NoError(t, err)
		require.Equal(t, 1, removed.RemovedAccountCount)
		require.Equal(t, 2, removed.RemovedAddrCount)
	})

	t.Run("refresh", func(t *testing.T) {
		require.NoError(t, svc.Refresh(ctx))
	})

	t.Run("backup", func(t *testing.T) {
		backup, err := svc.Backup(ctx)
		require.NoError(t, err)
		record, err := v.repository.GetVault(ctx, testOwner)
		require.NoError(t, err)
		require.Equal(t, record.PrunedBlob, backup)
	})

	t.Run("close", func(t *testing.T) {
		svc.Close()
		_, err := svc.Dump(ctx, application.DumpOpts{})
		require.ErrorIs(t, err, application.ErrWalletNotLoaded)
	})
}

func TestValidateAddress(t *testing.T) {
	svc, _ := newTestWalletService(t)

	tests := []struct {
		symbol string
		addr   string
		valid  bool
	}{
		{"BTC", btcAddr, true},
		{"BTC", " " + btcAddr + " ", true},
		{"BTC", "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMX", false},
		{"ETH", ownEthAddr, true},
		{"ETH", "0x1234", false},
	}
	for _, tt := range tests {
		valid, err := svc.ValidateAddress(tt.symbol, tt.addr)
		require.NoError(t, err)
		require.Equal(t, tt.valid, valid, tt.addr)
	}

	_, err := svc.ValidateAddress("NOPE", btcAddr)
	require.True(t, domain.IsValidationError(err))
}
