package application

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	stateinmemory "github.com/scp-network/scpx-wallet/internal/infrastructure/state/inmemory"
	"github.com/scp-network/scpx-wallet/pkg/chain"
	"github.com/stretchr/testify/require"
)

type noProviders struct{}

func (noProviders) ProviderFor(name string) (ports.ChainDataProvider, error) {
	return nil, errors.New("no provider for " + name)
}

func TestApplyResponse(t *testing.T) {
	store := stateinmemory.NewStateStore()
	store.Dispatch(domain.SetAssets{Assets: []domain.DisplayableAsset{
		{Meta: chain.Meta{Name: "ethereum", Symbol: "ETH"}},
	}})

	svc, err := NewSyncService(SyncServiceOpts{
		Store:    store,
		Resolver: noProviders{},
		Enricher: &TxEnricher{},
	})
	require.NoError(t, err)
	s := svc.(*syncService)

	updatedAt := func() *time.Time {
		eth, _ := store.GetState().AssetBySymbol("ETH")
		return eth.LastAssetUpdateAt
	}
	done := func(id uuid.UUID, at time.Time) WorkerResponse {
		return WorkerResponse{
			ID:      id,
			Op:      OpRefreshAssets + "_DONE",
			Actions: []domain.Action{domain.SetAssetUpdated{Symbol: "ETH", At: &at}},
		}
	}
	first := time.Unix(1600000000, 0)
	second := first.Add(time.Minute)

	current := uuid.New()
	s.pending[current] = struct{}{}
	s.applyResponse(done(current, first))
	require.NotNil(t, updatedAt())
	require.True(t, first.Equal(*updatedAt()))

	// A duplicate delivery is not applied again.
	s.applyResponse(done(current, second))
	require.True(t, first.Equal(*updatedAt()))

	// Responses of the previous refresh are dropped after the reset.
	previous := uuid.New()
	s.pending[previous] = struct{}{}
	s.resetPending([]domain.Action{domain.SetAssetUpdated{Symbol: "ETH"}})
	require.Nil(t, updatedAt())
	s.applyResponse(done(previous, second))
	require.Nil(t, updatedAt())
	require.Empty(t, s.pending)
}
