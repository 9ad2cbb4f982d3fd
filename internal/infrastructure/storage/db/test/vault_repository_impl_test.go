package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	dbbadger "github.com/scp-network/scpx-wallet/internal/infrastructure/storage/db/badger"
	"github.com/scp-network/scpx-wallet/internal/infrastructure/storage/db/inmemory"
)

func TestVaultRepositoryImplementations(t *testing.T) {
	managers := createDbManagers(t)

	for i := range managers {
		m := managers[i]

		t.Run(m.name, func(t *testing.T) {
			t.Run("testGetVaultNotFound", testGetVaultNotFound(m.manager))
			t.Run("testUpdateVault", testUpdateVault(m.manager))
			t.Run("testUpdateVaultRollback", testUpdateVaultRollback(m.manager))
		})
	}
}

func testGetVaultNotFound(m ports.DbManager) func(*testing.T) {
	return func(t *testing.T) {
		vault, err := m.VaultRepository().GetVault(context.Background(), randomId())
		require.ErrorIs(t, err, domain.ErrVaultNotFound)
		require.Nil(t, vault)
	}
}

func testUpdateVault(m ports.DbManager) func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		repo := m.VaultRepository()
		owner := randomId()

		err := repo.UpdateVault(ctx, owner, func(v *domain.VaultRecord) (*domain.VaultRecord, error) {
			require.Nil(t, v)
			return &domain.VaultRecord{
				Blob:       "blob",
				PrunedBlob: "pruned",
				UpdatedAt:  time.Now(),
			}, nil
		})
		require.NoError(t, err)

		vault, err := repo.GetVault(ctx, owner)
		require.NoError(t, err)
		require.Equal(t, owner, vault.Owner)
		require.Equal(t, "blob", vault.Blob)
		require.Equal(t, "pruned", vault.PrunedBlob)

		err = repo.UpdateVault(ctx, owner, func(v *domain.VaultRecord) (*domain.VaultRecord, error) {
			require.NotNil(t, v)
			require.Equal(t, "blob", v.Blob)
			v.Blob = "blob2"
			return v, nil
		})
		require.NoError(t, err)

		vault, err = repo.GetVault(ctx, owner)
		require.NoError(t, err)
		require.Equal(t, "blob2", vault.Blob)
		require.Equal(t, "pruned", vault.PrunedBlob)
	}
}

func testUpdateVaultRollback(m ports.DbManager) func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		repo := m.VaultRepository()
		owner := randomId()
		expectedErr := errors.New("something went wrong")

		err := repo.UpdateVault(ctx, owner, func(v *domain.VaultRecord) (*domain.VaultRecord, error) {
			return nil, expectedErr
		})
		require.ErrorIs(t, err, expectedErr)

		vault, err := repo.GetVault(ctx, owner)
		require.ErrorIs(t, err, domain.ErrVaultNotFound)
		require.Nil(t, vault)
	}
}

type dbManager struct {
	name    string
	manager ports.DbManager
}

func createDbManagers(t *testing.T) []dbManager {
	badgerDBManager, err := dbbadger.NewDbManager(t.TempDir(), nil)
	require.NoError(t, err)
	badgerInMemoryDBManager, err := dbbadger.NewDbManager("", nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		badgerDBManager.Close()
		badgerInMemoryDBManager.Close()
	})

	return []dbManager{
		{name: "badger", manager: badgerDBManager},
		{name: "badger_inmemory", manager: badgerInMemoryDBManager},
		{name: "inmemory", manager: inmemory.NewDbManager()},
	}
}
