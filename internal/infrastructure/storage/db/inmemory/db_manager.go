package inmemory

import (
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
)

// DbManager keeps every repository in memory. Used for tests and for
// ephemeral daemons.
type DbManager struct {
	vaultRepository domain.VaultRepository
	txCache         domain.TxCache
}

func NewDbManager() ports.DbManager {
	return &DbManager{
		vaultRepository: NewVaultRepositoryImpl(),
		txCache:         NewTxCacheImpl(),
	}
}

func (d *DbManager) VaultRepository() domain.VaultRepository {
	return d.vaultRepository
}

func (d *DbManager) TxCache() domain.TxCache {
	return d.txCache
}

func (d *DbManager) Close() {}
