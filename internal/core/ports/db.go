package ports

import (
	"github.com/scp-network/scpx-wallet/internal/core/domain"
)

// DbManager interface defines the repositories of the wallet storage.
type DbManager interface {
	VaultRepository() domain.VaultRepository
	TxCache() domain.TxCache
	Close()
}
