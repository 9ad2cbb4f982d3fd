package inmemory

import (
	"context"
	"sync"

	"github.com/scp-network/scpx-wallet/internal/core/domain"
)

// VaultRepositoryImpl represents an in memory storage
type VaultRepositoryImpl struct {
	vaults map[string]domain.VaultRecord
	locker *sync.Mutex
}

// NewVaultRepositoryImpl returns a new empty VaultRepositoryImpl
func NewVaultRepositoryImpl() domain.VaultRepository {
	return &VaultRepositoryImpl{
		vaults: make(map[string]domain.VaultRecord),
		locker: &sync.Mutex{},
	}
}

func (r *VaultRepositoryImpl) GetVault(
	_ context.Context, owner string,
) (*domain.VaultRecord, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	vault, ok := r.vaults[owner]
	if !ok {
		return nil, domain.ErrVaultNotFound
	}
	return &vault, nil
}

// UpdateVault updates the vault of owner passing an update function. The
// function receives nil if no vault exists yet.
func (r *VaultRepositoryImpl) UpdateVault(
	_ context.Context,
	owner string,
	updateFn func(v *domain.VaultRecord) (*domain.VaultRecord, error),
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	var current *domain.VaultRecord
	if vault, ok := r.vaults[owner]; ok {
		current = &vault
	}

	updated, err := updateFn(current)
	if err != nil {
		return err
	}
	if updated == nil {
		return nil
	}
	updated.Owner = owner
	r.vaults[owner] = *updated
	return nil
}
