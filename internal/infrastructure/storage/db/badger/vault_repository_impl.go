package dbbadger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type vaultRepositoryImpl struct {
	store *badgerhold.Store
}

func NewVaultRepositoryImpl(store *badgerhold.Store) domain.VaultRepository {
	return &vaultRepositoryImpl{store}
}

func (r *vaultRepositoryImpl) GetVault(
	_ context.Context, owner string,
) (*domain.VaultRecord, error) {
	var vault domain.VaultRecord
	if err := r.store.Get(owner, &vault); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrVaultNotFound
		}
		return nil, err
	}
	return &vault, nil
}

// UpdateVault reads, updates and writes back the vault of owner in a single
// badger transaction. updateFn receives nil if no vault exists yet.
func (r *vaultRepositoryImpl) UpdateVault(
	_ context.Context,
	owner string,
	updateFn func(v *domain.VaultRecord) (*domain.VaultRecord, error),
) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		var current *domain.VaultRecord

		var vault domain.VaultRecord
		err := r.store.TxGet(tx, owner, &vault)
		if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			return err
		}
		if err == nil {
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
		return r.store.TxUpsert(tx, owner, *updated)
	})
}
