package dbbadger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const maxConflictRetries = 5

type txCacheImpl struct {
	store *badgerhold.Store
}

func NewTxCacheImpl(store *badgerhold.Store) domain.TxCache {
	return &txCacheImpl{store}
}

func (c *txCacheImpl) Get(
	_ context.Context, key domain.TxCacheKey,
) (*domain.EnrichedTx, error) {
	var tx domain.EnrichedTx
	if err := c.store.Get(key.String(), &tx); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// Put checks the stored entry and writes the new one in the same badger
// transaction, a confirmed entry is never replaced.
func (c *txCacheImpl) Put(
	_ context.Context, key domain.TxCacheKey, tx domain.EnrichedTx,
) (bool, error) {
	var stored bool
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		stored, err = c.put(key, tx)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	return stored, err
}

func (c *txCacheImpl) put(key domain.TxCacheKey, tx domain.EnrichedTx) (bool, error) {
	stored := false
	err := c.store.Badger().Update(func(txn *badger.Txn) error {
		var current domain.EnrichedTx
		err := c.store.TxGet(txn, key.String(), &current)
		if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			return err
		}
		if err == nil && !domain.CanReplace(&current) {
			return nil
		}

		tx.FromCache = false
		if err := c.store.TxUpsert(txn, key.String(), tx); err != nil {
			return err
		}
		stored = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return stored, nil
}
