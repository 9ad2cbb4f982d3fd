package inmemory

import (
	"context"
	"sync"

	"github.com/scp-network/scpx-wallet/internal/core/domain"
)

// TxCacheImpl is a process local transaction cache.
type TxCacheImpl struct {
	txs    map[string]domain.EnrichedTx
	locker *sync.RWMutex
}

func NewTxCacheImpl() domain.TxCache {
	return &TxCacheImpl{
		txs:    make(map[string]domain.EnrichedTx),
		locker: &sync.RWMutex{},
	}
}

func (c *TxCacheImpl) Get(
	_ context.Context, key domain.TxCacheKey,
) (*domain.EnrichedTx, error) {
	c.locker.RLock()
	defer c.locker.RUnlock()

	tx, ok := c.txs[key.String()]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

func (c *TxCacheImpl) Put(
	_ context.Context, key domain.TxCacheKey, tx domain.EnrichedTx,
) (bool, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if current, ok := c.txs[key.String()]; ok && !domain.CanReplace(&current) {
		return false, nil
	}
	tx.FromCache = false
	c.txs[key.String()] = tx
	return true, nil
}
