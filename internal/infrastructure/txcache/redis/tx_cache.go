// Package redis is a TxCache shared by several wallet daemons through a
// redis server.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
)

const (
	// KeyPrefix namespaces the cache entries.
	KeyPrefix = "scpx:tx:"

	maxWatchRetries = 5
)

// ErrTooManyConflicts is returned when a Put keeps racing with other writers.
var ErrTooManyConflicts = errors.New("tx cache: too many concurrent writes on key")

type txCache struct {
	client redis.UniversalClient
}

// NewTxCache returns a TxCache stored on the given redis client.
func NewTxCache(client redis.UniversalClient) domain.TxCache {
	return &txCache{client}
}

func (c *txCache) Get(ctx context.Context, key domain.TxCacheKey) (*domain.EnrichedTx, error) {
	val, err := c.client.Get(ctx, KeyPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached tx: %w", err)
	}
	return decode(val)
}

// Put writes the entry with an optimistic transaction: the stored entry is
// watched, checked and replaced atomically.
func (c *txCache) Put(
	ctx context.Context, key domain.TxCacheKey, tx domain.EnrichedTx,
) (bool, error) {
	redisKey := KeyPrefix + key.String()
	tx.FromCache = false
	data, err := json.Marshal(tx)
	if err != nil {
		return false, fmt.Errorf("failed to marshal tx: %w", err)
	}

	for i := 0; i < maxWatchRetries; i++ {
		stored := false
		err := c.client.Watch(ctx, func(rtx *redis.Tx) error {
			val, err := rtx.Get(ctx, redisKey).Bytes()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil {
				current, err := decode(val)
				if err != nil {
					return err
				}
				if !domain.CanReplace(current) {
					return nil
				}
			}

			_, err = rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, redisKey, data, 0)
				return nil
			})
			if err != nil {
				return err
			}
			stored = true
			return nil
		}, redisKey)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to cache tx: %w", err)
		}
		return stored, nil
	}
	return false, ErrTooManyConflicts
}

func decode(val []byte) (*domain.EnrichedTx, error) {
	var tx domain.EnrichedTx
	if err := json.Unmarshal(val, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached tx: %w", err)
	}
	return &tx, nil
}
