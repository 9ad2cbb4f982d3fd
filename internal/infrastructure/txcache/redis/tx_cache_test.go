package redis_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/infrastructure/txcache/redis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) domain.TxCache {
	addr := os.Getenv("SCPX_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SCPX_TEST_REDIS_ADDR not set")
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return redis.NewTxCache(client)
}

func newKey() domain.TxCacheKey {
	return domain.TxCacheKey{Family: "ETH", Owner: uuid.New().String(), Txid: uuid.New().String()}
}

func newTx(txid string, blockNo int64, value int64) domain.EnrichedTx {
	return domain.EnrichedTx{
		Txid:    txid,
		Date:    time.Unix(1600000000, 0).UTC(),
		BlockNo: blockNo,
		Value:   decimal.NewFromInt(value),
		Fees:    decimal.Zero,
	}
}

func TestTxCache(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		tx, err := cache.Get(ctx, newKey())
		require.NoError(t, err)
		require.Nil(t, tx)
	})

	t.Run("replace unconfirmed", func(t *testing.T) {
		key := newKey()
		stored, err := cache.Put(ctx, key, newTx(key.Txid, domain.UnconfirmedBlockNo, 1))
		require.NoError(t, err)
		require.True(t, stored)

		stored, err = cache.Put(ctx, key, newTx(key.Txid, 100, 1))
		require.NoError(t, err)
		require.True(t, stored)

		tx, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, int64(100), tx.BlockNo)
	})

	t.Run("keep confirmed", func(t *testing.T) {
		key := newKey()
		stored, err := cache.Put(ctx, key, newTx(key.Txid, 100, 1))
		require.NoError(t, err)
		require.True(t, stored)

		stored, err = cache.Put(ctx, key, newTx(key.Txid, domain.UnconfirmedBlockNo, 2))
		require.NoError(t, err)
		require.False(t, stored)

		tx, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.Equal(t, int64(100), tx.BlockNo)
		require.True(t, decimal.NewFromInt(1).Equal(tx.Value))
	})

	t.Run("concurrent put", func(t *testing.T) {
		key := newKey()
		wg := &sync.WaitGroup{}
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := cache.Put(ctx, key, newTx(key.Txid, 100, int64(i)))
				require.True(t, err == nil || err == redis.ErrTooManyConflicts)
			}(i)
		}
		wg.Wait()

		tx, err := cache.Get(ctx, key)
		require.NoError(t, err)
		require.NotNil(t, tx)
		require.True(t, tx.IsConfirmed())
	})
}
