package dbbadger

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

const (
	vaultDir   = "vault"
	txCacheDir = "txcache"
)

var gcInterval = 30 * time.Minute

// DbManager holds the badgerhold stores of the wallet: one for the vault
// records and one for the resolved transactions.
type DbManager struct {
	vaultStore   *badgerhold.Store
	txCacheStore *badgerhold.Store

	vaultRepository domain.VaultRepository
	txCache         domain.TxCache
	stop            chan struct{}
}

// NewDbManager opens (or creates if not exists) the badger stores in the
// given base dir. With an empty dir the stores are kept in memory.
func NewDbManager(baseDbDir string, logger badger.Logger) (*DbManager, error) {
	var vaultDbDir, txCacheDbDir string
	if len(baseDbDir) > 0 {
		vaultDbDir = filepath.Join(baseDbDir, vaultDir)
		txCacheDbDir = filepath.Join(baseDbDir, txCacheDir)
	}

	vaultStore, err := createDb(vaultDbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening vault db: %w", err)
	}
	txCacheStore, err := createDb(txCacheDbDir, logger)
	if err != nil {
		vaultStore.Close()
		return nil, fmt.Errorf("opening tx cache db: %w", err)
	}

	m := &DbManager{
		vaultStore:   vaultStore,
		txCacheStore: txCacheStore,
		stop:         make(chan struct{}),
	}
	m.vaultRepository = NewVaultRepositoryImpl(vaultStore)
	m.txCache = NewTxCacheImpl(txCacheStore)

	if len(baseDbDir) > 0 {
		go m.runGC()
	}
	return m, nil
}

var _ ports.DbManager = (*DbManager)(nil)

func (m *DbManager) VaultRepository() domain.VaultRepository {
	return m.vaultRepository
}

func (m *DbManager) TxCache() domain.TxCache {
	return m.txCache
}

func (m *DbManager) Close() {
	close(m.stop)
	m.vaultStore.Close()
	m.txCacheStore.Close()
}

func (m *DbManager) runGC() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			for _, s := range []*badgerhold.Store{m.vaultStore, m.txCacheStore} {
				if err := s.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite {
					log.Error(err)
				}
			}
		}
	}
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
