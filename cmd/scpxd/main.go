package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/scp-network/scpx-wallet/internal/config"
	"github.com/scp-network/scpx-wallet/internal/core/application"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	"github.com/scp-network/scpx-wallet/internal/infrastructure/provider"
	stateinmemory "github.com/scp-network/scpx-wallet/internal/infrastructure/state/inmemory"
	dbbadger "github.com/scp-network/scpx-wallet/internal/infrastructure/storage/db/badger"
	dbinmemory "github.com/scp-network/scpx-wallet/internal/infrastructure/storage/db/inmemory"
	txcacheredis "github.com/scp-network/scpx-wallet/internal/infrastructure/txcache/redis"
	rpcinterface "github.com/scp-network/scpx-wallet/internal/interfaces/rpc"
	"github.com/scp-network/scpx-wallet/pkg/chain"
	"github.com/scp-network/scpx-wallet/pkg/stats"
	"github.com/scp-network/scpx-wallet/pkg/wallet"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
	wallet.ScryptN = config.GetInt(config.ScryptNKey)

	registry := chain.DefaultRegistry()

	dbManager, closeDb, err := newDbManager()
	if err != nil {
		log.WithError(err).Fatal("failed to open storage")
	}
	defer closeDb()

	txCache, closeCache, err := newTxCache(dbManager)
	if err != nil {
		log.WithError(err).Fatal("failed to init tx cache")
	}
	defer closeCache()

	blockbookURLs, err := provider.ParseEndpoints(config.GetStringSlice(config.BlockbookURLsKey))
	if err != nil {
		log.WithError(err).Fatal("invalid blockbook urls")
	}
	resolver, err := provider.NewResolver(registry, provider.ResolverOpts{
		BlockbookURLs: blockbookURLs,
		EVMRPCURLs: map[string]string{
			chain.EthereumName:     config.GetString(config.EthRPCURLKey),
			chain.EthereumTestName: config.GetString(config.EthTestRPCURLKey),
		},
		RateLimit: config.GetInt(config.ProviderRateLimitKey),
		Timeout:   config.GetDuration(config.ProviderTimeoutKey),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init data providers")
	}
	defer resolver.Close()

	for _, c := range application.MetricsCollectors() {
		prometheus.MustRegister(c)
	}

	store := stateinmemory.NewStateStore()

	vaultSvc, err := application.NewVaultService(application.VaultServiceOpts{
		Owner:            config.GetString(config.WalletOwnerKey),
		Registry:         registry,
		Repository:       dbManager.VaultRepository(),
		Store:            store,
		DefaultAddresses: config.GetInt(config.WalletDefaultAddressesKey),
		Workers:          config.GetInt(config.CPUWorkersKey),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init vault service")
	}

	syncSvc, err := application.NewSyncService(application.SyncServiceOpts{
		Store:          store,
		Resolver:       resolver,
		Enricher:       application.NewTxEnricher(registry, resolver, txCache),
		Workers:        config.GetInt(config.SyncWorkersKey),
		MaxTxs:         config.GetInt(config.WalletMaxTxHistoryKey),
		PollInterval:   config.GetDuration(config.SyncPollIntervalKey),
		HostTimeout:    config.GetDuration(config.SyncHostTimeoutKey),
		RefreshTimeout: config.GetDuration(config.SyncRefreshTimeoutKey),
		Interval:       config.GetDuration(config.SyncIntervalKey),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init sync service")
	}

	walletSvc, err := application.NewWalletService(application.WalletServiceOpts{
		Registry:        registry,
		Store:           store,
		Vault:           vaultSvc,
		Sync:            syncSvc,
		Supported:       supportedChains(registry),
		RegenEverytime:  config.GetBool(config.WalletRegenEverytimeKey),
		EOSActiveWallet: eosActiveWallet(),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init wallet service")
	}

	rpcSvc, err := rpcinterface.NewService(rpcinterface.ServiceOpts{
		Addr:        config.GetString(config.RPCAddrKey),
		Username:    config.GetString(config.RPCUsernameKey),
		Password:    config.GetString(config.RPCPasswordKey),
		RemoteHosts: config.GetStringSlice(config.RPCRemoteHostsKey),
		RateLimit:   config.GetFloat(config.RPCRateLimitKey),
		RateBurst:   config.GetInt(config.RPCRateLimitKey),
		WalletSvc:   walletSvc,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init rpc interface")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncSvc.Start(ctx)
	defer syncSvc.Stop()

	stats.EnableStatistics(
		ctx, config.GetDuration(config.StatsIntervalKey),
		prometheus.DefaultGatherer, "scpx_",
	)

	defer walletSvc.Close()

	if err := rpcSvc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start rpc interface")
	}
	defer rpcSvc.Stop()

	log.Info("scpx daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down daemon")
}

// newDbManager opens the vault storage. The badger tx cache lives in the
// same datadir, so TX_CACHE_TYPE=badger follows DB_TYPE.
func newDbManager() (ports.DbManager, func(), error) {
	if config.GetString(config.DBTypeKey) == config.DBInMemory {
		m := dbinmemory.NewDbManager()
		return m, m.Close, nil
	}

	dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
	m, err := dbbadger.NewDbManager(dbDir, log.StandardLogger())
	if err != nil {
		return nil, nil, err
	}
	return m, m.Close, nil
}

func newTxCache(dbManager ports.DbManager) (domain.TxCache, func(), error) {
	switch config.GetString(config.TxCacheTypeKey) {
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{Addr: config.GetString(config.RedisAddrKey)})
		if err := client.Ping(context.Background()).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		return txcacheredis.NewTxCache(client), func() { client.Close() }, nil
	case config.DBInMemory:
		return dbinmemory.NewTxCacheImpl(), func() {}, nil
	default:
		return dbManager.TxCache(), func() {}, nil
	}
}

func supportedChains(registry *chain.Registry) []string {
	names := config.GetStringSlice(config.SupportedChainsKey)
	if len(names) > 0 {
		return names
	}
	return registry.Supported(config.GetBool(config.IncludeTestnetsKey))
}

func eosActiveWallet() *domain.EOSActiveWallet {
	wif, addr := config.GetString(config.EOSActiveWIFKey), config.GetString(config.EOSActiveAddressKey)
	if wif == "" {
		return nil
	}
	return &domain.EOSActiveWallet{WIF: wif, Address: addr}
}
