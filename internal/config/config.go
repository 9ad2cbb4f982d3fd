package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// TxCacheTypeKey selects the backend of the resolved transactions cache
	TxCacheTypeKey = "TX_CACHE_TYPE"
	// RedisAddrKey is the <host:port> of the redis server used as tx cache
	RedisAddrKey = "REDIS_ADDR"

	// RPCAddrKey is the address where the JSON-RPC command interface listens on
	RPCAddrKey = "RPC_ADDR"
	// RPCUsernameKey and RPCPasswordKey are the credentials required by every
	// exec call
	RPCUsernameKey = "RPC_USERNAME"
	RPCPasswordKey = "RPC_PASSWORD"
	// RPCRemoteHostsKey is the comma separated list of remote hosts allowed to
	// reach the RPC interface
	RPCRemoteHostsKey = "RPC_REMOTE_HOSTS"
	// RPCRateLimitKey is the max number of RPC requests per second
	RPCRateLimitKey = "RPC_RATE_LIMIT"

	// CPUWorkersKey is the size of the pool deriving addresses
	CPUWorkersKey = "CPU_WORKERS"
	// SyncWorkersKey is the size of the pool refreshing assets
	SyncWorkersKey        = "SYNC_WORKERS"
	SyncPollIntervalKey   = "SYNC_POLL_INTERVAL"
	SyncHostTimeoutKey    = "SYNC_HOST_TIMEOUT"
	SyncRefreshTimeoutKey = "SYNC_REFRESH_TIMEOUT"
	// SyncIntervalKey is the period of the background refresh, 0 disables it
	SyncIntervalKey = "SYNC_INTERVAL"

	// WalletMaxTxHistoryKey caps the transactions kept per address
	WalletMaxTxHistoryKey     = "WALLET_MAX_TX_HISTORY"
	WalletDefaultAddressesKey = "WALLET_DEFAULT_ADDRESSES"
	// WalletRegenEverytimeKey forces the regeneration of the default accounts
	// at every load
	WalletRegenEverytimeKey = "WALLET_REGEN_EVERYTIME"
	// WalletOwnerKey identifies the vault record in the repository
	WalletOwnerKey = "WALLET_OWNER"
	// EOSActiveWIFKey and EOSActiveAddressKey are the active credential
	// required to hold an EOS account
	EOSActiveWIFKey     = "EOS_ACTIVE_WIF"
	EOSActiveAddressKey = "EOS_ACTIVE_ADDRESS"

	// SupportedChainsKey is the list of chain names to generate, all the
	// registry when empty
	SupportedChainsKey = "SUPPORTED_CHAINS"
	IncludeTestnetsKey = "INCLUDE_TESTNETS"

	// BlockbookURLsKey is a list of SYMBOL=url entries
	BlockbookURLsKey     = "BLOCKBOOK_URLS"
	EthRPCURLKey         = "ETH_RPC_URL"
	EthTestRPCURLKey     = "ETH_TEST_RPC_URL"
	ProviderRateLimitKey = "PROVIDER_RATE_LIMIT"
	ProviderTimeoutKey   = "PROVIDER_TIMEOUT"

	// ScryptNKey is the cost parameter of the vault key derivation
	ScryptNKey = "SCRYPT_N"
	// StatsIntervalKey defines the interval for logging memory and wallet
	// statistics, 0 disables it
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation = "db"

	DBBadger   = "badger"
	DBInMemory = "inmemory"
	CacheRedis = "redis"
)

var (
	vip            *viper.Viper
	defaultDatadir = btcutil.AppDataDir("scpx-wallet", false)

	supportedDbTypes    = map[string]bool{DBBadger: true, DBInMemory: true}
	supportedCacheTypes = map[string]bool{DBBadger: true, DBInMemory: true, CacheRedis: true}
)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("SCPX")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(TxCacheTypeKey, DBBadger)
	vip.SetDefault(RedisAddrKey, "localhost:6379")

	vip.SetDefault(RPCAddrKey, "localhost:4000")
	vip.SetDefault(RPCUsernameKey, "")
	vip.SetDefault(RPCPasswordKey, "")
	vip.SetDefault(RPCRemoteHostsKey, []string{"localhost"})
	vip.SetDefault(RPCRateLimitKey, 10)

	vip.SetDefault(CPUWorkersKey, 4)
	vip.SetDefault(SyncWorkersKey, 8)
	vip.SetDefault(SyncPollIntervalKey, time.Second)
	vip.SetDefault(SyncHostTimeoutKey, 2*time.Minute)
	vip.SetDefault(SyncRefreshTimeoutKey, 5*time.Minute)
	vip.SetDefault(SyncIntervalKey, 0)

	vip.SetDefault(WalletMaxTxHistoryKey, 100)
	vip.SetDefault(WalletDefaultAddressesKey, 1)
	vip.SetDefault(WalletRegenEverytimeKey, false)
	vip.SetDefault(WalletOwnerKey, "default")
	vip.SetDefault(EOSActiveWIFKey, "")
	vip.SetDefault(EOSActiveAddressKey, "")

	vip.SetDefault(SupportedChainsKey, []string{})
	vip.SetDefault(IncludeTestnetsKey, false)

	vip.SetDefault(BlockbookURLsKey, []string{
		"BTC=https://btc1.trezor.io",
		"LTC=https://ltc1.trezor.io",
		"ETH=https://eth1.trezor.io",
	})
	vip.SetDefault(EthRPCURLKey, "")
	vip.SetDefault(EthTestRPCURLKey, "")
	vip.SetDefault(ProviderRateLimitKey, 10)
	vip.SetDefault(ProviderTimeoutKey, 30*time.Second)

	vip.SetDefault(ScryptNKey, 1<<15)
	vip.SetDefault(StatsIntervalKey, 0)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

// GetStringSlice also splits comma separated values, as read from the
// environment.
func GetStringSlice(key string) []string {
	values := make([]string, 0)
	for _, v := range vip.GetStringSlice(key) {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				values = append(values, s)
			}
		}
	}
	return values
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func Set(key string, value interface{}) {
	vip.Set(key, value)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if dbType := GetString(DBTypeKey); !supportedDbTypes[dbType] {
		return fmt.Errorf("unsupported %s %q", DBTypeKey, dbType)
	}
	cacheType := GetString(TxCacheTypeKey)
	if !supportedCacheTypes[cacheType] {
		return fmt.Errorf("unsupported %s %q", TxCacheTypeKey, cacheType)
	}
	if cacheType == CacheRedis && GetString(RedisAddrKey) == "" {
		return fmt.Errorf("%s requires %s", CacheRedis, RedisAddrKey)
	}

	if GetString(RPCUsernameKey) == "" || GetString(RPCPasswordKey) == "" {
		return fmt.Errorf("username and password for rpc are mandatory")
	}
	if len(GetStringSlice(RPCRemoteHostsKey)) <= 0 {
		return fmt.Errorf("host restriction for rpc is mandatory")
	}

	for _, key := range []string{CPUWorkersKey, SyncWorkersKey, WalletMaxTxHistoryKey, WalletDefaultAddressesKey} {
		if GetInt(key) <= 0 {
			return fmt.Errorf("%s must be a positive number", key)
		}
	}
	for _, key := range []string{SyncPollIntervalKey, SyncHostTimeoutKey, SyncRefreshTimeoutKey} {
		if GetDuration(key) <= 0 {
			return fmt.Errorf("%s must be a positive duration", key)
		}
	}
	if GetDuration(SyncHostTimeoutKey) > GetDuration(SyncRefreshTimeoutKey) {
		return fmt.Errorf(
			"%s must not exceed %s", SyncHostTimeoutKey, SyncRefreshTimeoutKey,
		)
	}

	eosWIF, eosAddr := GetString(EOSActiveWIFKey), GetString(EOSActiveAddressKey)
	if (eosWIF == "") != (eosAddr == "") {
		return fmt.Errorf("eos active wallet requires both wif and address")
	}

	if n := GetInt(ScryptNKey); n < 2 || n&(n-1) != 0 {
		return fmt.Errorf("%s must be a power of 2 greater than 1", ScryptNKey)
	}

	return nil
}

func initDatadir() error {
	if GetString(DBTypeKey) != DBBadger {
		return nil
	}
	return makeDirectoryIfNotExists(filepath.Join(GetDatadir(), DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
