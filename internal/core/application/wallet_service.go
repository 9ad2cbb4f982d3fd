package application

import (
	"context"
	"errors"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	"github.com/scp-network/scpx-wallet/pkg/chain"
)

// WalletService is the entry point of every wallet command. It holds the
// secret of the loaded wallet for the lifetime of the session.
type WalletService interface {
	Load(ctx context.Context, apk, mpk string) ([]domain.DisplayableAsset, error)
	Dump(ctx context.Context, opts DumpOpts) ([]DumpedAsset, error)
	AddAddress(ctx context.Context, symbol string) (*domain.AddressRecord, error)
	ImportPrivKeys(ctx context.Context, symbol string, privKeys []string) (*domain.ImportResult, error)
	RemoveImportedAccounts(
		ctx context.Context, symbol string, accountNames []string,
	) (*domain.RemoveResult, error)
	Refresh(ctx context.Context) error
	ValidateAddress(symbol, addr string) (bool, error)
	Backup(ctx context.Context) (string, error)
	Close()
}

// DumpOpts ...
type DumpOpts struct {
	// Symbol restricts the dump to one asset.
	Symbol   string
	Txs      bool
	PrivKeys bool
}

// DumpedAsset is an asset as returned by Dump. PrivKeys maps addresses to
// their private key and is only set when requested.
type DumpedAsset struct {
	domain.DisplayableAsset
	PrivKeys map[string]string `json:"privKeys,omitempty"`
}

// WalletServiceOpts ...
type WalletServiceOpts struct {
	Registry        *chain.Registry
	Store           ports.StateStore
	Vault           VaultService
	Sync            SyncService
	Supported       []string
	RegenEverytime  bool
	EOSActiveWallet *domain.EOSActiveWallet
}

func (o WalletServiceOpts) validate() error {
	if o.Registry == nil || o.Store == nil || o.Vault == nil || o.Sync == nil {
		return &domain.ConfigurationError{Chain: "*", Err: errors.New("missing registry, state store, vault or sync service")}
	}
	return nil
}

type walletService struct {
	registry        *chain.Registry
	store           ports.StateStore
	vault           VaultService
	sync            SyncService
	supported       []string
	regenEverytime  bool
	eosActiveWallet *domain.EOSActiveWallet

	secret *domain.Secret
	lock   *sync.RWMutex
}

func NewWalletService(opts WalletServiceOpts) (WalletService, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	supported := opts.Supported
	if len(supported) <= 0 {
		supported = opts.Registry.Supported(false)
	}
	if opts.EOSActiveWallet == nil {
		supported = without(supported, chain.EOSName)
	}
	return &walletService{
		registry:        opts.Registry,
		store:           opts.Store,
		vault:           opts.Vault,
		sync:            opts.Sync,
		supported:       supported,
		regenEverytime:  opts.RegenEverytime,
		eosActiveWallet: opts.EOSActiveWallet,
		lock:            &sync.RWMutex{},
	}, nil
}

// Load opens the wallet with the given credentials, generating the default
// accounts of any supported chain not held yet. A vault that does not exist
// is created.
func (w *walletService) Load(ctx context.Context, apk, mpk string) ([]domain.DisplayableAsset, error) {
	if strings.TrimSpace(apk) == "" {
		return nil, &domain.ValidationError{Field: "apk", Err: domain.ErrNullSecret}
	}
	secret, err := domain.NewSecret(apk, mpk)
	if err != nil {
		return nil, err
	}

	assets, err := w.vault.Generate(ctx, GenerateWalletOpts{
		Secret:          secret,
		Supported:       w.supported,
		ForceRegenerate: w.regenEverytime,
		EOSActiveWallet: w.eosActiveWallet,
	})
	if err != nil {
		secret.Zero()
		return nil, err
	}

	w.lock.Lock()
	w.secret.Zero()
	w.secret = secret
	w.lock.Unlock()

	log.Infof("wallet loaded with %d assets", len(assets))
	return assets, nil
}

func (w *walletService) Dump(ctx context.Context, opts DumpOpts) ([]DumpedAsset, error) {
	secret, err := w.session()
	if err != nil {
		return nil, err
	}
	defer secret.Zero()

	state := w.store.GetState()
	assets := state.Assets
	if opts.Symbol != "" {
		asset, ok := state.AssetBySymbol(opts.Symbol)
		if !ok {
			return nil, &domain.ValidationError{Field: "symbol", Err: domain.ErrAssetNotFound}
		}
		assets = []domain.DisplayableAsset{asset}
	}

	var privKeys map[string]map[string]string
	if opts.PrivKeys {
		names := make([]string, 0, len(assets))
		for _, a := range assets {
			names = append(names, a.Name)
		}
		if privKeys, err = w.vault.PrivKeys(ctx, secret, names...); err != nil {
			return nil, err
		}
	}

	dumped := make([]DumpedAsset, 0, len(assets))
	for _, a := range assets {
		asset := a.Clone()
		if !opts.Txs {
			asset.LocalTxs = nil
			for i := range asset.Addresses {
				asset.Addresses[i].Txs = nil
			}
		}
		dumped = append(dumped, DumpedAsset{
			DisplayableAsset: asset,
			PrivKeys:         privKeys[a.Name],
		})
	}
	return dumped, nil
}

func (w *walletService) AddAddress(ctx context.Context, symbol string) (*domain.AddressRecord, error) {
	secret, err := w.session()
	if err != nil {
		return nil, err
	}
	defer secret.Zero()

	name, err := w.chainName(symbol)
	if err != nil {
		return nil, err
	}
	return w.vault.AddAddress(ctx, secret, name, 0)
}

func (w *walletService) ImportPrivKeys(
	ctx context.Context, symbol string, privKeys []string,
) (*domain.ImportResult, error) {
	secret, err := w.session()
	if err != nil {
		return nil, err
	}
	defer secret.Zero()

	name, err := w.chainName(symbol)
	if err != nil {
		return nil, err
	}
	pairs := make([]domain.ImportPair, 0, len(privKeys))
	for _, k := range privKeys {
		pairs = append(pairs, domain.ImportPair{PrivKey: k})
	}
	return w.vault.ImportKeys(ctx, secret, name, pairs)
}

func (w *walletService) RemoveImportedAccounts(
	ctx context.Context, symbol string, accountNames []string,
) (*domain.RemoveResult, error) {
	secret, err := w.session()
	if err != nil {
		return nil, err
	}
	defer secret.Zero()

	name, err := w.chainName(symbol)
	if err != nil {
		return nil, err
	}
	return w.vault.RemoveAccounts(ctx, secret, name, accountNames)
}

func (w *walletService) Refresh(ctx context.Context) error {
	if !w.loaded() {
		return ErrWalletNotLoaded
	}
	return w.sync.Refresh(ctx)
}

// ValidateAddress does not require a loaded wallet.
func (w *walletService) ValidateAddress(symbol, addr string) (bool, error) {
	adapter, err := w.registry.BySymbol(symbol)
	if err != nil {
		return false, &domain.ValidationError{Field: "symbol", Err: err}
	}
	meta := adapter.Meta()
	return chain.ValidateAddress(strings.TrimSpace(addr), meta.AddressType, meta.Testnet), nil
}

func (w *walletService) Backup(ctx context.Context) (string, error) {
	if !w.loaded() {
		return "", ErrWalletNotLoaded
	}
	return w.vault.Backup(ctx)
}

// Close drops the session secret.
func (w *walletService) Close() {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.secret.Zero()
	w.secret = nil
}

// session returns a copy of the session secret that the caller must Zero.
func (w *walletService) session() (*domain.Secret, error) {
	w.lock.RLock()
	defer w.lock.RUnlock()

	if w.secret == nil {
		return nil, ErrWalletNotLoaded
	}
	return w.secret.Clone(), nil
}

func (w *walletService) loaded() bool {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.secret != nil
}

func (w *walletService) chainName(symbol string) (string, error) {
	adapter, err := w.registry.BySymbol(symbol)
	if err != nil {
		return "", &domain.ValidationError{Field: "symbol", Err: err}
	}
	return adapter.Meta().Name, nil
}

func without(names []string, name string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
