package application

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	"github.com/scp-network/scpx-wallet/pkg/chain"
	"github.com/scp-network/scpx-wallet/pkg/wallet"
)

type VaultService interface {
	// Open decrypts a vault blob. The caller must Scrub the returned tree.
	Open(blob string, secret *domain.Secret) (domain.RawAssets, error)
	Seal(raw domain.RawAssets, secret *domain.Secret) (string, error)
	SealPruned(raw domain.RawAssets, secret *domain.Secret) (string, error)
	Generate(ctx context.Context, opts GenerateWalletOpts) ([]domain.DisplayableAsset, error)
	AddAddress(
		ctx context.Context, secret *domain.Secret, chainName string, accountIndex int,
	) (*domain.AddressRecord, error)
	ImportKeys(
		ctx context.Context, secret *domain.Secret, chainName string, pairs []domain.ImportPair,
	) (*domain.ImportResult, error)
	RemoveAccounts(
		ctx context.Context, secret *domain.Secret, chainName string, accountNames []string,
	) (*domain.RemoveResult, error)
	// PrivKeys returns the private keys of the named chains, or of every
	// chain if none is given, by chain name and address.
	PrivKeys(
		ctx context.Context, secret *domain.Secret, chainNames ...string,
	) (map[string]map[string]string, error)
	Backup(ctx context.Context) (string, error)
}

// GenerateWalletOpts is the struct given to VaultService.Generate
type GenerateWalletOpts struct {
	Secret          *domain.Secret
	Supported       []string
	ForceRegenerate bool
	EOSActiveWallet *domain.EOSActiveWallet
}

// VaultServiceOpts ...
type VaultServiceOpts struct {
	Owner            string
	Registry         *chain.Registry
	Repository       domain.VaultRepository
	Store            ports.StateStore
	DefaultAddresses int
	Workers          int
}

func (o VaultServiceOpts) validate() error {
	if o.Owner == "" {
		return &domain.ValidationError{Field: "owner", Err: errors.New("must not be empty")}
	}
	if o.Registry == nil || o.Repository == nil || o.Store == nil {
		return &domain.ConfigurationError{Chain: "*", Err: errors.New("missing registry, repository or state store")}
	}
	return nil
}

type vaultService struct {
	lock sync.Mutex

	owner            string
	registry         *chain.Registry
	repository       domain.VaultRepository
	store            ports.StateStore
	defaultAddresses int
	workers          int
}

func NewVaultService(opts VaultServiceOpts) (VaultService, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	return &vaultService{
		owner:            opts.Owner,
		registry:         opts.Registry,
		repository:       opts.Repository,
		store:            opts.Store,
		defaultAddresses: opts.DefaultAddresses,
		workers:          workers,
	}, nil
}

func (s *vaultService) Open(blob string, secret *domain.Secret) (domain.RawAssets, error) {
	if err := secret.Validate(); err != nil {
		return nil, err
	}
	if blob == "" {
		return nil, &domain.DecryptionError{Err: domain.ErrEmptyVault}
	}

	passphrase := secret.Passphrase()
	defer wallet.Zero(passphrase)

	plaintext, err := wallet.Decrypt(wallet.DecryptOpts{
		CypherText: blob,
		Passphrase: passphrase,
	})
	if err != nil {
		return nil, &domain.DecryptionError{Err: err}
	}
	defer wallet.Zero(plaintext)

	raw, err := domain.UnmarshalRawAssets(plaintext)
	if err != nil {
		return nil, &domain.DecryptionError{Err: err}
	}
	return raw, nil
}

func (s *vaultService) Seal(raw domain.RawAssets, secret *domain.Secret) (string, error) {
	return s.seal(raw, secret)
}

func (s *vaultService) SealPruned(raw domain.RawAssets, secret *domain.Secret) (string, error) {
	pruned := raw.Prune()
	defer pruned.Scrub()
	return s.seal(pruned, secret)
}

func (s *vaultService) seal(raw domain.RawAssets, secret *domain.Secret) (string, error) {
	if err := secret.Validate(); err != nil {
		return "", err
	}
	plaintext, err := raw.Marshal()
	if err != nil {
		return "", err
	}
	defer wallet.Zero(plaintext)

	passphrase := secret.Passphrase()
	defer wallet.Zero(passphrase)

	return wallet.Encrypt(wallet.EncryptOpts{
		PlainText:  plaintext,
		Passphrase: passphrase,
	})
}

func (s *vaultService) Generate(
	ctx context.Context, opts GenerateWalletOpts,
) ([]domain.DisplayableAsset, error) {
	err := s.update(ctx, opts.Secret, true, func(raw domain.RawAssets) error {
		generated, err := raw.Generate(domain.GenerateOpts{
			Registry:         s.registry,
			Supported:        opts.Supported,
			MasterSecret:     opts.Secret.HMPK,
			ForceRegenerate:  opts.ForceRegenerate,
			DefaultAddresses: s.defaultAddresses,
			EOSActiveWallet:  opts.EOSActiveWallet,
		})
		if err != nil {
			return err
		}
		if len(generated) > 0 {
			log.Infof("vault: generated default accounts for %v", generated)
		}
		return nil
	})
	vaultOperations.WithLabelValues("generate", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	return s.store.GetState().Assets, nil
}

func (s *vaultService) AddAddress(
	ctx context.Context, secret *domain.Secret, chainName string, accountIndex int,
) (*domain.AddressRecord, error) {
	var record *domain.AddressRecord
	err := s.update(ctx, secret, false, func(raw domain.RawAssets) error {
		res, err := raw.AddAddress(domain.AddAddressOpts{
			Registry:     s.registry,
			Name:         chainName,
			AccountIndex: accountIndex,
			MasterSecret: secret.HMPK,
		})
		if err != nil {
			return err
		}
		record = &res.Address
		log.Debugf("vault: added address %s (%s) to %v", res.Address.Addr, res.Key.Path, res.Affected)
		return nil
	})
	vaultOperations.WithLabelValues("add_address", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *vaultService) ImportKeys(
	ctx context.Context, secret *domain.Secret, chainName string, pairs []domain.ImportPair,
) (*domain.ImportResult, error) {
	var result *domain.ImportResult
	err := s.update(ctx, secret, false, func(raw domain.RawAssets) error {
		res, err := raw.ImportKeys(domain.ImportKeysOpts{
			Registry: s.registry,
			Name:     chainName,
			Pairs:    pairs,
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	vaultOperations.WithLabelValues("import_keys", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *vaultService) RemoveAccounts(
	ctx context.Context, secret *domain.Secret, chainName string, accountNames []string,
) (*domain.RemoveResult, error) {
	var result *domain.RemoveResult
	err := s.update(ctx, secret, false, func(raw domain.RawAssets) error {
		res, err := raw.RemoveAccounts(chainName, accountNames)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	vaultOperations.WithLabelValues("remove_accounts", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *vaultService) PrivKeys(
	ctx context.Context, secret *domain.Secret, chainNames ...string,
) (map[string]map[string]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	raw, err := s.load(ctx, secret, false)
	if err != nil {
		return nil, err
	}
	defer raw.Scrub()

	if len(chainNames) <= 0 {
		chainNames = raw.Names()
	}
	privKeys := make(map[string]map[string]string, len(chainNames))
	for _, name := range chainNames {
		asset, ok := raw[name]
		if !ok {
			return nil, &domain.ValidationError{Field: name, Err: domain.ErrAssetNotFound}
		}
		keys := asset.Keys()
		byAddr := make(map[string]string, len(keys))
		for i, addr := range asset.Addresses {
			if i < len(keys) {
				byAddr[addr.Addr] = keys[i].Key.PrivKey
			}
		}
		privKeys[name] = byAddr
	}
	return privKeys, nil
}

func (s *vaultService) Backup(ctx context.Context) (string, error) {
	record, err := s.repository.GetVault(ctx, s.owner)
	if err != nil {
		if errors.Is(err, domain.ErrVaultNotFound) {
			return "", ErrVaultNotFound
		}
		return "", err
	}
	return record.PrunedBlob, nil
}

func (s *vaultService) load(
	ctx context.Context, secret *domain.Secret, allowCreate bool,
) (domain.RawAssets, error) {
	if err := secret.Validate(); err != nil {
		return nil, err
	}
	record, err := s.repository.GetVault(ctx, s.owner)
	if err != nil {
		if errors.Is(err, domain.ErrVaultNotFound) {
			if allowCreate {
				return domain.RawAssets{}, nil
			}
			return nil, ErrVaultNotFound
		}
		return nil, err
	}
	return s.Open(record.Blob, secret)
}

// update runs fn against the decrypted tree under the vault lock. On success
// both sealed blobs are persisted and the new blob and asset layout are
// dispatched as a single state transition. The layout is merged with the
// state current at dispatch time, not with an earlier snapshot. The plaintext tree is scrubbed on
// return in any case.
func (s *vaultService) update(
	ctx context.Context, secret *domain.Secret, allowCreate bool,
	fn func(raw domain.RawAssets) error,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	raw, err := s.load(ctx, secret, allowCreate)
	if err != nil {
		return err
	}
	defer raw.Scrub()

	if err := fn(raw); err != nil {
		return err
	}
	if err := fillAddresses(ctx, s.registry, raw, s.workers); err != nil {
		return err
	}

	blob, err := s.seal(raw, secret)
	if err != nil {
		return err
	}
	prunedBlob, err := s.SealPruned(raw, secret)
	if err != nil {
		return err
	}
	layout, err := domain.ProjectAssets(raw, s.registry, nil)
	if err != nil {
		return err
	}

	if err := s.repository.UpdateVault(
		ctx, s.owner, func(_ *domain.VaultRecord) (*domain.VaultRecord, error) {
			return &domain.VaultRecord{
				Owner:      s.owner,
				Blob:       blob,
				PrunedBlob: prunedBlob,
				UpdatedAt:  time.Now(),
			}, nil
		},
	); err != nil {
		return err
	}

	s.store.DispatchBatch([]domain.Action{
		domain.SetOwner{Owner: s.owner},
		domain.SetAssetsRaw{Blob: blob},
		domain.MergeAssetsLayout{Assets: layout},
	})
	return nil
}
