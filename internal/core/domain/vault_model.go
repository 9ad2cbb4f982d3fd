package domain

import (
	"encoding/json"

	"github.com/scp-network/scpx-wallet/pkg/wallet"
)

// KeyRecord is a private key of the vault along with its (derivation or
// synthetic import) path.
type KeyRecord = wallet.KeyRecord

// Account defines the entity data struture for a group of keys of a raw
// asset. The first account of every asset is the default one, the others
// are import accounts.
type Account struct {
	Name     string      `json:"name"`
	Imported bool        `json:"imported,omitempty"`
	PrivKeys []KeyRecord `json:"privKeys"`
}

// AddressRecord is the address derived from a vault key. It is derived data
// so it is dropped from pruned backups.
type AddressRecord struct {
	Symbol      string `json:"symbol"`
	Addr        string `json:"addr"`
	AccountName string `json:"accountName"`
	Path        string `json:"path"`
}

// RawAsset holds the key material of one chain.
type RawAsset struct {
	Accounts    []*Account      `json:"accounts"`
	ImportCount int             `json:"importCount,omitempty"`
	Addresses   []AddressRecord `json:"addresses,omitempty"`
}

// RawAssets is the decrypted vault tree, keyed by chain name.
type RawAssets map[string]*RawAsset

// EOSActiveWallet is the externally managed EOS credential stored as the
// only key of the eos asset.
type EOSActiveWallet struct {
	WIF     string `json:"wif"`
	Address string `json:"address"`
}

// UnmarshalRawAssets parses a plaintext vault tree.
func UnmarshalRawAssets(data []byte) (RawAssets, error) {
	raw := RawAssets{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for name, asset := range raw {
		if asset == nil {
			delete(raw, name)
		}
	}
	return raw, nil
}

// Marshal serializes the tree. Map keys are emitted in sorted order and
// struct fields in declaration order, so equal trees give equal bytes.
func (r RawAssets) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Prune returns a copy of the tree without derived address data.
func (r RawAssets) Prune() RawAssets {
	pruned := r.Clone()
	for _, asset := range pruned {
		asset.Addresses = nil
	}
	return pruned
}

// Clone returns a deep copy of the tree.
func (r RawAssets) Clone() RawAssets {
	clone := make(RawAssets, len(r))
	for name, asset := range r {
		clone[name] = asset.clone()
	}
	return clone
}

// Scrub drops every reference to key material held by the tree.
func (r RawAssets) Scrub() {
	for name, asset := range r {
		for _, account := range asset.Accounts {
			for i := range account.PrivKeys {
				account.PrivKeys[i] = KeyRecord{}
			}
			account.PrivKeys = nil
		}
		asset.Accounts = nil
		delete(r, name)
	}
}

// Names returns the names of the held chains.
func (r RawAssets) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

func (a *RawAsset) clone() *RawAsset {
	clone := &RawAsset{
		Accounts:    make([]*Account, 0, len(a.Accounts)),
		ImportCount: a.ImportCount,
	}
	for _, account := range a.Accounts {
		clone.Accounts = append(clone.Accounts, &Account{
			Name:     account.Name,
			Imported: account.Imported,
			PrivKeys: append([]KeyRecord{}, account.PrivKeys...),
		})
	}
	if a.Addresses != nil {
		clone.Addresses = append([]AddressRecord{}, a.Addresses...)
	}
	return clone
}

// AccountKey is a key of a raw asset together with the account owning it.
type AccountKey struct {
	AccountName string
	Key         KeyRecord
}

// Keys returns every key of the asset, in account order.
func (a *RawAsset) Keys() []AccountKey {
	keys := make([]AccountKey, 0)
	for _, account := range a.Accounts {
		for _, k := range account.PrivKeys {
			keys = append(keys, AccountKey{account.Name, k})
		}
	}
	return keys
}

// KeyCount returns the number of keys of the asset.
func (a *RawAsset) KeyCount() int {
	count := 0
	for _, account := range a.Accounts {
		count += len(account.PrivKeys)
	}
	return count
}

func (a *RawAsset) hasPrivKey(privKey string) bool {
	for _, account := range a.Accounts {
		for _, k := range account.PrivKeys {
			if k.PrivKey == privKey {
				return true
			}
		}
	}
	return false
}

// accountOffset returns the position in Addresses of the first key of the
// account at the given index.
func (a *RawAsset) accountOffset(accountIndex int) int {
	offset := 0
	for i := 0; i < accountIndex && i < len(a.Accounts); i++ {
		offset += len(a.Accounts[i].PrivKeys)
	}
	return offset
}

// Secret is the passphrase material of a vault: the apk and the hashed
// master key. The hashed master key is also the derivation master secret.
type Secret struct {
	APK  []byte
	HMPK []byte
}

// NewSecret hashes the master key and returns the vault secret.
func NewSecret(apk, mpk string) (*Secret, error) {
	hmpk, err := wallet.HashMasterKey(apk, mpk)
	if err != nil {
		return nil, &ValidationError{Field: "mpk", Err: err}
	}
	return &Secret{APK: []byte(apk), HMPK: hmpk}, nil
}

func (s *Secret) Validate() error {
	if s == nil || len(s.APK) <= 0 || len(s.HMPK) <= 0 {
		return &ValidationError{Field: "secret", Err: ErrNullSecret}
	}
	return nil
}

// Passphrase returns a new buffer apk|hmpk that the caller must Zero.
func (s *Secret) Passphrase() []byte {
	p := make([]byte, 0, len(s.APK)+len(s.HMPK))
	p = append(p, s.APK...)
	return append(p, s.HMPK...)
}

// Clone returns an independent copy of the secret.
func (s *Secret) Clone() *Secret {
	return &Secret{
		APK:  append([]byte{}, s.APK...),
		HMPK: append([]byte{}, s.HMPK...),
	}
}

// Zero overwrites the secret material.
func (s *Secret) Zero() {
	if s == nil {
		return
	}
	wallet.Zero(s.APK)
	wallet.Zero(s.HMPK)
}
