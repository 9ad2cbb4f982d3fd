package domain

import (
	"fmt"
	"strings"

	"github.com/scp-network/scpx-wallet/pkg/chain"
	"github.com/scp-network/scpx-wallet/pkg/wallet"
)

const (
	// DefaultAddressCount is the number of keys of a new default account.
	DefaultAddressCount = 1
	eosPath             = "m/44'/194'/0'/0/0"
)

// GenerateOpts is the struct given to RawAssets.Generate
type GenerateOpts struct {
	Registry         *chain.Registry
	Supported        []string
	MasterSecret     []byte
	ForceRegenerate  bool
	DefaultAddresses int
	EOSActiveWallet  *EOSActiveWallet
}

func (o GenerateOpts) validate() error {
	if o.Registry == nil {
		return &ConfigurationError{Chain: "*", Err: fmt.Errorf("missing chain registry")}
	}
	if len(o.MasterSecret) <= 0 {
		return &ValidationError{Field: "masterSecret", Err: wallet.ErrNullMasterSecret}
	}
	if len(o.Supported) <= 0 {
		return &ValidationError{Field: "supported", Err: fmt.Errorf("supported chain set must not be empty")}
	}
	for _, name := range o.Supported {
		if _, err := o.Registry.Get(name); err != nil {
			return &ConfigurationError{Chain: name, Err: err}
		}
		if name == chain.EOSName && o.EOSActiveWallet == nil {
			return &ValidationError{Field: "eosActiveWallet", Err: ErrMissingEOSWallet}
		}
	}
	return nil
}

// Generate brings the tree in line with the supported chain set. Chains no
// longer supported are pruned, newly supported ones (or all of them when
// forced) get a default account. EVM host chains are generated before any
// other chain so that their tokens can share the host keys. Generated assets
// are left with nil Addresses, to be filled with SetAddresses.
func (r RawAssets) Generate(opts GenerateOpts) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	count := opts.DefaultAddresses
	if count <= 0 {
		count = DefaultAddressCount
	}

	supported := make(map[string]bool, len(opts.Supported))
	for _, name := range opts.Supported {
		supported[name] = true
	}
	for name := range r {
		if !supported[name] {
			delete(r, name)
		}
	}

	hosts, others, tokens := make([]string, 0), make([]string, 0), make([]string, 0)
	for _, name := range opts.Supported {
		if _, ok := r[name]; ok && !opts.ForceRegenerate {
			continue
		}
		adapter, _ := opts.Registry.Get(name)
		meta := adapter.Meta()
		switch {
		case meta.IsEVMHost():
			hosts = append(hosts, name)
		case meta.IsToken():
			tokens = append(tokens, name)
		default:
			others = append(others, name)
		}
	}

	generated := make([]string, 0, len(hosts)+len(others)+len(tokens))
	for _, name := range append(hosts, others...) {
		adapter, _ := opts.Registry.Get(name)

		var keys []KeyRecord
		var known *AddressRecord
		if adapter.Meta().AddressType == chain.AddressTypeEOS {
			keys = []KeyRecord{{PrivKey: opts.EOSActiveWallet.WIF, Path: eosPath}}
			known = &AddressRecord{
				Symbol:      adapter.Meta().Symbol,
				Addr:        opts.EOSActiveWallet.Address,
				AccountName: adapter.Meta().DisplayName,
				Path:        eosPath,
			}
		} else {
			derived, err := wallet.DeriveKeys(wallet.DeriveKeysOpts{
				MasterSecret: opts.MasterSecret,
				Encoder:      adapter,
				Count:        uint32(count),
			})
			if err != nil {
				return nil, &ConfigurationError{Chain: name, Err: err}
			}
			keys = derived
		}

		asset := r.setDefaultAccount(name, adapter.Meta().DisplayName, keys)
		asset.Addresses = nil
		if known != nil {
			asset.Addresses = []AddressRecord{*known}
		}
		generated = append(generated, name)
	}

	for _, name := range tokens {
		adapter, _ := opts.Registry.Get(name)
		host, ok := r[adapter.Meta().HostChain]
		if !ok || len(host.Accounts) <= 0 {
			return nil, &ConfigurationError{Chain: name, Err: ErrHostChainMissing}
		}
		r.setDefaultAccount(name, adapter.Meta().DisplayName, nil)
		generated = append(generated, name)
	}

	// Every held token follows its host, regenerated or not.
	for name := range r {
		adapter, _ := opts.Registry.Get(name)
		if meta := adapter.Meta(); meta.IsToken() {
			r.syncToken(meta.HostChain, name, meta.Symbol)
		}
	}
	return generated, nil
}

// setDefaultAccount creates the asset if missing and overwrites the leading
// keys of its default account with the given ones.
func (r RawAssets) setDefaultAccount(name, displayName string, keys []KeyRecord) *RawAsset {
	asset, ok := r[name]
	if !ok || len(asset.Accounts) <= 0 {
		asset = &RawAsset{
			Accounts: []*Account{{Name: displayName, PrivKeys: keys}},
		}
		r[name] = asset
		return asset
	}

	def := asset.Accounts[0]
	def.Name = displayName
	def.Imported = false
	for i, k := range keys {
		if i < len(def.PrivKeys) {
			def.PrivKeys[i] = k
		} else {
			def.PrivKeys = append(def.PrivKeys, k)
		}
	}
	return asset
}

// syncToken makes the token default account mirror the host one. Tokens
// hold exactly one account.
func (r RawAssets) syncToken(hostName, tokenName, tokenSymbol string) {
	host, ok := r[hostName]
	token, ok2 := r[tokenName]
	if !ok || !ok2 || len(host.Accounts) <= 0 {
		return
	}

	name := ""
	if len(token.Accounts) > 0 {
		name = token.Accounts[0].Name
	}
	hostDefault := host.Accounts[0]
	token.Accounts = []*Account{{
		Name:     name,
		PrivKeys: append([]KeyRecord{}, hostDefault.PrivKeys...),
	}}
	token.ImportCount = 0

	if host.Addresses == nil || len(host.Addresses) < len(hostDefault.PrivKeys) {
		token.Addresses = nil
		return
	}
	token.Addresses = make([]AddressRecord, 0, len(hostDefault.PrivKeys))
	for _, a := range host.Addresses[:len(hostDefault.PrivKeys)] {
		token.Addresses = append(token.Addresses, AddressRecord{
			Symbol:      tokenSymbol,
			Addr:        a.Addr,
			AccountName: name,
			Path:        a.Path,
		})
	}
}

// SyncTokens re-aligns every held token of the given host.
func (r RawAssets) SyncTokens(registry *chain.Registry, hostName string) []string {
	synced := make([]string, 0)
	for _, name := range registry.TokensOf(hostName) {
		if _, ok := r[name]; !ok {
			continue
		}
		adapter, _ := registry.Get(name)
		r.syncToken(hostName, name, adapter.Meta().Symbol)
		synced = append(synced, name)
	}
	return synced
}

// SetAddresses sets the derived addresses of an asset. Addresses must follow
// the order of RawAsset.Keys.
func (r RawAssets) SetAddresses(name string, addresses []AddressRecord) error {
	asset, ok := r[name]
	if !ok {
		return &ValidationError{Field: name, Err: ErrAssetNotFound}
	}
	if len(addresses) != asset.KeyCount() {
		return fmt.Errorf("%s: got %d addresses for %d keys", name, len(addresses), asset.KeyCount())
	}
	asset.Addresses = addresses
	return nil
}

// AddAddressOpts is the struct given to RawAssets.AddAddress
type AddAddressOpts struct {
	Registry     *chain.Registry
	Name         string
	AccountIndex int
	MasterSecret []byte
}

// AddAddressResult ...
type AddAddressResult struct {
	Key      KeyRecord
	Address  AddressRecord
	Affected []string
}

// AddAddress derives the next key of the account at len(privKeys). Adding an
// address to a token or to its host always extends the host and every token
// riding on it.
func (r RawAssets) AddAddress(opts AddAddressOpts) (*AddAddressResult, error) {
	if opts.Registry == nil {
		return nil, &ConfigurationError{Chain: opts.Name, Err: fmt.Errorf("missing chain registry")}
	}
	if len(opts.MasterSecret) <= 0 {
		return nil, &ValidationError{Field: "masterSecret", Err: wallet.ErrNullMasterSecret}
	}
	adapter, err := opts.Registry.Get(opts.Name)
	if err != nil {
		return nil, &ConfigurationError{Chain: opts.Name, Err: err}
	}
	name := opts.Name
	if host := adapter.Meta().HostChain; host != "" {
		name = host
		if adapter, err = opts.Registry.Get(host); err != nil {
			return nil, &ConfigurationError{Chain: host, Err: err}
		}
	}
	if adapter.Meta().AddressType == chain.AddressTypeEOS {
		return nil, &ConfigurationError{Chain: name, Err: chain.ErrNoLocalDerivation}
	}

	asset, ok := r[name]
	if !ok {
		return nil, &ValidationError{Field: name, Err: ErrAssetNotFound}
	}
	if opts.AccountIndex < 0 || opts.AccountIndex >= len(asset.Accounts) {
		return nil, &ValidationError{Field: "accountIndex", Err: ErrAccountNotFound}
	}
	account := asset.Accounts[opts.AccountIndex]
	if account.Imported {
		return nil, &ValidationError{
			Field: "accountIndex", Err: fmt.Errorf("can not derive keys into imported account %q", account.Name),
		}
	}

	next := len(account.PrivKeys)
	keys, err := wallet.DeriveKeys(wallet.DeriveKeysOpts{
		MasterSecret: opts.MasterSecret,
		Encoder:      adapter,
		Account:      uint32(opts.AccountIndex),
		StartIndex:   uint32(next),
		Count:        1,
	})
	if err != nil {
		return nil, &ConfigurationError{Chain: name, Err: err}
	}
	addr, err := adapter.AddressFromPrivKey(keys[0].PrivKey)
	if err != nil {
		return nil, &ConfigurationError{Chain: name, Err: err}
	}

	record := AddressRecord{
		Symbol:      adapter.Meta().Symbol,
		Addr:        addr,
		AccountName: account.Name,
		Path:        keys[0].Path,
	}
	pos := asset.accountOffset(opts.AccountIndex) + next
	account.PrivKeys = append(account.PrivKeys, keys[0])
	if pos > len(asset.Addresses) {
		asset.Addresses = nil
	}
	if asset.Addresses != nil {
		asset.Addresses = append(asset.Addresses, AddressRecord{})
		copy(asset.Addresses[pos+1:], asset.Addresses[pos:])
		asset.Addresses[pos] = record
	}

	affected := append([]string{name}, r.SyncTokens(opts.Registry, name)...)
	return &AddAddressResult{Key: keys[0], Address: record, Affected: affected}, nil
}

// ImportPair is a key to import, with its address when already known.
type ImportPair struct {
	Addr    string `json:"addr"`
	PrivKey string `json:"privKey"`
}

// ImportKeysOpts is the struct given to RawAssets.ImportKeys
type ImportKeysOpts struct {
	Registry *chain.Registry
	Name     string
	Pairs    []ImportPair
}

// ImportResult ...
type ImportResult struct {
	AccountName       string          `json:"accountName,omitempty"`
	ImportedAddrCount int             `json:"importedAddrCount"`
	Addresses         []AddressRecord `json:"addresses,omitempty"`
}

// ImportKeys adds the given keys as a new import account. Keys already held
// anywhere under the chain are skipped. Every remaining key is validated
// before the tree is touched: one bad key aborts the whole import.
func (r RawAssets) ImportKeys(opts ImportKeysOpts) (*ImportResult, error) {
	if opts.Registry == nil {
		return nil, &ConfigurationError{Chain: opts.Name, Err: fmt.Errorf("missing chain registry")}
	}
	if len(opts.Pairs) <= 0 {
		return nil, &ValidationError{Field: "privKeys", Err: ErrNoKeysToImport}
	}
	adapter, err := opts.Registry.Get(opts.Name)
	if err != nil {
		return nil, &ConfigurationError{Chain: opts.Name, Err: err}
	}
	meta := adapter.Meta()
	if meta.IsToken() {
		return nil, &ValidationError{Field: opts.Name, Err: ErrTokenImport}
	}
	if meta.AddressType == chain.AddressTypeEOS {
		return nil, &ConfigurationError{Chain: opts.Name, Err: chain.ErrNoLocalDerivation}
	}
	asset, ok := r[opts.Name]
	if !ok {
		return nil, &ValidationError{Field: opts.Name, Err: ErrAssetNotFound}
	}

	seen := make(map[string]bool)
	candidates := make([]ImportPair, 0, len(opts.Pairs))
	for i, p := range opts.Pairs {
		privKey := strings.TrimSpace(p.PrivKey)
		if privKey == "" {
			return nil, &InvalidKeyError{Chain: opts.Name, Index: i, Err: chain.ErrInvalidPrivKey}
		}
		if seen[privKey] || asset.hasPrivKey(privKey) {
			continue
		}
		if err := adapter.ValidatePrivKey(privKey); err != nil {
			return nil, &InvalidKeyError{Chain: opts.Name, Index: i, Err: err}
		}
		addr, err := adapter.AddressFromPrivKey(privKey)
		if err != nil {
			return nil, &InvalidKeyError{Chain: opts.Name, Index: i, Err: err}
		}
		if supplied := strings.TrimSpace(p.Addr); supplied != "" &&
			!chain.SameAddress(supplied, addr, meta.AddressType, meta.Testnet) {
			return nil, &InvalidKeyError{Chain: opts.Name, Index: i, Err: ErrAddressMismatch}
		}
		seen[privKey] = true
		candidates = append(candidates, ImportPair{Addr: addr, PrivKey: privKey})
	}
	if len(candidates) <= 0 {
		return &ImportResult{}, nil
	}

	accountNdx := asset.ImportCount + 1
	account := &Account{
		Name:     fmt.Sprintf("Import #%d %s", accountNdx, meta.DisplayName),
		Imported: true,
		PrivKeys: make([]KeyRecord, 0, len(candidates)),
	}
	addresses := make([]AddressRecord, 0, len(candidates))
	for i, c := range candidates {
		path := wallet.ImportPath(adapter.DerivationCoinType(), uint32(accountNdx), uint32(i))
		account.PrivKeys = append(account.PrivKeys, KeyRecord{PrivKey: c.PrivKey, Path: path})
		addresses = append(addresses, AddressRecord{
			Symbol:      meta.Symbol,
			Addr:        c.Addr,
			AccountName: account.Name,
			Path:        path,
		})
	}

	asset.ImportCount = accountNdx
	asset.Accounts = append(asset.Accounts, account)
	if asset.Addresses != nil {
		asset.Addresses = append(asset.Addresses, addresses...)
	}

	return &ImportResult{
		AccountName:       account.Name,
		ImportedAddrCount: len(candidates),
		Addresses:         addresses,
	}, nil
}

// RemoveResult ...
type RemoveResult struct {
	RemovedAddrCount    int `json:"removedAddrCount"`
	RemovedAccountCount int `json:"removedAccountCount"`
}

// RemoveAccounts removes the named import accounts. Default accounts are
// never removed, even when named.
func (r RawAssets) RemoveAccounts(name string, accountNames []string) (*RemoveResult, error) {
	if len(accountNames) <= 0 {
		return nil, &ValidationError{Field: "accountNames", Err: ErrNoAccountsToRemove}
	}
	asset, ok := r[name]
	if !ok {
		return nil, &ValidationError{Field: name, Err: ErrAssetNotFound}
	}

	toRemove := make(map[string]bool, len(accountNames))
	for _, n := range accountNames {
		toRemove[n] = true
	}

	res := &RemoveResult{}
	accounts := make([]*Account, 0, len(asset.Accounts))
	var addresses []AddressRecord
	if asset.Addresses != nil {
		addresses = make([]AddressRecord, 0, len(asset.Addresses))
	}
	offset := 0
	for _, account := range asset.Accounts {
		n := len(account.PrivKeys)
		end := offset + n
		if asset.Addresses != nil && end > len(asset.Addresses) {
			end = len(asset.Addresses)
		}

		if account.Imported && toRemove[account.Name] {
			res.RemovedAccountCount++
			res.RemovedAddrCount += n
		} else {
			accounts = append(accounts, account)
			if addresses != nil && offset < end {
				addresses = append(addresses, asset.Addresses[offset:end]...)
			}
		}
		offset += n
	}

	asset.Accounts = accounts
	asset.Addresses = addresses
	return res, nil
}
