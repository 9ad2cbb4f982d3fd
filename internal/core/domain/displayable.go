package domain

import (
	"time"

	"github.com/scp-network/scpx-wallet/pkg/chain"
	"github.com/shopspring/decimal"
)

// UnconfirmedBlockNo is the block number of a transaction not yet mined.
const UnconfirmedBlockNo = -1

// EnrichedTx is a fully resolved transaction as seen by one wallet address.
type EnrichedTx struct {
	Txid             string          `json:"txid"`
	Date             time.Time       `json:"date"`
	IsIncoming       bool            `json:"isIncoming"`
	Value            decimal.Decimal `json:"value"`
	ToOrFrom         string          `json:"toOrFrom"`
	// AccountTo and AccountFrom are the counterparty addresses, lowercase
	// for EVM txs. For token transfers AccountTo is the token recipient.
	AccountTo        string          `json:"account_to"`
	AccountFrom      string          `json:"account_from"`
	BlockNo          int64           `json:"block_no"`
	Fees             decimal.Decimal `json:"fees"`
	ERC20            string          `json:"erc20,omitempty"`
	ERC20Contract    string          `json:"erc20_contract,omitempty"`
	TxFailedReverted bool            `json:"txFailedReverted"`
	IsMinimal        bool            `json:"isMinimal"`
	FromCache        bool            `json:"fromCache,omitempty"`
	AddedToCacheAt   int64           `json:"addedToCacheAt,omitempty"`
}

// IsConfirmed returns whether the transaction is mined.
func (t EnrichedTx) IsConfirmed() bool {
	return t.BlockNo != UnconfirmedBlockNo
}

// Utxo is an unspent output of a UTXO chain address.
type Utxo struct {
	Txid          string          `json:"txid"`
	Vout          uint32          `json:"vout"`
	Value         decimal.Decimal `json:"value"`
	Confirmations int64           `json:"confirmations"`
}

// DisplayableAddress is the public view of one vault address.
type DisplayableAddress struct {
	Symbol             string          `json:"symbol"`
	Addr               string          `json:"addr"`
	AccountName        string          `json:"accountName"`
	Path               string          `json:"path"`
	Balance            decimal.Decimal `json:"balance"`
	UnconfirmedBalance decimal.Decimal `json:"unconfirmedBalance"`
	Txs                []EnrichedTx    `json:"txs"`
	Utxos              []Utxo          `json:"utxos"`
	TotalTxCount       int             `json:"totalTxCount"`
	CappedTxs          bool            `json:"cappedTxs,omitempty"`
	LastAddrFetchAt    *time.Time      `json:"lastAddrFetchAt,omitempty"`
}

// Clone returns a copy that shares no slice with the receiver.
func (a DisplayableAddress) Clone() DisplayableAddress {
	clone := a
	clone.Txs = append([]EnrichedTx{}, a.Txs...)
	clone.Utxos = append([]Utxo{}, a.Utxos...)
	if a.LastAddrFetchAt != nil {
		at := *a.LastAddrFetchAt
		clone.LastAddrFetchAt = &at
	}
	return clone
}

// HasConfirmedTx returns whether txid is already known as mined.
func (a DisplayableAddress) HasConfirmedTx(txid string) bool {
	for _, tx := range a.Txs {
		if tx.Txid == txid && tx.IsConfirmed() && !tx.IsMinimal {
			return true
		}
	}
	return false
}

// DisplayableAsset is the public view of a raw asset: chain metadata and
// addresses, never keys.
type DisplayableAsset struct {
	chain.Meta
	Addresses         []DisplayableAddress `json:"addresses"`
	LocalTxs          []EnrichedTx         `json:"local_txs"`
	LastAssetUpdateAt *time.Time           `json:"lastAssetUpdateAt,omitempty"`
}

// Clone returns a deep copy of the asset.
func (a DisplayableAsset) Clone() DisplayableAsset {
	clone := a
	clone.Addresses = make([]DisplayableAddress, 0, len(a.Addresses))
	for _, addr := range a.Addresses {
		clone.Addresses = append(clone.Addresses, addr.Clone())
	}
	clone.LocalTxs = append([]EnrichedTx{}, a.LocalTxs...)
	if a.LastAssetUpdateAt != nil {
		at := *a.LastAssetUpdateAt
		clone.LastAssetUpdateAt = &at
	}
	return clone
}

// OwnAddresses returns the addresses of the asset.
func (a DisplayableAsset) OwnAddresses() []string {
	addrs := make([]string, 0, len(a.Addresses))
	for _, addr := range a.Addresses {
		addrs = append(addrs, addr.Addr)
	}
	return addrs
}

// TotalBalance sums the confirmed balance of every address.
func (a DisplayableAsset) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, addr := range a.Addresses {
		total = total.Add(addr.Balance)
	}
	return total
}

// ProjectAssets derives the displayable view of the raw tree. Balances, txs
// and update markers of addresses already present in previous are carried
// over, matched by symbol and address.
func ProjectAssets(
	raw RawAssets, registry *chain.Registry, previous []DisplayableAsset,
) ([]DisplayableAsset, error) {
	names := raw.Names()
	registry.Sort(names)

	assets := make([]DisplayableAsset, 0, len(names))
	for _, name := range names {
		adapter, err := registry.Get(name)
		if err != nil {
			return nil, &ConfigurationError{Chain: name, Err: err}
		}
		meta := adapter.Meta()

		asset := DisplayableAsset{
			Meta:      meta,
			Addresses: make([]DisplayableAddress, 0, len(raw[name].Addresses)),
			LocalTxs:  []EnrichedTx{},
		}
		for _, rec := range raw[name].Addresses {
			asset.Addresses = append(asset.Addresses, DisplayableAddress{
				Symbol:      meta.Symbol,
				Addr:        rec.Addr,
				AccountName: rec.AccountName,
				Path:        rec.Path,
				Txs:         []EnrichedTx{},
				Utxos:       []Utxo{},
			})
		}
		assets = append(assets, asset)
	}
	return MergeAssets(assets, previous), nil
}

// MergeAssets returns a copy of assets where the sync data of the matching
// assets and addresses in previous is carried over. The layout, ie. the
// asset set, address order, account names and paths, always comes from
// assets. Neither slice is modified.
func MergeAssets(assets, previous []DisplayableAsset) []DisplayableAsset {
	prevAssets := make(map[string]DisplayableAsset, len(previous))
	prevAddrs := make(map[string]DisplayableAddress)
	for _, a := range previous {
		prevAssets[a.Symbol] = a
		for _, addr := range a.Addresses {
			prevAddrs[a.Symbol+"/"+addr.Addr] = addr
		}
	}

	merged := make([]DisplayableAsset, 0, len(assets))
	for _, a := range assets {
		asset := a.Clone()
		if prev, ok := prevAssets[asset.Symbol]; ok {
			carried := prev.Clone()
			asset.LocalTxs = carried.LocalTxs
			asset.LastAssetUpdateAt = carried.LastAssetUpdateAt
		}
		for i, addr := range asset.Addresses {
			prev, ok := prevAddrs[asset.Symbol+"/"+addr.Addr]
			if !ok {
				continue
			}
			carried := prev.Clone()
			carried.Symbol = addr.Symbol
			carried.Addr = addr.Addr
			carried.AccountName = addr.AccountName
			carried.Path = addr.Path
			asset.Addresses[i] = carried
		}
		merged = append(merged, asset)
	}
	return merged
}
