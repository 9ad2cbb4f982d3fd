package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ActionSetOwner        = "WCORE_SET_OWNER"
	ActionSetAssets       = "WCORE_SET_ASSETS"
	ActionMergeAssets     = "WCORE_MERGE_ASSETS"
	ActionSetAssetsRaw    = "WCORE_SET_ASSETS_RAW"
	ActionSetAddressFull  = "WCORE_SET_ADDRESS_FULL"
	ActionSetEnrichedTxs  = "WCORE_SET_ENRICHED_TXS"
	ActionSetAssetUpdated = "WCORE_SET_ASSET_UPDATED"
)

// WalletState is an immutable snapshot of the wallet. Actions never modify
// a published snapshot, they return a new one sharing untouched data.
type WalletState struct {
	Owner     string
	Assets    []DisplayableAsset
	AssetsRaw string
	Version   uint64
}

// AssetBySymbol returns the asset with the given symbol.
func (s WalletState) AssetBySymbol(symbol string) (DisplayableAsset, bool) {
	for _, a := range s.Assets {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return DisplayableAsset{}, false
}

// AssetByName returns the asset with the given chain name.
func (s WalletState) AssetByName(name string) (DisplayableAsset, bool) {
	for _, a := range s.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return DisplayableAsset{}, false
}

// updateAsset returns a new state where the asset with the given symbol is
// replaced by fn applied to a clone of it.
func (s WalletState) updateAsset(symbol string, fn func(*DisplayableAsset)) WalletState {
	for i, a := range s.Assets {
		if a.Symbol != symbol {
			continue
		}
		assets := make([]DisplayableAsset, len(s.Assets))
		copy(assets, s.Assets)
		clone := a.Clone()
		fn(&clone)
		assets[i] = clone
		s.Assets = assets
		return s
	}
	return s
}

func (a *DisplayableAsset) updateAddress(addr string, fn func(*DisplayableAddress)) {
	for i := range a.Addresses {
		if a.Addresses[i].Addr == addr {
			fn(&a.Addresses[i])
		}
	}
}

// Action is a named transition of the wallet state.
type Action interface {
	Type() string
	Apply(WalletState) WalletState
}

// SetOwner ...
type SetOwner struct {
	Owner string
}

func (a SetOwner) Type() string { return ActionSetOwner }

func (a SetOwner) Apply(s WalletState) WalletState {
	s.Owner = a.Owner
	return s
}

// SetAssets replaces the displayable assets.
type SetAssets struct {
	Assets []DisplayableAsset
}

func (a SetAssets) Type() string { return ActionSetAssets }

func (a SetAssets) Apply(s WalletState) WalletState {
	assets := make([]DisplayableAsset, 0, len(a.Assets))
	for _, asset := range a.Assets {
		assets = append(assets, asset.Clone())
	}
	s.Assets = assets
	return s
}

// MergeAssetsLayout replaces the asset layout while keeping the sync data
// found in the state it is applied to, so that results dispatched after the
// layout was computed are not lost.
type MergeAssetsLayout struct {
	Assets []DisplayableAsset
}

func (a MergeAssetsLayout) Type() string { return ActionMergeAssets }

func (a MergeAssetsLayout) Apply(s WalletState) WalletState {
	s.Assets = MergeAssets(a.Assets, s.Assets)
	return s
}

// SetAssetsRaw replaces the encrypted vault blob.
type SetAssetsRaw struct {
	Blob string
}

func (a SetAssetsRaw) Type() string { return ActionSetAssetsRaw }

func (a SetAssetsRaw) Apply(s WalletState) WalletState {
	s.AssetsRaw = a.Blob
	return s
}

// SetAddressFull sets the balance and fetch results of one address.
type SetAddressFull struct {
	Symbol             string
	Addr               string
	Balance            decimal.Decimal
	UnconfirmedBalance decimal.Decimal
	TotalTxCount       int
	Utxos              []Utxo
	FetchedAt          time.Time
}

func (a SetAddressFull) Type() string { return ActionSetAddressFull }

func (a SetAddressFull) Apply(s WalletState) WalletState {
	return s.updateAsset(a.Symbol, func(asset *DisplayableAsset) {
		asset.updateAddress(a.Addr, func(addr *DisplayableAddress) {
			at := a.FetchedAt
			addr.Balance = a.Balance
			addr.UnconfirmedBalance = a.UnconfirmedBalance
			addr.TotalTxCount = a.TotalTxCount
			if a.Utxos != nil {
				addr.Utxos = append([]Utxo{}, a.Utxos...)
			}
			addr.LastAddrFetchAt = &at
		})
	})
}

// SetEnrichedTxs replaces the tx history of one address. Txs must already be
// sorted and capped.
type SetEnrichedTxs struct {
	Symbol string
	Addr   string
	Txs    []EnrichedTx
	Capped bool
}

func (a SetEnrichedTxs) Type() string { return ActionSetEnrichedTxs }

func (a SetEnrichedTxs) Apply(s WalletState) WalletState {
	return s.updateAsset(a.Symbol, func(asset *DisplayableAsset) {
		asset.updateAddress(a.Addr, func(addr *DisplayableAddress) {
			addr.Txs = append([]EnrichedTx{}, a.Txs...)
			addr.CappedTxs = a.Capped
		})
	})
}

// SetAssetUpdated sets (or resets, with a nil At) the completion marker of
// an asset refresh.
type SetAssetUpdated struct {
	Symbol string
	At     *time.Time
}

func (a SetAssetUpdated) Type() string { return ActionSetAssetUpdated }

func (a SetAssetUpdated) Apply(s WalletState) WalletState {
	return s.updateAsset(a.Symbol, func(asset *DisplayableAsset) {
		if a.At == nil {
			asset.LastAssetUpdateAt = nil
			return
		}
		at := *a.At
		asset.LastAssetUpdateAt = &at
	})
}
