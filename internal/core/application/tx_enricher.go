package application

import (
	"context"
	"math/big"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	"github.com/scp-network/scpx-wallet/pkg/chain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxTxHistory is the max number of txs kept per address.
	DefaultMaxTxHistory = 100
	enrichConcurrency   = 8
)

// EnrichOpts describes the transaction to resolve and the point of view to
// resolve it from.
type EnrichOpts struct {
	Asset chain.Meta
	Owner string
	Txid  string
	// OwnAddresses are the addresses of the asset held by the wallet.
	OwnAddresses []string
}

// EnrichBatchOpts describes the history of one address to resolve.
type EnrichBatchOpts struct {
	Asset        chain.Meta
	Owner        string
	Txids        []string
	OwnAddresses []string
	MaxTxs       int
}

// TxEnricher resolves raw transaction ids into EnrichedTx records. EVM
// family transactions are cached per owner and a confirmed record, once
// cached, is never fetched again.
type TxEnricher struct {
	registry *chain.Registry
	resolver ports.ProviderResolver
	cache    domain.TxCache
}

func NewTxEnricher(
	registry *chain.Registry, resolver ports.ProviderResolver, cache domain.TxCache,
) *TxEnricher {
	return &TxEnricher{registry, resolver, cache}
}

// Enrich returns the resolved transaction, or nil if it is not relevant for
// the asset, ie. a host chain tx seen while refreshing one of its tokens.
func (e *TxEnricher) Enrich(ctx context.Context, opts EnrichOpts) (*domain.EnrichedTx, error) {
	if opts.Asset.Type == chain.TypeUTXO {
		return e.enrichUtxo(ctx, opts)
	}

	family, err := e.family(opts.Asset)
	if err != nil {
		return nil, err
	}
	key := domain.TxCacheKey{Family: family, Owner: opts.Owner, Txid: opts.Txid}

	cached, err := e.cache.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warnf("tx cache: failed to read %s, fetching from provider", key)
	}
	if cached != nil && cached.IsConfirmed() {
		txCacheHits.WithLabelValues(family).Inc()
		log.Debugf("tx cache: hit %s", key)
		tx := *cached
		tx.FromCache = true
		return filterForAsset(opts.Asset, &tx), nil
	}
	txCacheMisses.WithLabelValues(family).Inc()

	tx, err := e.fetchEVM(ctx, opts)
	if err != nil {
		if cached != nil {
			log.WithError(err).Debugf("tx cache: serving stale unconfirmed %s", key)
			stale := *cached
			stale.FromCache = true
			return filterForAsset(opts.Asset, &stale), nil
		}
		return nil, err
	}

	tx.AddedToCacheAt = time.Now().UnixMilli()
	stored, err := e.cache.Put(ctx, key, *tx)
	if err != nil {
		log.WithError(&domain.CacheWriteError{Key: key.String(), Err: err}).Warn("tx cache")
	} else if !stored {
		log.Debugf("tx cache: %s already confirmed, entry kept", key)
	}

	return filterForAsset(opts.Asset, tx), nil
}

// EnrichAll resolves the txs of one address concurrently. Txs failing to
// resolve, or not concerning the asset, are logged and skipped. The result
// is sorted by date, newest first, and only then capped to MaxTxs. The
// returned count is the number of relevant txs before the cap.
func (e *TxEnricher) EnrichAll(
	ctx context.Context, opts EnrichBatchOpts,
) ([]domain.EnrichedTx, int, error) {
	maxTxs := opts.MaxTxs
	if maxTxs <= 0 {
		maxTxs = DefaultMaxTxHistory
	}

	results := make([]*domain.EnrichedTx, len(opts.Txids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i, txid := range opts.Txids {
		i, txid := i, txid
		g.Go(func() error {
			tx, err := e.Enrich(gctx, EnrichOpts{
				Asset:        opts.Asset,
				Owner:        opts.Owner,
				Txid:         txid,
				OwnAddresses: opts.OwnAddresses,
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.WithError(err).Warnf("%s: skipping tx %s", opts.Asset.Symbol, txid)
				return nil
			}
			results[i] = tx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	txs := make([]domain.EnrichedTx, 0, len(results))
	for _, tx := range results {
		if tx != nil {
			txs = append(txs, *tx)
		}
	}
	total := len(txs)
	txs, _ = CapTxs(txs, maxTxs)
	return txs, total, nil
}

// CapTxs sorts txs with SortTxs and keeps the most recent max of them.
func CapTxs(txs []domain.EnrichedTx, max int) ([]domain.EnrichedTx, bool) {
	SortTxs(txs)
	if max <= 0 || len(txs) <= max {
		return txs, false
	}
	return txs[:max], true
}

// SortTxs orders txs by date, newest first. Unconfirmed txs come before
// confirmed ones with the same date.
func SortTxs(txs []domain.EnrichedTx) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return !txs[i].IsConfirmed() && txs[j].IsConfirmed()
	})
}

// family returns the symbol shared by an EVM host and its tokens.
func (e *TxEnricher) family(asset chain.Meta) (string, error) {
	if !asset.IsToken() {
		return asset.Symbol, nil
	}
	host, err := e.registry.Get(asset.HostChain)
	if err != nil {
		return "", &domain.ConfigurationError{Chain: asset.Name, Err: err}
	}
	return host.Meta().Symbol, nil
}

func (e *TxEnricher) provider(asset chain.Meta) (ports.ChainDataProvider, error) {
	provider, err := e.resolver.ProviderFor(asset.Name)
	if err != nil {
		return nil, &domain.ConfigurationError{Chain: asset.Name, Err: err}
	}
	return provider, nil
}

func (e *TxEnricher) fetchEVM(ctx context.Context, opts EnrichOpts) (*domain.EnrichedTx, error) {
	provider, err := e.provider(opts.Asset)
	if err != nil {
		return nil, err
	}

	detail, err := provider.GetTxDetail(ctx, opts.Txid)
	if err != nil {
		return nil, &domain.ProviderError{Chain: opts.Asset.Name, Op: "tx_detail", Err: err}
	}

	var receipt *ports.TxReceipt
	date := time.Now()
	if detail.BlockNumber != domain.UnconfirmedBlockNo {
		receipt, err = provider.GetTxReceipt(ctx, opts.Txid)
		if err != nil {
			return nil, &domain.ProviderError{Chain: opts.Asset.Name, Op: "tx_receipt", Err: err}
		}
		timestamp := detail.Timestamp
		if timestamp <= 0 {
			block, err := provider.GetBlock(ctx, detail.BlockNumber)
			if err != nil {
				return nil, &domain.ProviderError{Chain: opts.Asset.Name, Op: "block", Err: err}
			}
			timestamp = block.Timestamp
		}
		date = time.Unix(timestamp, 0).UTC()
	}

	hostDecimals := int32(18)
	if opts.Asset.IsToken() {
		if host, err := e.registry.Get(opts.Asset.HostChain); err == nil {
			hostDecimals = host.Meta().Decimals
		}
	} else {
		hostDecimals = opts.Asset.Decimals
	}

	own := addressSet(opts.OwnAddresses)
	from := strings.ToLower(detail.From)
	to := strings.ToLower(detail.To)
	value := toDecimal(detail.Value, hostDecimals)

	tx := &domain.EnrichedTx{
		Txid:    opts.Txid,
		Date:    date,
		BlockNo: detail.BlockNumber,
		Fees:    decimal.Zero,
	}

	if token := e.tokenByContract(opts.Asset, to); token != nil {
		if recipient, amount, err := chain.DecodeTransfer(detail.Input); err == nil {
			tx.ERC20 = token.Symbol
			tx.ERC20Contract = token.ERC20Contract
			to = recipient
			value = toDecimal(amount, token.Decimals)
		}
	}

	outgoing := own[from]
	tx.IsIncoming = !outgoing
	tx.Value = value
	tx.AccountFrom = from
	tx.AccountTo = to
	if tx.IsIncoming {
		tx.ToOrFrom = from
	} else {
		tx.ToOrFrom = to
	}

	if receipt != nil {
		tx.TxFailedReverted = receipt.Status != 1
	}
	if outgoing {
		gasUsed := detail.Gas
		if receipt != nil && receipt.GasUsed > 0 {
			gasUsed = receipt.GasUsed
		}
		if detail.GasPrice != nil {
			fee := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), detail.GasPrice)
			tx.Fees = toDecimal(fee, hostDecimals)
		}
	}
	return tx, nil
}

// tokenByContract returns the token of the asset's family deployed at the
// given contract address, if any.
func (e *TxEnricher) tokenByContract(asset chain.Meta, contract string) *chain.Meta {
	if contract == "" {
		return nil
	}
	host := asset.Name
	if asset.IsToken() {
		host = asset.HostChain
	}
	for _, name := range e.registry.TokensOf(host) {
		adapter, err := e.registry.Get(name)
		if err != nil {
			continue
		}
		meta := adapter.Meta()
		if strings.EqualFold(meta.ERC20Contract, contract) {
			return &meta
		}
	}
	return nil
}

// enrichUtxo classifies a UTXO tx by comparing the inputs and outputs
// belonging to the wallet. UTXO txs are not cached.
func (e *TxEnricher) enrichUtxo(ctx context.Context, opts EnrichOpts) (*domain.EnrichedTx, error) {
	provider, err := e.provider(opts.Asset)
	if err != nil {
		return nil, err
	}
	detail, err := provider.GetTxDetail(ctx, opts.Txid)
	if err != nil {
		return nil, &domain.ProviderError{Chain: opts.Asset.Name, Op: "tx_detail", Err: err}
	}

	own := addressSet(opts.OwnAddresses)
	ownIn, ownOut, otherOut := big.NewInt(0), big.NewInt(0), big.NewInt(0)
	var firstSender, firstOwnInput, firstRecipient, firstOwnOutput string
	for _, in := range detail.Inputs {
		addr := strings.ToLower(in.Addr)
		if own[addr] {
			if firstOwnInput == "" {
				firstOwnInput = in.Addr
			}
			if in.Value != nil {
				ownIn.Add(ownIn, in.Value)
			}
		} else if firstSender == "" {
			firstSender = in.Addr
		}
	}
	for _, out := range detail.Outputs {
		addr := strings.ToLower(out.Addr)
		value := out.Value
		if value == nil {
			value = big.NewInt(0)
		}
		if own[addr] {
			if firstOwnOutput == "" {
				firstOwnOutput = out.Addr
			}
			ownOut.Add(ownOut, value)
		} else {
			if firstRecipient == "" {
				firstRecipient = out.Addr
			}
			otherOut.Add(otherOut, value)
		}
	}

	date := time.Now()
	if detail.Timestamp > 0 {
		date = time.Unix(detail.Timestamp, 0).UTC()
	}
	tx := &domain.EnrichedTx{
		Txid:    opts.Txid,
		Date:    date,
		BlockNo: detail.BlockNumber,
		Fees:    decimal.Zero,
	}

	if ownIn.Sign() == 0 {
		tx.IsIncoming = true
		tx.Value = toDecimal(ownOut, opts.Asset.Decimals)
		tx.ToOrFrom = firstSender
		tx.AccountFrom = firstSender
		tx.AccountTo = firstOwnOutput
		return tx, nil
	}

	tx.Value = toDecimal(otherOut, opts.Asset.Decimals)
	tx.ToOrFrom = firstRecipient
	if firstRecipient == "" {
		// sent to self
		tx.ToOrFrom = firstOwnOutput
	}
	tx.AccountFrom = firstOwnInput
	tx.AccountTo = tx.ToOrFrom
	tx.Fees = toDecimal(detail.Fee, opts.Asset.Decimals)
	return tx, nil
}

// filterForAsset drops host txs that do not concern the token being
// refreshed.
func filterForAsset(asset chain.Meta, tx *domain.EnrichedTx) *domain.EnrichedTx {
	if asset.IsToken() && tx.ERC20 != asset.Symbol {
		return nil
	}
	return tx
}

func addressSet(addrs []string) map[string]bool {
	set := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		set[strings.ToLower(a)] = true
	}
	return set
}

func toDecimal(v *big.Int, decimals int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -decimals)
}
