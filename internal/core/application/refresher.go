package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	"github.com/scp-network/scpx-wallet/pkg/chain"
	"golang.org/x/sync/errgroup"
)

const addrConcurrency = 4

// assetRefresher fetches the balances and histories of the addresses of an
// asset and turns them into state actions.
type assetRefresher struct {
	resolver ports.ProviderResolver
	enricher *TxEnricher
	maxTxs   int
}

func newAssetRefresher(
	resolver ports.ProviderResolver, enricher *TxEnricher, maxTxs int,
) *assetRefresher {
	if maxTxs <= 0 {
		maxTxs = DefaultMaxTxHistory
	}
	return &assetRefresher{resolver, enricher, maxTxs}
}

// refresh returns the actions updating the given asset. Addresses whose
// fetch fails are skipped. The asset is marked as updated when it has no
// address, when at least one address succeeded or when no provider is
// configured for its chain.
func (r *assetRefresher) refresh(
	ctx context.Context, owner string, asset domain.DisplayableAsset,
) []domain.Action {
	provider, err := r.resolver.ProviderFor(asset.Name)
	if err != nil {
		log.WithError(err).Warnf("%s: no data provider, asset not refreshed", asset.Symbol)
		now := time.Now()
		return []domain.Action{domain.SetAssetUpdated{Symbol: asset.Symbol, At: &now}}
	}

	ownAddrs := asset.OwnAddresses()

	perAddr := make([][]domain.Action, len(asset.Addresses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(addrConcurrency)
	for i, addr := range asset.Addresses {
		i, addr := i, addr
		g.Go(func() error {
			actions, err := r.refreshAddress(gctx, provider, owner, asset.Meta, addr, ownAddrs)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.WithError(err).Warnf("%s: skipping address %s", asset.Symbol, addr.Addr)
				return nil
			}
			perAddr[i] = actions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Warnf("%s: refresh interrupted", asset.Symbol)
		return nil
	}

	actions := make([]domain.Action, 0)
	succeeded := 0
	for _, a := range perAddr {
		if a != nil {
			succeeded++
			actions = append(actions, a...)
		}
	}
	if len(asset.Addresses) == 0 || succeeded > 0 {
		now := time.Now()
		actions = append(actions, domain.SetAssetUpdated{Symbol: asset.Symbol, At: &now})
	}
	return actions
}

func (r *assetRefresher) refreshAddress(
	ctx context.Context, provider ports.ChainDataProvider, owner string,
	meta chain.Meta, addr domain.DisplayableAddress,
	ownAddrs []string,
) ([]domain.Action, error) {
	balance, err := provider.GetBalance(ctx, addr.Addr)
	if err != nil {
		providerErrors.WithLabelValues(meta.Name, "balance").Inc()
		return nil, &domain.ProviderError{Chain: meta.Name, Address: addr.Addr, Op: "balance", Err: err}
	}

	txids, err := provider.GetTxIds(ctx, addr.Addr, ports.RangeHint{PageSize: r.maxTxs})
	if err != nil {
		providerErrors.WithLabelValues(meta.Name, "txids").Inc()
		return nil, &domain.ProviderError{Chain: meta.Name, Address: addr.Addr, Op: "txids", Err: err}
	}

	var utxos []domain.Utxo
	if up, ok := provider.(ports.UtxoProvider); ok && meta.Type == chain.TypeUTXO {
		list, err := up.GetUtxos(ctx, addr.Addr)
		if err != nil {
			providerErrors.WithLabelValues(meta.Name, "utxos").Inc()
			return nil, &domain.ProviderError{Chain: meta.Name, Address: addr.Addr, Op: "utxos", Err: err}
		}
		utxos = make([]domain.Utxo, 0, len(list))
		for _, u := range list {
			utxos = append(utxos, domain.Utxo{
				Txid:          u.Txid,
				Vout:          u.Vout,
				Value:         toDecimal(u.Value, meta.Decimals),
				Confirmations: u.Confirmations,
			})
		}
	}

	// Confirmed txs already in the history are not resolved again.
	known := make([]domain.EnrichedTx, 0)
	fresh := make([]string, 0, len(txids))
	for _, txid := range txids {
		if addr.HasConfirmedTx(txid) {
			for _, tx := range addr.Txs {
				if tx.Txid == txid {
					known = append(known, tx)
					break
				}
			}
			continue
		}
		fresh = append(fresh, txid)
	}

	txs, freshTotal, err := r.enricher.EnrichAll(ctx, EnrichBatchOpts{
		Asset:        meta,
		Owner:        owner,
		Txids:        fresh,
		OwnAddresses: ownAddrs,
		MaxTxs:       r.maxTxs,
	})
	if err != nil {
		return nil, err
	}
	total := freshTotal + len(known)
	txs, capped := CapTxs(append(txs, known...), r.maxTxs)

	return []domain.Action{
		domain.SetAddressFull{
			Symbol:             meta.Symbol,
			Addr:               addr.Addr,
			Balance:            toDecimal(balance.Confirmed, meta.Decimals),
			UnconfirmedBalance: toDecimal(balance.Unconfirmed, meta.Decimals),
			TotalTxCount:       total,
			Utxos:              utxos,
			FetchedAt:          time.Now(),
		},
		domain.SetEnrichedTxs{
			Symbol: meta.Symbol,
			Addr:   addr.Addr,
			Txs:    txs,
			Capped: capped,
		},
	}, nil
}
