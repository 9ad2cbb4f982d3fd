package application

import (
	"context"

	"github.com/scp-network/scpx-wallet/internal/core/domain"
	"github.com/scp-network/scpx-wallet/pkg/chain"
	"golang.org/x/sync/errgroup"
)

type addressJob struct {
	symbol string
	pos    int
	key    domain.AccountKey
}

type addressResult struct {
	symbol string
	pos    int
	record domain.AddressRecord
}

// fillAddresses computes the addresses of every asset of the tree that has
// none, using a fixed pool of workers. Results are grouped back by symbol
// and kept in key order.
func fillAddresses(
	ctx context.Context, registry *chain.Registry, raw domain.RawAssets, workers int,
) error {
	if workers <= 0 {
		workers = 1
	}

	adapters := make(map[string]chain.Adapter)
	names := make(map[string]string)
	jobs := make([]addressJob, 0)
	for name, asset := range raw {
		if asset.Addresses != nil {
			continue
		}
		adapter, err := registry.Get(name)
		if err != nil {
			return &domain.ConfigurationError{Chain: name, Err: err}
		}
		symbol := adapter.Meta().Symbol
		adapters[symbol] = adapter
		names[symbol] = name
		for i, k := range asset.Keys() {
			jobs = append(jobs, addressJob{symbol, i, k})
		}
	}
	if len(names) <= 0 {
		return nil
	}

	queue := make(chan addressJob)
	results := make(chan addressResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		for _, job := range jobs {
			select {
			case queue <- job:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for job := range queue {
				addr, err := adapters[job.symbol].AddressFromPrivKey(job.key.Key.PrivKey)
				if err != nil {
					return &domain.InvalidKeyError{Chain: names[job.symbol], Index: job.pos, Err: err}
				}
				results <- addressResult{job.symbol, job.pos, domain.AddressRecord{
					Symbol:      job.symbol,
					Addr:        addr,
					AccountName: job.key.AccountName,
					Path:        job.key.Key.Path,
				}}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	close(results)

	bySymbol := make(map[string][]domain.AddressRecord, len(names))
	for symbol, name := range names {
		bySymbol[symbol] = make([]domain.AddressRecord, raw[name].KeyCount())
	}
	for res := range results {
		bySymbol[res.symbol][res.pos] = res.record
	}
	for symbol, records := range bySymbol {
		if err := raw.SetAddresses(names[symbol], records); err != nil {
			return err
		}
	}
	return nil
}
