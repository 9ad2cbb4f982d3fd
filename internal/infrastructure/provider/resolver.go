// Package provider builds the chain data providers of every supported chain
// out of the configured endpoints.
package provider

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/scp-network/scpx-wallet/internal/core/ports"
	"github.com/scp-network/scpx-wallet/internal/infrastructure/provider/blockbook"
	"github.com/scp-network/scpx-wallet/internal/infrastructure/provider/evm"
	"github.com/scp-network/scpx-wallet/pkg/chain"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrNoProvider ...
	ErrNoProvider = errors.New("no data provider configured for chain")
	// ErrMalformedEndpoint ...
	ErrMalformedEndpoint = errors.New("endpoint must be in the form SYMBOL=url")
)

// ResolverOpts holds the provider endpoints.
type ResolverOpts struct {
	// BlockbookURLs maps a chain symbol to the url of its blockbook indexer.
	// The ETH entry is used as tx indexer by the EVM host and its tokens.
	BlockbookURLs map[string]string
	// EVMRPCURLs maps an EVM host chain name to the url of its node.
	EVMRPCURLs map[string]string
	RateLimit  int
	Timeout    time.Duration
}

// Resolver implements ports.ProviderResolver with a provider per chain name,
// built once at startup.
type Resolver struct {
	providers map[string]ports.ChainDataProvider
	clients   []*ethclient.Client
}

// NewResolver builds the providers of every chain of the registry with a
// configured endpoint. Chains without one are left out, ProviderFor returns
// ErrNoProvider for them.
func NewResolver(registry *chain.Registry, opts ResolverOpts) (*Resolver, error) {
	r := &Resolver{providers: make(map[string]ports.ChainDataProvider)}
	evmClients := make(map[string]*ethclient.Client)

	newBlockbook := func(symbol, contract string) (*blockbook.Service, error) {
		url, ok := opts.BlockbookURLs[symbol]
		if !ok || url == "" {
			return nil, nil
		}
		return blockbook.NewService(blockbook.Opts{
			URL:       url,
			RateLimit: opts.RateLimit,
			Timeout:   opts.Timeout,
			Contract:  contract,
		})
	}

	evmClient := func(host string) (*ethclient.Client, error) {
		if c, ok := evmClients[host]; ok {
			return c, nil
		}
		url, ok := opts.EVMRPCURLs[host]
		if !ok || url == "" {
			return nil, nil
		}
		c, err := ethclient.Dial(url)
		if err != nil {
			return nil, fmt.Errorf("dialing %s node: %w", host, err)
		}
		evmClients[host] = c
		r.clients = append(r.clients, c)
		return c, nil
	}

	for _, name := range registry.Names() {
		adapter, err := registry.Get(name)
		if err != nil {
			r.Close()
			return nil, err
		}
		meta := adapter.Meta()

		switch {
		case meta.Type == chain.TypeUTXO:
			svc, err := newBlockbook(meta.Symbol, "")
			if err != nil {
				r.Close()
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if svc != nil {
				r.providers[name] = svc
			}

		case meta.AddressType == chain.AddressTypeETH:
			host := name
			if meta.IsToken() {
				host = meta.HostChain
			}
			client, err := evmClient(host)
			if err != nil {
				r.Close()
				return nil, err
			}
			if client == nil {
				continue
			}
			hostAdapter, err := registry.Get(host)
			if err != nil {
				r.Close()
				return nil, err
			}
			indexer, err := newBlockbook(hostAdapter.Meta().Symbol, meta.ERC20Contract)
			if err != nil {
				r.Close()
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			evmOpts := evm.Opts{Name: name, Backend: client, Contract: meta.ERC20Contract}
			if indexer != nil {
				evmOpts.Indexer = indexer
			}
			svc, err := evm.NewService(evmOpts)
			if err != nil {
				r.Close()
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			r.providers[name] = svc
		}
	}

	log.Debugf("data providers configured for %d chains", len(r.providers))
	return r, nil
}

var _ ports.ProviderResolver = (*Resolver)(nil)

func (r *Resolver) ProviderFor(chainName string) (ports.ChainDataProvider, error) {
	p, ok := r.providers[chainName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, chainName)
	}
	return p, nil
}

// Chains returns the names of the chains with a provider.
func (r *Resolver) Chains() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

func (r *Resolver) Close() {
	for _, c := range r.clients {
		c.Close()
	}
	r.clients = nil
}

// ParseEndpoints parses a list of SYMBOL=url entries.
func ParseEndpoints(entries []string) (map[string]string, error) {
	endpoints := make(map[string]string, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		symbol, url, ok := strings.Cut(entry, "=")
		if !ok || symbol == "" || url == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedEndpoint, entry)
		}
		endpoints[strings.ToUpper(strings.TrimSpace(symbol))] = strings.TrimSpace(url)
	}
	return endpoints, nil
}
