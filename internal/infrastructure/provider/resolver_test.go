package provider_test

import (
	"testing"

	"github.com/scp-network/scpx-wallet/internal/infrastructure/provider"
	"github.com/scp-network/scpx-wallet/internal/infrastructure/provider/blockbook"
	"github.com/scp-network/scpx-wallet/internal/infrastructure/provider/evm"
	"github.com/scp-network/scpx-wallet/pkg/chain"
	"github.com/stretchr/testify/require"
)

func TestResolver(t *testing.T) {
	resolver, err := provider.NewResolver(chain.DefaultRegistry(), provider.ResolverOpts{
		BlockbookURLs: map[string]string{
			"BTC": "http://127.0.0.1:9130",
			"ETH": "http://127.0.0.1:9136",
		},
		EVMRPCURLs: map[string]string{
			chain.EthereumName: "http://127.0.0.1:8545",
		},
	})
	require.NoError(t, err)
	t.Cleanup(resolver.Close)

	tests := []struct {
		chain    string
		expected interface{}
	}{
		{"bitcoin", &blockbook.Service{}},
		{chain.EthereumName, &evm.Service{}},
		{"usdt", &evm.Service{}},
	}
	for _, tt := range tests {
		p, err := resolver.ProviderFor(tt.chain)
		require.NoError(t, err, tt.chain)
		require.IsType(t, tt.expected, p, tt.chain)
	}

	for _, name := range []string{"litecoin", chain.EOSName, chain.EthereumTestName} {
		_, err := resolver.ProviderFor(name)
		require.ErrorIs(t, err, provider.ErrNoProvider, name)
	}
}

func TestParseEndpoints(t *testing.T) {
	endpoints, err := provider.ParseEndpoints([]string{
		"btc=http://localhost:9130", " LTC = http://localhost:9134 ", "",
	})
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"BTC": "http://localhost:9130",
		"LTC": "http://localhost:9134",
	}, endpoints)

	_, err = provider.ParseEndpoints([]string{"http://localhost:9130"})
	require.ErrorIs(t, err, provider.ErrMalformedEndpoint)
}
