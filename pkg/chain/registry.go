package chain

import (
	"fmt"
	"sort"
)

const (
	// EthereumName is the chain name of the EVM mainnet host.
	EthereumName = "ethereum"
	// EthereumTestName is the chain name of the EVM testnet host.
	EthereumTestName = "eth(t)"
	// EOSName ...
	EOSName = "eos"
)

// Registry maps chain names to their adapters.
type Registry struct {
	adapters map[string]Adapter
	symbols  map[string]string
}

// NewRegistry returns a registry made of the given adapters. Adapters
// registered later override earlier ones with the same name.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[string]Adapter),
		symbols:  make(map[string]string),
	}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds an adapter to the registry.
func (r *Registry) Register(a Adapter) {
	m := a.Meta()
	r.adapters[m.Name] = a
	r.symbols[m.Symbol] = m.Name
}

// Get returns the adapter of the named chain.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, name)
	}
	return a, nil
}

// BySymbol returns the adapter of the chain with the given symbol.
func (r *Registry) BySymbol(symbol string) (Adapter, error) {
	name, ok := r.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, symbol)
	}
	return r.adapters[name], nil
}

// Names returns every registered chain name, sorted for display.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	r.Sort(names)
	return names
}

// Supported returns the names of the chains a wallet holds by default.
func (r *Registry) Supported(includeTestnets bool) []string {
	names := make([]string, 0, len(r.adapters))
	for _, name := range r.Names() {
		if r.adapters[name].Meta().Testnet && !includeTestnets {
			continue
		}
		names = append(names, name)
	}
	return names
}

// TokensOf returns the names of the tokens hosted by the given chain.
func (r *Registry) TokensOf(host string) []string {
	tokens := make([]string, 0)
	for _, name := range r.Names() {
		if r.adapters[name].Meta().HostChain == host {
			tokens = append(tokens, name)
		}
	}
	return tokens
}

// Sort orders chain names by their display sort order. Unknown names go
// last, ties are broken by name.
func (r *Registry) Sort(names []string) {
	order := func(name string) int {
		if a, ok := r.adapters[name]; ok {
			return a.Meta().SortOrder
		}
		return int(^uint(0) >> 1)
	}
	sort.SliceStable(names, func(i, j int) bool {
		oi, oj := order(names[i]), order(names[j])
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
}

type tokenInfo struct {
	name, symbol, displayName, contract string
	coinType                            uint32
	decimals                            int32
}

var mainnetTokens = []tokenInfo{
	{"trueusd", "TUSD", "TrueUSD", "0x0000000000085d4780b73119b644ae5ecd22b376", 100001, 18},
	{"bancor", "BNT", "Bancor", "0x1f573d6fb3f13d689ff844b4ce37794d79a7ff1c", 100002, 18},
	{"0x", "ZRX", "0x", "0xe41d2489571d322189246dafa5ebde1f4699f498", 100003, 18},
	{"bat", "BAT", "BAT", "0x0d8775f648430679a709e98d2b0cb6250d2887ef", 100004, 18},
	{"bnb", "BNB", "Binance Coin", "0xb8c77482e45f1f44de1745f52c74426c631bdd52", 714, 18},
	{"omg", "OMG", "OmiseGO", "0xd26114cd6ee289accf82350c8d8487fedb8a0c07", 100006, 18},
	{"snt", "SNT", "Status", "0x744d70fdbe2ba4cf95131626614a1763df805b9e", 100007, 18},
	{"gto", "GTO", "Gifto", "0xc5bbae50781be1669306b9e001eff57a2957b09d", 100008, 5},
	{"ht", "HT", "Huobi Token", "0x6f259637dcd74c767781e37bc6133cd6a68aa161", 100009, 18},
	{"usdt", "USDT", "Tether", "0xdac17f958d2ee523a2206206994597c13d831ec7", 100010, 6},
	{"eurt", "EURT", "EURT", "0xabdf147870235fcfc34153828c769a70b3fae01f", 100011, 6},
	{"mkr", "MKR", "Maker", "0x9f8f72aa9304c8b593d555f12ef6589cc3a579a2", 100012, 18},
	{"rep", "REP", "Augur", "0x1985365e9f78359a9b6ad760e32412f4a445e862", 100013, 18},
	{"hot", "HOT", "Holo", "0x6c6ee5e31d828de241282b9606c8e98ea48526e2", 100014, 18},
	{"zil", "ZIL", "Zilliqa", "0x05f4a42e251f2d52b8ed15e9fedaacfcef1fad27", 100015, 12},
	{"link", "LINK", "Chainlink", "0x514910771af9ca656af840dff83e8264ecf986ca", 100016, 18},
}

// DefaultRegistry returns the registry of every chain and token the wallet
// knows about, testnets included.
func DefaultRegistry() *Registry {
	utxo := func(name, symbol, display string, addrType AddressType, coin uint32, testnet bool, order int) Meta {
		return Meta{
			Name: name, Symbol: symbol, DisplayName: display, DisplaySymbol: symbol,
			AddressType: addrType, CoinType: coin, Decimals: 8, Testnet: testnet, SortOrder: order,
		}
	}

	r := NewRegistry(
		NewUtxoAdapter(utxo("bitcoin", "BTC", "Bitcoin", AddressTypeBTC, 0, false, 0), BitcoinMainNet, EncodingP2PKH),
		NewUtxoAdapter(utxo("btc(s)", "BTC_SEG", "Bitcoin SegWit", AddressTypeBTC, 0, false, 1), BitcoinMainNet, EncodingP2SHP2WPKH),
		NewUtxoAdapter(utxo("btc(s2)", "BTC_SEG2", "Bitcoin Native SegWit", AddressTypeBTC, 0, false, 2), BitcoinMainNet, EncodingP2WPKH),
		NewUtxoAdapter(utxo("litecoin", "LTC", "Litecoin", AddressTypeLTC, 2, false, 3), LitecoinMainNet, EncodingP2PKH),
		NewUtxoAdapter(utxo("zcash", "ZEC", "ZCash", AddressTypeZEC, 133, false, 4), ZcashMainNet, EncodingP2PKH),
		NewUtxoAdapter(utxo("dash", "DASH", "Dash", AddressTypeDASH, 5, false, 5), DashMainNet, EncodingP2PKH),
		NewUtxoAdapter(utxo("vertcoin", "VTC", "Vertcoin", AddressTypeVTC, 28, false, 6), VertcoinMainNet, EncodingP2PKH),
		NewUtxoAdapter(utxo("qtum", "QTUM", "Qtum", AddressTypeQTUM, 2301, false, 7), QtumMainNet, EncodingP2PKH),
		NewUtxoAdapter(utxo("digibyte", "DGB", "DigiByte", AddressTypeDGB, 20, false, 8), DigibyteMainNet, EncodingP2PKH),
		NewUtxoAdapter(utxo("bchabc", "BCHABC", "Bitcoin Cash", AddressTypeBCH, 145, false, 9), BitcoinCashMainNet, EncodingCashAddr),
		NewUtxoAdapter(utxo("raven", "RVN", "Ravencoin", AddressTypeRVN, 175, false, 10), RavenMainNet, EncodingP2PKH),

		NewEVMAdapter(Meta{
			Name: EthereumName, Symbol: "ETH", DisplayName: "Ethereum", DisplaySymbol: "ETH",
			CoinType: evmCoinType, Decimals: 18, SortOrder: 20,
		}),
		NewEOSAdapter(Meta{
			Name: EOSName, Symbol: "EOS", DisplayName: "EOS", DisplaySymbol: "EOS",
			CoinType: 194, Decimals: 4, SortOrder: 21,
		}),

		NewUtxoAdapter(utxo("btc(t)", "BTC_TEST", "Bitcoin#", AddressTypeBTC, 1, true, 90), BitcoinTestNet, EncodingP2PKH),
		NewUtxoAdapter(utxo("ltc(t)", "LTC_TEST", "Litecoin#", AddressTypeLTC, 1, true, 91), LitecoinTestNet, EncodingP2PKH),
		NewUtxoAdapter(utxo("zcash(t)", "ZEC_TEST", "ZCash#", AddressTypeZEC, 1, true, 92), ZcashTestNet, EncodingP2PKH),
		NewEVMAdapter(Meta{
			Name: EthereumTestName, Symbol: "ETH_TEST", DisplayName: "Ethereum#", DisplaySymbol: "ETH#",
			CoinType: evmCoinType, Decimals: 18, Testnet: true, SortOrder: 93,
		}),
	)

	for i, t := range mainnetTokens {
		r.Register(NewEVMAdapter(Meta{
			Name: t.name, Symbol: t.symbol, DisplayName: t.displayName, DisplaySymbol: t.symbol,
			CoinType: t.coinType, Decimals: t.decimals, ERC20Contract: t.contract,
			HostChain: EthereumName, SortOrder: 30 + i,
		}))
	}
	return r
}
