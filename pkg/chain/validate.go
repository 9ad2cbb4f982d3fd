package chain

import (
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/ethereum/go-ethereum/common"
	bchchaincfg "github.com/gcash/bchd/chaincfg"
	"github.com/gcash/bchutil"
)

var eosAccountName = regexp.MustCompile(`^[a-z1-5.]{1,12}$`)

type networkPair struct {
	main, test *Network
}

var utxoNetworks = map[AddressType]networkPair{
	AddressTypeBTC:  {BitcoinMainNet, BitcoinTestNet},
	AddressTypeLTC:  {LitecoinMainNet, LitecoinTestNet},
	AddressTypeZEC:  {ZcashMainNet, ZcashTestNet},
	AddressTypeDASH: {DashMainNet, nil},
	AddressTypeVTC:  {VertcoinMainNet, nil},
	AddressTypeQTUM: {QtumMainNet, nil},
	AddressTypeDGB:  {DigibyteMainNet, nil},
	AddressTypeRVN:  {RavenMainNet, nil},
	AddressTypeBCH:  {BitcoinCashMainNet, BitcoinCashTestNet},
}

// ValidateAddress reports whether addr is valid for the given address type on
// mainnet or testnet. BCH cash addresses are canonicalized to their legacy
// form before being checked.
func ValidateAddress(addr string, addrType AddressType, testnet bool) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return false
	}

	switch addrType {
	case AddressTypeETH:
		return common.IsHexAddress(addr)
	case AddressTypeEOS:
		return eosAccountName.MatchString(addr)
	}

	pair, ok := utxoNetworks[addrType]
	if !ok {
		return false
	}
	network := pair.main
	if testnet {
		network = pair.test
	}
	if network == nil {
		return false
	}
	return validateUtxoAddress(addr, network)
}

func validateUtxoAddress(addr string, network *Network) bool {
	if network.CashAddrPrefix != "" {
		if legacy, err := CashAddrToLegacy(addr, network); err == nil {
			addr = legacy
		}
	}
	if network.ValidateLegacyAddress(addr) {
		return true
	}
	if network.Bech32HRP == "" ||
		!strings.HasPrefix(strings.ToLower(addr), network.Bech32HRP+"1") {
		return false
	}
	params := network.Params()
	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return false
	}
	return decoded.IsForNet(params)
}

// CashAddrToLegacy converts a cash address, with or without its prefix, to
// the legacy base58 encoding of the given network.
func CashAddrToLegacy(addr string, network *Network) (string, error) {
	testnet := network.CashAddrPrefix == BitcoinCashTestNet.CashAddrPrefix
	decoded, err := bchutil.DecodeAddress(addr, cashAddrParams(testnet))
	if err != nil {
		return "", err
	}
	version := network.PubKeyHashAddrID
	if _, ok := decoded.(*bchutil.AddressScriptHash); ok {
		version = network.ScriptHashAddrID
	}
	return EncodeBase58(version, decoded.ScriptAddress()), nil
}

func cashAddrParams(testnet bool) *bchchaincfg.Params {
	if testnet {
		return &bchchaincfg.TestNet3Params
	}
	return &bchchaincfg.MainNetParams
}

func withCashAddrPrefix(addr, prefix string) string {
	if strings.Contains(addr, ":") {
		return addr
	}
	return prefix + ":" + addr
}

// SameAddress reports whether a and b encode the same address. EVM and
// bech32 addresses compare case-insensitively and BCH cash addresses are
// compared in their legacy form.
func SameAddress(a, b string, addrType AddressType, testnet bool) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}

	switch addrType {
	case AddressTypeETH:
		return strings.EqualFold(a, b)
	case AddressTypeEOS:
		return false
	}

	pair, ok := utxoNetworks[addrType]
	if !ok {
		return false
	}
	network := pair.main
	if testnet {
		network = pair.test
	}
	if network == nil {
		return false
	}
	if network.CashAddrPrefix != "" {
		if legacy, err := CashAddrToLegacy(a, network); err == nil {
			a = legacy
		}
		if legacy, err := CashAddrToLegacy(b, network); err == nil {
			b = legacy
		}
		return a == b
	}
	if network.Bech32HRP != "" &&
		strings.HasPrefix(strings.ToLower(a), network.Bech32HRP+"1") {
		return strings.EqualFold(a, b)
	}
	return false
}
