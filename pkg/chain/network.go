package chain

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const checksumLen = 4

// Network holds the version bytes of a UTXO chain. Version prefixes are byte
// slices since some chains (zcash) use two bytes.
type Network struct {
	Name             string
	PubKeyHashAddrID []byte
	ScriptHashAddrID []byte
	PrivateKeyID     byte
	Bech32HRP        string
	CashAddrPrefix   string
}

var (
	BitcoinMainNet = &Network{
		Name: "bitcoin", PubKeyHashAddrID: []byte{0x00}, ScriptHashAddrID: []byte{0x05},
		PrivateKeyID: 0x80, Bech32HRP: "bc",
	}
	BitcoinTestNet = &Network{
		Name: "testnet", PubKeyHashAddrID: []byte{0x6f}, ScriptHashAddrID: []byte{0xc4},
		PrivateKeyID: 0xef, Bech32HRP: "tb",
	}
	LitecoinMainNet = &Network{
		Name: "litecoin", PubKeyHashAddrID: []byte{0x30}, ScriptHashAddrID: []byte{0x32},
		PrivateKeyID: 0xb0, Bech32HRP: "ltc",
	}
	LitecoinTestNet = &Network{
		Name: "litecoin-testnet", PubKeyHashAddrID: []byte{0x6f}, ScriptHashAddrID: []byte{0x3a},
		PrivateKeyID: 0xef, Bech32HRP: "tltc",
	}
	ZcashMainNet = &Network{
		Name: "zcash", PubKeyHashAddrID: []byte{0x1c, 0xb8}, ScriptHashAddrID: []byte{0x1c, 0xbd},
		PrivateKeyID: 0x80,
	}
	ZcashTestNet = &Network{
		Name: "zcash-testnet", PubKeyHashAddrID: []byte{0x1d, 0x25}, ScriptHashAddrID: []byte{0x1c, 0xba},
		PrivateKeyID: 0xef,
	}
	DashMainNet = &Network{
		Name: "dash", PubKeyHashAddrID: []byte{0x4c}, ScriptHashAddrID: []byte{0x10},
		PrivateKeyID: 0xcc,
	}
	VertcoinMainNet = &Network{
		Name: "vertcoin", PubKeyHashAddrID: []byte{0x47}, ScriptHashAddrID: []byte{0x05},
		PrivateKeyID: 0x80, Bech32HRP: "vtc",
	}
	QtumMainNet = &Network{
		Name: "qtum", PubKeyHashAddrID: []byte{0x3a}, ScriptHashAddrID: []byte{0x32},
		PrivateKeyID: 0x80, Bech32HRP: "qc",
	}
	DigibyteMainNet = &Network{
		Name: "digibyte", PubKeyHashAddrID: []byte{0x1e}, ScriptHashAddrID: []byte{0x3f},
		PrivateKeyID: 0x80, Bech32HRP: "dgb",
	}
	RavenMainNet = &Network{
		Name: "raven", PubKeyHashAddrID: []byte{0x3c}, ScriptHashAddrID: []byte{0x7a},
		PrivateKeyID: 0x80,
	}
	BitcoinCashMainNet = &Network{
		Name: "bitcoincash", PubKeyHashAddrID: []byte{0x00}, ScriptHashAddrID: []byte{0x05},
		PrivateKeyID: 0x80, CashAddrPrefix: "bitcoincash",
	}
	BitcoinCashTestNet = &Network{
		Name: "bitcoincash-testnet", PubKeyHashAddrID: []byte{0x6f}, ScriptHashAddrID: []byte{0xc4},
		PrivateKeyID: 0xef, CashAddrPrefix: "bchtest",
	}
)

// Params returns btcd chain params carrying the network's WIF and segwit
// identifiers. Only single byte address prefixes are representable there, so
// base58 addresses are encoded through EncodeBase58 instead.
func (n *Network) Params() *chaincfg.Params {
	return &chaincfg.Params{
		Name:             n.Name,
		PubKeyHashAddrID: n.PubKeyHashAddrID[len(n.PubKeyHashAddrID)-1],
		ScriptHashAddrID: n.ScriptHashAddrID[len(n.ScriptHashAddrID)-1],
		PrivateKeyID:     n.PrivateKeyID,
		Bech32HRPSegwit:  n.Bech32HRP,
	}
}

// EncodeBase58 encodes payload with a base58check version prefix of any
// length.
func EncodeBase58(version, payload []byte) string {
	b := make([]byte, 0, len(version)+len(payload)+checksumLen)
	b = append(b, version...)
	b = append(b, payload...)
	cksum := chainhash.DoubleHashB(b)[:checksumLen]
	return base58.Encode(append(b, cksum...))
}

// DecodeBase58 is the inverse of EncodeBase58 for a known version length.
func DecodeBase58(addr string, versionLen int) (version, payload []byte, ok bool) {
	b := base58.Decode(addr)
	if len(b) <= versionLen+checksumLen {
		return nil, nil, false
	}
	data, cksum := b[:len(b)-checksumLen], b[len(b)-checksumLen:]
	if !bytes.Equal(chainhash.DoubleHashB(data)[:checksumLen], cksum) {
		return nil, nil, false
	}
	return data[:versionLen], data[versionLen:], true
}

// ValidateLegacyAddress checks a base58 p2pkh or p2sh address of the network.
func (n *Network) ValidateLegacyAddress(addr string) bool {
	version, payload, ok := DecodeBase58(addr, len(n.PubKeyHashAddrID))
	if !ok || len(payload) != 20 {
		return false
	}
	return bytes.Equal(version, n.PubKeyHashAddrID) ||
		bytes.Equal(version, n.ScriptHashAddrID)
}
