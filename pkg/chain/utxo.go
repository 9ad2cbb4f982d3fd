package chain

import (
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/gcash/bchutil"
)

// Encoding is the address format produced by a UTXO adapter.
type Encoding int

const (
	EncodingP2PKH Encoding = iota
	EncodingP2SHP2WPKH
	EncodingP2WPKH
	EncodingCashAddr
)

type utxoAdapter struct {
	meta     Meta
	network  *Network
	encoding Encoding
}

// NewUtxoAdapter returns the adapter of a bitcoin-like chain.
func NewUtxoAdapter(meta Meta, network *Network, encoding Encoding) Adapter {
	meta.Type = TypeUTXO
	return &utxoAdapter{meta, network, encoding}
}

func (a *utxoAdapter) Meta() Meta {
	return a.meta
}

func (a *utxoAdapter) Network() *Network {
	return a.network
}

func (a *utxoAdapter) DerivationCoinType() uint32 {
	return a.meta.CoinType
}

func (a *utxoAdapter) EncodePrivKey(key *btcec.PrivateKey) (string, error) {
	wif, err := btcutil.NewWIF(key, a.network.Params(), true)
	if err != nil {
		return "", err
	}
	return wif.String(), nil
}

func (a *utxoAdapter) decodeWIF(privKey string) (*btcutil.WIF, error) {
	wif, err := btcutil.DecodeWIF(strings.TrimSpace(privKey))
	if err != nil {
		return nil, ErrInvalidPrivKey
	}
	if !wif.IsForNet(a.network.Params()) {
		return nil, ErrInvalidPrivKey
	}
	return wif, nil
}

func (a *utxoAdapter) ValidatePrivKey(privKey string) error {
	_, err := a.decodeWIF(privKey)
	return err
}

func (a *utxoAdapter) AddressFromPrivKey(privKey string) (string, error) {
	wif, err := a.decodeWIF(privKey)
	if err != nil {
		return "", err
	}
	defer wif.PrivKey.Zero()

	pubkey := wif.SerializePubKey()
	if a.encoding == EncodingP2SHP2WPKH || a.encoding == EncodingP2WPKH {
		if !wif.CompressPubKey {
			return "", ErrUncompressedSegwitKey
		}
	}
	return a.addressFromPubKey(pubkey)
}

func (a *utxoAdapter) addressFromPubKey(pubkey []byte) (string, error) {
	hash := btcutil.Hash160(pubkey)

	switch a.encoding {
	case EncodingP2SHP2WPKH:
		script, err := txscript.NewScriptBuilder().
			AddOp(txscript.OP_0).AddData(hash).Script()
		if err != nil {
			return "", err
		}
		return EncodeBase58(a.network.ScriptHashAddrID, btcutil.Hash160(script)), nil

	case EncodingP2WPKH:
		addr, err := btcutil.NewAddressWitnessPubKeyHash(hash, a.network.Params())
		if err != nil {
			return "", err
		}
		return addr.EncodeAddress(), nil

	case EncodingCashAddr:
		addr, err := bchutil.NewAddressPubKeyHash(hash, cashAddrParams(a.meta.Testnet))
		if err != nil {
			return "", err
		}
		return withCashAddrPrefix(addr.EncodeAddress(), a.network.CashAddrPrefix), nil

	default:
		return EncodeBase58(a.network.PubKeyHashAddrID, hash), nil
	}
}

func (a *utxoAdapter) ValidateAddress(addr string) bool {
	return validateUtxoAddress(addr, a.network)
}
