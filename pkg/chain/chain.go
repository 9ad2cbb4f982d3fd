// Package chain holds the per-chain capabilities the wallet needs: metadata,
// private key encoding, address derivation and validation. Every supported
// chain is an Adapter registered in a Registry.
package chain

import (
	"errors"

	"github.com/scp-network/scpx-wallet/pkg/wallet"
)

var (
	// ErrUnsupportedChain ...
	ErrUnsupportedChain = errors.New("chain is not supported")
	// ErrNoLocalDerivation ...
	ErrNoLocalDerivation = errors.New("chain keys are not derived locally")
	// ErrInvalidPrivKey ...
	ErrInvalidPrivKey = errors.New("private key is malformed or not for this network")
	// ErrUncompressedSegwitKey ...
	ErrUncompressedSegwitKey = errors.New("segwit addresses require a compressed public key")
	// ErrNotTokenTransfer ...
	ErrNotTokenTransfer = errors.New("calldata is not a token transfer")
)

// Type is the balance model of a chain.
type Type string

const (
	TypeUTXO    Type = "WALLET_TYPE_UTXO"
	TypeAccount Type = "WALLET_TYPE_ACCOUNT"
)

// AddressType identifies the address validator family of a chain.
type AddressType string

const (
	AddressTypeBTC  AddressType = "BTC"
	AddressTypeLTC  AddressType = "LTC"
	AddressTypeZEC  AddressType = "ZEC"
	AddressTypeDASH AddressType = "DASH"
	AddressTypeVTC  AddressType = "VTC"
	AddressTypeQTUM AddressType = "QTUM"
	AddressTypeDGB  AddressType = "DGB"
	AddressTypeBCH  AddressType = "BCH"
	AddressTypeRVN  AddressType = "RVN"
	AddressTypeETH  AddressType = "ETH"
	AddressTypeEOS  AddressType = "EOS"
)

// Meta is the static description of a supported chain or token.
type Meta struct {
	Name          string      `json:"name"`
	Symbol        string      `json:"symbol"`
	DisplayName   string      `json:"displayName"`
	DisplaySymbol string      `json:"displaySymbol"`
	Type          Type        `json:"type"`
	AddressType   AddressType `json:"addressType"`
	CoinType      uint32      `json:"bip44Index"`
	Decimals      int32       `json:"decimals"`
	Testnet       bool        `json:"testnet,omitempty"`
	ERC20Contract string      `json:"erc20Contract,omitempty"`
	HostChain     string      `json:"hostChain,omitempty"`
	SortOrder     int         `json:"sortOrder"`
}

// IsToken returns whether the asset is a ledger entry on a host chain.
func (m Meta) IsToken() bool {
	return m.HostChain != ""
}

// IsEVMHost returns whether the asset is an EVM chain able to host tokens.
func (m Meta) IsEVMHost() bool {
	return m.Type == TypeAccount && m.AddressType == AddressTypeETH && !m.IsToken()
}

// Adapter is the set of capabilities every supported chain exposes.
type Adapter interface {
	wallet.KeyEncoder
	Meta() Meta
	// AddressFromPrivKey returns the address controlled by the encoded key.
	AddressFromPrivKey(privKey string) (string, error)
	// ValidatePrivKey checks that the key is well formed for this chain.
	ValidatePrivKey(privKey string) error
	// ValidateAddress checks that addr is a valid address of this chain.
	ValidateAddress(addr string) bool
}
