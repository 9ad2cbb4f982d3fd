package chain

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const evmCoinType = 60

type evmAdapter struct {
	meta Meta
}

// NewEVMAdapter returns the adapter of an EVM chain or of a token riding on
// one. Tokens derive under the host coin type and share its addresses.
func NewEVMAdapter(meta Meta) Adapter {
	meta.Type = TypeAccount
	meta.AddressType = AddressTypeETH
	meta.ERC20Contract = strings.ToLower(meta.ERC20Contract)
	return &evmAdapter{meta}
}

func (a *evmAdapter) Meta() Meta {
	return a.meta
}

func (a *evmAdapter) DerivationCoinType() uint32 {
	return evmCoinType
}

func (a *evmAdapter) EncodePrivKey(key *btcec.PrivateKey) (string, error) {
	return hex.EncodeToString(key.Serialize()), nil
}

func (a *evmAdapter) ValidatePrivKey(privKey string) error {
	key, err := crypto.HexToECDSA(strip0x(privKey))
	if err != nil {
		return ErrInvalidPrivKey
	}
	key.D.SetInt64(0)
	return nil
}

func (a *evmAdapter) AddressFromPrivKey(privKey string) (string, error) {
	key, err := crypto.HexToECDSA(strip0x(privKey))
	if err != nil {
		return "", ErrInvalidPrivKey
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	key.D.SetInt64(0)
	return strings.ToLower(addr.Hex()), nil
}

func (a *evmAdapter) ValidateAddress(addr string) bool {
	return common.IsHexAddress(addr)
}

func strip0x(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}
