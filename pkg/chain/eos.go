package chain

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
)

type eosAdapter struct {
	meta Meta
}

// NewEOSAdapter returns the EOS adapter. EOS keys are never derived locally,
// the wallet stores the active key supplied by the user.
func NewEOSAdapter(meta Meta) Adapter {
	meta.Type = TypeAccount
	meta.AddressType = AddressTypeEOS
	return &eosAdapter{meta}
}

func (a *eosAdapter) Meta() Meta {
	return a.meta
}

func (a *eosAdapter) DerivationCoinType() uint32 {
	return a.meta.CoinType
}

func (a *eosAdapter) EncodePrivKey(_ *btcec.PrivateKey) (string, error) {
	return "", ErrNoLocalDerivation
}

func (a *eosAdapter) AddressFromPrivKey(_ string) (string, error) {
	return "", ErrNoLocalDerivation
}

func (a *eosAdapter) ValidatePrivKey(privKey string) error {
	if _, err := btcutil.DecodeWIF(privKey); err != nil {
		return ErrInvalidPrivKey
	}
	return nil
}

func (a *eosAdapter) ValidateAddress(addr string) bool {
	return eosAccountName.MatchString(addr)
}
