package wallet

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"golang.org/x/crypto/pbkdf2"
)

const (
	masterKeyLen    = 32
	hmpkIterations  = 4096
	hmpkKeyLen      = 32
	maxKeysPerBatch = 1000
)

// KeyEncoder is the capability a chain must expose to have keys derived for
// it: the bip44 coin type to derive under and how to encode a private key.
type KeyEncoder interface {
	DerivationCoinType() uint32
	EncodePrivKey(key *btcec.PrivateKey) (string, error)
}

// DeriveKeysOpts is the struct given to DeriveKeys method
type DeriveKeysOpts struct {
	MasterSecret []byte
	Encoder      KeyEncoder
	Account      uint32
	StartIndex   uint32
	Count        uint32
}

func (o DeriveKeysOpts) validate() error {
	if len(o.MasterSecret) <= 0 {
		return ErrNullMasterSecret
	}
	if o.Encoder == nil {
		return ErrNullKeyEncoder
	}
	if o.Count == 0 || o.Count > maxKeysPerBatch {
		return ErrInvalidKeyCount
	}
	// Account and address indexes must stay in the non-hardened range.
	if o.Account >= hdkeychain.HardenedKeyStart ||
		uint64(o.StartIndex)+uint64(o.Count) > hdkeychain.HardenedKeyStart {
		return ErrInvalidKeyRange
	}
	return nil
}

// DeriveKeys derives Count sequential keys starting at StartIndex along
// m/44'/coin'/account'/0/i. The HD seed is sha256(MasterSecret).
// The same inputs always produce the same records.
func DeriveKeys(opts DeriveKeysOpts) ([]KeyRecord, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	seed := sha256.Sum256(opts.MasterSecret)
	defer Zero(seed[:])

	master, err := hdkeychain.NewMaster(seed[:], &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	defer master.Zero()

	coinType := opts.Encoder.DerivationCoinType()
	branch, err := deriveBranch(master, Bip44Path(coinType, opts.Account, 0)[:4])
	if err != nil {
		return nil, err
	}
	defer branch.Zero()

	keys := make([]KeyRecord, 0, opts.Count)
	for i := opts.StartIndex; i < opts.StartIndex+opts.Count; i++ {
		child, err := branch.Derive(i)
		if err != nil {
			return nil, err
		}
		prvkey, err := child.ECPrivKey()
		if err != nil {
			child.Zero()
			return nil, err
		}
		encoded, err := opts.Encoder.EncodePrivKey(prvkey)
		prvkey.Zero()
		child.Zero()
		if err != nil {
			return nil, err
		}

		keys = append(keys, KeyRecord{
			PrivKey: encoded,
			Path:    Bip44Path(coinType, opts.Account, i).String(),
		})
	}
	return keys, nil
}

func deriveBranch(
	key *hdkeychain.ExtendedKey, path DerivationPath,
) (*hdkeychain.ExtendedKey, error) {
	next := key
	for _, step := range path {
		child, err := next.Derive(step)
		if next != key {
			next.Zero()
		}
		if err != nil {
			return nil, err
		}
		next = child
	}
	return next, nil
}

// HashMasterKey stretches the user master key (mpk) with the apk as salt.
// The result is both the derivation master secret and half of the vault
// passphrase.
func HashMasterKey(apk, mpk string) ([]byte, error) {
	if len(mpk) <= 0 {
		return nil, ErrInvalidMasterKey
	}
	if len(apk) <= 0 {
		return nil, ErrInvalidAPK
	}
	return pbkdf2.Key([]byte(mpk), []byte(apk), hmpkIterations, hmpkKeyLen, sha512.New), nil
}

// GenerateMasterKey returns a new random master key in hex format.
func GenerateMasterKey() (string, error) {
	b := make([]byte, masterKeyLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	defer Zero(b)
	return hex.EncodeToString(b), nil
}
