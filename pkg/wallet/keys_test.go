package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

type hexEncoder struct {
	coinType uint32
}

func (e hexEncoder) DerivationCoinType() uint32 {
	return e.coinType
}

func (e hexEncoder) EncodePrivKey(key *btcec.PrivateKey) (string, error) {
	return hex.EncodeToString(key.Serialize()), nil
}

var testMasterSecret = []byte("2f7a1e3c4d5b6a7980f1e2d3c4b5a6978f1e2d3c4b5a69788f7e6d5c4b3a2918")

func TestDeriveKeys(t *testing.T) {
	t.Run("deterministic", testDeriveKeysDeterministic())
	t.Run("matches hdkeychain", testDeriveKeysMatchesHDKeychain())
	t.Run("start index", testDeriveKeysStartIndex())
	t.Run("account", testDeriveKeysAccount())
}

func testDeriveKeysDeterministic() func(t *testing.T) {
	return func(t *testing.T) {
		opts := DeriveKeysOpts{
			MasterSecret: testMasterSecret,
			Encoder:      hexEncoder{0},
			Count:        3,
		}
		keys, err := DeriveKeys(opts)
		require.NoError(t, err)
		require.Len(t, keys, 3)

		again, err := DeriveKeys(opts)
		require.NoError(t, err)
		require.Equal(t, keys, again)

		seen := map[string]bool{}
		for i, k := range keys {
			require.Equal(t, Bip44Path(0, 0, uint32(i)).String(), k.Path)
			require.False(t, seen[k.PrivKey])
			seen[k.PrivKey] = true
		}
	}
}

func testDeriveKeysMatchesHDKeychain() func(t *testing.T) {
	return func(t *testing.T) {
		keys, err := DeriveKeys(DeriveKeysOpts{
			MasterSecret: testMasterSecret,
			Encoder:      hexEncoder{60},
			Count:        1,
		})
		require.NoError(t, err)

		seed := sha256.Sum256(testMasterSecret)
		key, err := hdkeychain.NewMaster(seed[:], &chaincfg.MainNetParams)
		require.NoError(t, err)
		for _, step := range Bip44Path(60, 0, 0) {
			key, err = key.Derive(step)
			require.NoError(t, err)
		}
		prvkey, err := key.ECPrivKey()
		require.NoError(t, err)

		require.Equal(t, hex.EncodeToString(prvkey.Serialize()), keys[0].PrivKey)
		require.Equal(t, "m/44'/60'/0'/0/0", keys[0].Path)
	}
}

func testDeriveKeysStartIndex() func(t *testing.T) {
	return func(t *testing.T) {
		all, err := DeriveKeys(DeriveKeysOpts{
			MasterSecret: testMasterSecret,
			Encoder:      hexEncoder{2},
			Count:        4,
		})
		require.NoError(t, err)

		tail, err := DeriveKeys(DeriveKeysOpts{
			MasterSecret: testMasterSecret,
			Encoder:      hexEncoder{2},
			StartIndex:   2,
			Count:        2,
		})
		require.NoError(t, err)
		require.Equal(t, all[2:], tail)
	}
}

func testDeriveKeysAccount() func(t *testing.T) {
	return func(t *testing.T) {
		acc0, err := DeriveKeys(DeriveKeysOpts{
			MasterSecret: testMasterSecret,
			Encoder:      hexEncoder{0},
			Count:        1,
		})
		require.NoError(t, err)
		acc1, err := DeriveKeys(DeriveKeysOpts{
			MasterSecret: testMasterSecret,
			Encoder:      hexEncoder{0},
			Account:      1,
			Count:        1,
		})
		require.NoError(t, err)
		require.NotEqual(t, acc0[0].PrivKey, acc1[0].PrivKey)
		require.Equal(t, "m/44'/0'/1'/0/0", acc1[0].Path)
	}
}

func TestFailingDeriveKeys(t *testing.T) {
	tests := []struct {
		opts DeriveKeysOpts
		err  error
	}{
		{
			opts: DeriveKeysOpts{Encoder: hexEncoder{0}, Count: 1},
			err:  ErrNullMasterSecret,
		},
		{
			opts: DeriveKeysOpts{MasterSecret: testMasterSecret, Count: 1},
			err:  ErrNullKeyEncoder,
		},
		{
			opts: DeriveKeysOpts{MasterSecret: testMasterSecret, Encoder: hexEncoder{0}},
			err:  ErrInvalidKeyCount,
		},
		{
			opts: DeriveKeysOpts{
				MasterSecret: testMasterSecret, Encoder: hexEncoder{0},
				StartIndex: math.MaxUint32 - 1, Count: 5,
			},
			err: ErrInvalidKeyRange,
		},
		{
			opts: DeriveKeysOpts{
				MasterSecret: testMasterSecret, Encoder: hexEncoder{0},
				StartIndex: hdkeychain.HardenedKeyStart - 1, Count: 2,
			},
			err: ErrInvalidKeyRange,
		},
		{
			opts: DeriveKeysOpts{
				MasterSecret: testMasterSecret, Encoder: hexEncoder{0},
				Account: hdkeychain.HardenedKeyStart, Count: 1,
			},
			err: ErrInvalidKeyRange,
		},
	}
	for _, tt := range tests {
		_, err := DeriveKeys(tt.opts)
		require.Equal(t, tt.err, err)
	}
}

func TestDeriveKeysLastIndex(t *testing.T) {
	keys, err := DeriveKeys(DeriveKeysOpts{
		MasterSecret: testMasterSecret,
		Encoder:      hexEncoder{0},
		StartIndex:   hdkeychain.HardenedKeyStart - 1,
		Count:        1,
	})
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, "m/44'/0'/0'/0/2147483647", keys[0].Path)
}

func TestHashMasterKey(t *testing.T) {
	h1, err := HashMasterKey("apk", "mpk")
	require.NoError(t, err)
	require.Len(t, h1, 32)

	h2, err := HashMasterKey("apk", "mpk")
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	h3, err := HashMasterKey("other", "mpk")
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)

	_, err = HashMasterKey("apk", "")
	require.Equal(t, ErrInvalidMasterKey, err)
	_, err = HashMasterKey("", "mpk")
	require.Equal(t, ErrInvalidAPK, err)

	mpk, err := GenerateMasterKey()
	require.NoError(t, err)
	require.Len(t, mpk, 64)
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	Zero(b)
	require.Equal(t, []byte{0, 0, 0}, b)
}
