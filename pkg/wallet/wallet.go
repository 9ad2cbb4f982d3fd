package wallet

import (
	"errors"
)

var (
	// ErrNullMasterSecret ...
	ErrNullMasterSecret = errors.New("master secret must not be null")
	// ErrNullKeyEncoder ...
	ErrNullKeyEncoder = errors.New("key encoder must not be null")
	// ErrNullPassphrase ...
	ErrNullPassphrase = errors.New("passphrase must not be null")
	// ErrNullPlainText ...
	ErrNullPlainText = errors.New("text to encrypt must not be null")
	// ErrNullCypherText ...
	ErrNullCypherText = errors.New("cypher to decrypt must not be null")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")

	// ErrInvalidCypherText ...
	ErrInvalidCypherText = errors.New("cypher must be in base64 format")
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and must not contain empty elems",
	)
	// ErrInvalidKeyCount ...
	ErrInvalidKeyCount = errors.New("number of keys to derive must be greater than zero")
	// ErrInvalidKeyRange ...
	ErrInvalidKeyRange = errors.New("account and key indexes must be lower than 2^31")
	// ErrInvalidMasterKey ...
	ErrInvalidMasterKey = errors.New("master key must not be empty")
	// ErrInvalidAPK ...
	ErrInvalidAPK = errors.New("apk must not be empty")

	// ErrCypherTooShort ...
	ErrCypherTooShort = errors.New("cypher is too short to contain salt and nonce")
)

// KeyRecord is a private key, encoded in its chain format, together with the
// path it was derived at.
type KeyRecord struct {
	PrivKey string `json:"privKey"`
	Path    string `json:"path"`
}

// Zero overwrites the given buffer with zeroes.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
