package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/scrypt"
)

const (
	saltLen = 32
	keyLen  = 32
)

// ScryptN is the scrypt cost parameter used by DeriveKey. The daemon can lower
// it through config for constrained hosts, tests lower it to keep them fast.
var ScryptN = 1 << 15

// EncryptOpts holds the vault blob to seal and the passphrase protecting it.
type EncryptOpts struct {
	PlainText  []byte
	Passphrase []byte
}

func (o EncryptOpts) validate() error {
	if len(o.PlainText) <= 0 {
		return ErrNullPlainText
	}
	if len(o.Passphrase) <= 0 {
		return ErrNullPassphrase
	}
	return nil
}

// DecryptOpts holds a sealed vault blob and the passphrase to open it.
type DecryptOpts struct {
	CypherText string
	Passphrase []byte
}

func (o DecryptOpts) validate() ([]byte, error) {
	if len(o.CypherText) <= 0 {
		return nil, ErrNullCypherText
	}
	data, err := base64.StdEncoding.DecodeString(o.CypherText)
	if err != nil {
		return nil, ErrInvalidCypherText
	}
	if len(o.Passphrase) <= 0 {
		return nil, ErrNullPassphrase
	}
	return data, nil
}

// Encrypt seals the plaintext with AES-256-GCM under a scrypt-stretched key.
// The encoded layout is base64(nonce|sealed|salt).
func Encrypt(opts EncryptOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	aead, salt, err := newAEAD(opts.Passphrase, nil)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(opts.PlainText)+aead.Overhead()+saltLen)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, opts.PlainText, nil)
	return base64.StdEncoding.EncodeToString(append(sealed, salt...)), nil
}

// Decrypt opens a blob produced by Encrypt. The returned plaintext is owned
// by the caller, who is expected to Zero it once done.
func Decrypt(opts DecryptOpts) ([]byte, error) {
	data, err := opts.validate()
	if err != nil {
		return nil, err
	}
	if len(data) <= saltLen {
		return nil, ErrCypherTooShort
	}
	body, salt := data[:len(data)-saltLen], data[len(data)-saltLen:]

	aead, _, err := newAEAD(opts.Passphrase, salt)
	if err != nil {
		return nil, err
	}
	if len(body) < aead.NonceSize() {
		return nil, ErrCypherTooShort
	}
	return aead.Open(nil, body[:aead.NonceSize()], body[aead.NonceSize():], nil)
}

// newAEAD stretches the passphrase and returns the GCM instance keyed with
// it. A nil salt is replaced with a fresh random one.
func newAEAD(passphrase, salt []byte) (cipher.AEAD, []byte, error) {
	key, salt, err := DeriveKey(passphrase, salt)
	if err != nil {
		return nil, nil, err
	}
	defer Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	return aead, salt, nil
}

// DeriveKey stretches the passphrase into a 32 byte key with scrypt
// (r=8, p=1). A nil salt is generated and returned along with the key.
func DeriveKey(passphrase, salt []byte) ([]byte, []byte, error) {
	if salt == nil {
		salt = make([]byte, saltLen)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, err
		}
	}
	key, err := scrypt.Key(passphrase, salt, ScryptN, 8, 1, keyLen)
	if err != nil {
		return nil, nil, err
	}
	return key, salt, nil
}
