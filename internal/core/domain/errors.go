package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNullSecret is returned when a vault operation is called without
	// passphrase material
	ErrNullSecret = errors.New("apk and hashed master key must not be null")
	// ErrEmptyVault is returned when opening a missing or empty vault blob
	ErrEmptyVault = errors.New("encrypted vault blob is empty")
	// ErrAssetNotFound ...
	ErrAssetNotFound = errors.New("asset is not held by the wallet")
	// ErrAccountNotFound ...
	ErrAccountNotFound = errors.New("account not found")
	// ErrHostChainMissing is returned when generating a token whose host
	// chain is neither held nor being generated
	ErrHostChainMissing = errors.New("token host chain is not held by the wallet")
	// ErrMissingEOSWallet ...
	ErrMissingEOSWallet = errors.New("eos requires an active wallet credential")
	// ErrNoKeysToImport ...
	ErrNoKeysToImport = errors.New("no keys to import")
	// ErrNoAccountsToRemove ...
	ErrNoAccountsToRemove = errors.New("no account names to remove")
	// ErrTokenImport ...
	ErrTokenImport = errors.New("keys can not be imported into a token, import them into its host chain")
	// ErrAddressMismatch ...
	ErrAddressMismatch = errors.New("supplied address is not controlled by the private key")
)

// ValidationError is returned for missing or malformed caller input.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Err)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DecryptionError is returned when the vault blob can not be opened.
type DecryptionError struct {
	Err error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("failed to decrypt vault: %s", e.Err)
}

func (e *DecryptionError) Unwrap() error { return e.Err }

// ConfigurationError is returned for unsupported or misconfigured chains.
type ConfigurationError struct {
	Chain string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Chain, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// InvalidKeyError is returned when a supplied private key is malformed.
type InvalidKeyError struct {
	Chain string
	Index int
	Err   error
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid %s key at position %d: %s", e.Chain, e.Index, e.Err)
}

func (e *InvalidKeyError) Unwrap() error { return e.Err }

// ProviderError wraps a chain data provider failure.
type ProviderError struct {
	Chain   string
	Address string
	Op      string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Address == "" {
		return fmt.Sprintf("provider %s %s: %s", e.Chain, e.Op, e.Err)
	}
	return fmt.Sprintf("provider %s %s %s: %s", e.Chain, e.Op, e.Address, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// CacheWriteError wraps a failure to persist a resolved transaction.
type CacheWriteError struct {
	Key string
	Err error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("failed to cache tx %s: %s", e.Key, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsDecryptionError(err error) bool {
	var target *DecryptionError
	return errors.As(err, &target)
}

func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsInvalidKeyError(err error) bool {
	var target *InvalidKeyError
	return errors.As(err, &target)
}

func IsProviderError(err error) bool {
	var target *ProviderError
	return errors.As(err, &target)
}

func IsCacheWriteError(err error) bool {
	var target *CacheWriteError
	return errors.As(err, &target)
}
