package application

import "errors"

var (
	// ErrWalletNotLoaded is returned by operations requiring a loaded wallet
	ErrWalletNotLoaded = errors.New("wallet not loaded")
	// ErrVaultNotFound is returned when mutating a vault never generated
	ErrVaultNotFound = errors.New("vault not found, generate the wallet first")
	// ErrHostChainStalled is returned when the EVM host chains do not complete
	// their refresh in time. Tokens are not refreshed in that case.
	ErrHostChainStalled = errors.New("host chain refresh did not complete, tokens not refreshed")
	// ErrRefreshTimeout is returned when the whole refresh does not complete
	ErrRefreshTimeout = errors.New("wallet refresh did not complete in time")
	// ErrRefreshInProgress ...
	ErrRefreshInProgress = errors.New("a wallet refresh is already in progress")
	// ErrPoolNotRunning ...
	ErrPoolNotRunning = errors.New("worker pool is not running")
)
