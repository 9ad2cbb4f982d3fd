package domain

import (
	"context"
	"errors"
	"time"
)

// ErrVaultNotFound ...
var ErrVaultNotFound = errors.New("vault not found")

// VaultRecord is the persisted form of a wallet vault: the full encrypted
// tree for local use and the pruned one for off-device backup.
type VaultRecord struct {
	Owner      string
	Blob       string
	PrunedBlob string
	UpdatedAt  time.Time
}

type VaultRepository interface {
	// GetVault returns ErrVaultNotFound if no vault is stored for owner.
	GetVault(ctx context.Context, owner string) (*VaultRecord, error)
	UpdateVault(
		ctx context.Context,
		owner string,
		updateFn func(v *VaultRecord) (*VaultRecord, error),
	) error
}
